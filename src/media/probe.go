package media

import (
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/mp3"
	log "github.com/sirupsen/logrus"
)

var interpArtistTitleInFilename = regexp.MustCompile(`^(?:(?:\d+\.\s+)|(?:\d+\s+-\s+))?(.+?)\s+-\s+(.+)$`)

// Info holds what could be learned about an uploaded file before it is added
// to a playlist. Fields that could not be determined are left empty.
type Info struct {
	Title    string        `json:"title,omitempty"`
	Artist   string        `json:"artist,omitempty"`
	Album    string        `json:"album,omitempty"`
	Duration time.Duration `json:"duration"`
	Kind     Kind          `json:"kind,omitempty"`
}

// Probe suggests a title and artist for a media file.
//
// Embedded tags take precedence. If they are absent, an "<artist> - <title>"
// pattern in the filename is used and as a last resort the bare filename
// becomes the title. For mp3 files the duration is determined by decoding the
// stream.
func Probe(r io.ReadSeeker, name string) Info {
	var info Info
	info.Kind, _ = Classify(name)

	if _, err := r.Seek(0, io.SeekStart); err == nil {
		if meta, err := tag.ReadFrom(r); err == nil {
			info.Title = strings.TrimSpace(meta.Title())
			info.Artist = strings.TrimSpace(meta.Artist())
			info.Album = strings.TrimSpace(meta.Album())
		} else {
			log.WithField("file", name).Debugf("No tags: %v", err)
		}
	}
	interpolateFromFilename(&info, name)

	if strings.EqualFold(filepath.Ext(name), ".mp3") {
		if _, err := r.Seek(0, io.SeekStart); err == nil {
			if d, err := mp3Duration(r); err == nil {
				info.Duration = d
			} else {
				log.WithField("file", name).Debugf("Could not determine duration: %v", err)
			}
		}
	}
	return info
}

func interpolateFromFilename(info *Info, name string) {
	if info.Artist != "" && info.Title != "" {
		return
	}
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if match := interpArtistTitleInFilename.FindStringSubmatch(base); match != nil {
		if info.Artist == "" {
			info.Artist = strings.TrimSpace(match[1])
		}
		if info.Title == "" {
			info.Title = strings.TrimSpace(match[2])
		}
		return
	}
	if info.Title == "" {
		info.Title = base
	}
}

func mp3Duration(r io.Reader) (time.Duration, error) {
	streamer, format, err := mp3.Decode(io.NopCloser(r))
	if err != nil {
		return 0, err
	}
	defer streamer.Close()
	return format.SampleRate.D(streamer.Len()), nil
}
