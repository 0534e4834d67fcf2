package media

import (
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the class of widget a media file is played back with.
type Kind string

const (
	Audio Kind = "audio"
	Video Kind = "video"
)

var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
}

var audioExtensions = map[string]string{
	".mp3": "audio/mpeg",
	".wav": "audio/wav",
	".m4a": "audio/mp4",
	".aac": "audio/aac",
	".ogg": "audio/ogg",
}

// Classify determines whether the file at path is audio or video by looking
// at its extension only. The file contents are never inspected.
//
// The bool is false if the extension is not recognized.
func Classify(path string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := videoExtensions[ext]; ok {
		return Video, true
	}
	if _, ok := audioExtensions[ext]; ok {
		return Audio, true
	}
	return "", false
}

// MIMEType returns the MIME type for a recognized media file or
// "application/octet-stream" otherwise.
func MIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mime, ok := videoExtensions[ext]; ok {
		return mime
	}
	if mime, ok := audioExtensions[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// Extensions lists all accepted extensions without the leading dot, audio
// first.
func Extensions() []string {
	exts := make([]string, 0, len(audioExtensions)+len(videoExtensions))
	for _, set := range []map[string]string{audioExtensions, videoExtensions} {
		sub := make([]string, 0, len(set))
		for ext := range set {
			sub = append(sub, strings.TrimPrefix(ext, "."))
		}
		sort.Strings(sub)
		exts = append(exts, sub...)
	}
	return exts
}
