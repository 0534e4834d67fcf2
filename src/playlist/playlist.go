package playlist

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"playdeck/src/media"
)

// Track is a single entry of a playlist.
type Track struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	MediaPath string `json:"path"`
}

func (track Track) String() string {
	return fmt.Sprintf("%s by %s", track.Title, track.Artist)
}

// Storage is the part of the upload storage a Playlist reads media from.
type Storage interface {
	Exists(path string) bool
	ReadFile(path string) ([]byte, error)
}

// Playback is a track whose media is loaded and ready to be handed to an
// audio or video widget.
type Playback struct {
	Track Track
	Data  []byte
	Kind  media.Kind
	MIME  string
}

// A Playlist is an ordered collection of tracks with a cursor pointing at the
// track that is selected for playback.
//
// The cursor is unset if and only if the playlist is empty. A Playlist is not
// safe for concurrent use.
type Playlist struct {
	storage Storage
	tracks  []Track
	cursor  int
}

// New creates an empty playlist which loads media from the specified storage.
func New(storage Storage) *Playlist {
	return &Playlist{storage: storage, cursor: -1}
}

// AddTrack appends a track to the end of the playlist. The first track added
// to an empty playlist becomes the current track.
func (pl *Playlist) AddTrack(title, artist, mediaPath string) (Track, error) {
	switch {
	case title == "":
		return Track{}, &ValidationError{Field: "title"}
	case artist == "":
		return Track{}, &ValidationError{Field: "artist"}
	case mediaPath == "":
		return Track{}, &ValidationError{Field: "file"}
	}

	track := Track{Title: title, Artist: artist, MediaPath: mediaPath}
	pl.tracks = append(pl.tracks, track)
	if pl.cursor == -1 {
		pl.cursor = 0
	}
	return track, nil
}

// ListTracks describes every track on a line of its own in playlist order.
// The current track is prefixed with a marker.
func (pl *Playlist) ListTracks() []string {
	lines := make([]string, 0, len(pl.tracks))
	for i, track := range pl.tracks {
		marker := ""
		if i == pl.cursor {
			marker = "▶️ "
		}
		ext := filepath.Ext(track.MediaPath)
		lines = append(lines, fmt.Sprintf("%s%d. %s (%s)", marker, i+1, track, ext))
	}
	return lines
}

// PlayCurrent loads the media of the current track.
//
// ErrNoCurrent is returned for an empty playlist. A *FileError wrapping
// ErrFileMissing or ErrUnsupported is returned if the file is gone or its
// type is not recognized.
func (pl *Playlist) PlayCurrent() (*Playback, error) {
	track, ok := pl.Current()
	if !ok {
		return nil, ErrNoCurrent
	}

	path := track.MediaPath
	if !pl.storage.Exists(path) {
		return nil, &FileError{Path: path, Err: ErrFileMissing}
	}
	kind, ok := media.Classify(path)
	if !ok {
		return nil, &FileError{Path: path, Err: ErrUnsupported}
	}
	data, err := pl.storage.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &FileError{Path: path, Err: ErrFileMissing}
	} else if err != nil {
		return nil, fmt.Errorf("could not read %q: %w", path, err)
	}

	return &Playback{
		Track: track,
		Data:  data,
		Kind:  kind,
		MIME:  media.MIMEType(path),
	}, nil
}

// Advance moves the cursor to the next track.
func (pl *Playlist) Advance() error {
	if pl.cursor == -1 {
		return ErrEmptyPlaylist
	}
	if pl.cursor == len(pl.tracks)-1 {
		return ErrEndOfPlaylist
	}
	pl.cursor++
	return nil
}

// Retreat moves the cursor to the previous track.
func (pl *Playlist) Retreat() error {
	if pl.cursor == -1 {
		return ErrNoCurrent
	}
	if pl.cursor == 0 {
		return ErrAlreadyAtStart
	}
	pl.cursor--
	return nil
}

// RemoveTrack removes the first track with exactly the specified title.
//
// If the current track is removed, the cursor moves to the track after it,
// or the one before it if it was the last track. Removing the only track
// unsets the cursor.
func (pl *Playlist) RemoveTrack(title string) (Track, error) {
	if len(pl.tracks) == 0 {
		return Track{}, ErrEmptyPlaylist
	}

	index := -1
	for i, track := range pl.tracks {
		if track.Title == title {
			index = i
			break
		}
	}
	if index == -1 {
		return Track{}, fmt.Errorf("%w: %q", ErrTrackNotFound, title)
	}

	removed := pl.tracks[index]
	pl.tracks = append(pl.tracks[:index], pl.tracks[index+1:]...)
	switch {
	case index < pl.cursor:
		// Same track, one position closer to the start.
		pl.cursor--
	case index > pl.cursor:
		// Cursor unaffected.
	case index < len(pl.tracks):
		// The successor now occupies the removed track's position.
	case index > 0:
		pl.cursor = index - 1
	default:
		pl.cursor = -1
	}
	return removed, nil
}

// Len returns the number of tracks in the playlist.
func (pl *Playlist) Len() int {
	return len(pl.tracks)
}

// Tracks returns a copy of all tracks in playlist order.
func (pl *Playlist) Tracks() []Track {
	return append([]Track(nil), pl.tracks...)
}

// Current returns the track under the cursor. The bool is false if the
// playlist is empty.
func (pl *Playlist) Current() (Track, bool) {
	if pl.cursor == -1 {
		return Track{}, false
	}
	return pl.tracks[pl.cursor], true
}

// CurrentIndex returns the 0-based position of the cursor or -1 if it is unset.
func (pl *Playlist) CurrentIndex() int {
	return pl.cursor
}
