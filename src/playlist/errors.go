package playlist

import (
	"errors"
	"fmt"
)

// A StateError is returned when an operation does not apply to the current
// state of the playlist, e.g. navigating past either end.
type StateError struct {
	reason string
}

func (err *StateError) Error() string {
	return err.reason
}

var (
	ErrEmptyPlaylist  error = &StateError{reason: "playlist is empty"}
	ErrEndOfPlaylist  error = &StateError{reason: "end of playlist, there is no next track"}
	ErrAlreadyAtStart error = &StateError{reason: "already at the beginning of the playlist"}
	ErrNoCurrent      error = &StateError{reason: "playlist is empty or no track is selected"}
)

var (
	// ErrTrackNotFound is returned when no track in the playlist has the
	// requested title.
	ErrTrackNotFound = errors.New("track not found")

	// ErrFileMissing is returned when the media file of a track is no longer
	// present in the storage.
	ErrFileMissing = errors.New("file not found")

	// ErrUnsupported is returned when the extension of a media file is not
	// recognized as audio or video.
	ErrUnsupported = errors.New("file type is not supported for playback")
)

// A ValidationError reports a missing or malformed argument.
type ValidationError struct {
	Field string
}

func (err *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", err.Field)
}

// A FileError relates a media file to the reason it can not be played.
type FileError struct {
	Path string
	Err  error
}

func (err *FileError) Error() string {
	return fmt.Sprintf("%v: %s", err.Err, err.Path)
}

func (err *FileError) Unwrap() error {
	return err.Err
}
