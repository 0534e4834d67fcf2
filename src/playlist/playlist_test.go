package playlist

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"testing"

	"playdeck/src/media"
)

type memStorage map[string][]byte

func (ms memStorage) Exists(path string) bool {
	_, ok := ms[path]
	return ok
}

func (ms memStorage) ReadFile(path string) ([]byte, error) {
	data, ok := ms[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return data, nil
}

func fill(t *testing.T, pl *Playlist, titles ...string) {
	t.Helper()
	for _, title := range titles {
		if _, err := pl.AddTrack(title, "Artist "+title, "uploads/"+title+".mp3"); err != nil {
			t.Fatal(err)
		}
	}
}

func currentTitle(pl *Playlist) string {
	track, ok := pl.Current()
	if !ok {
		return ""
	}
	return track.Title
}

func TestAddTrack(t *testing.T) {
	pl := New(memStorage{})
	for i := 0; i < 5; i++ {
		title := fmt.Sprintf("T%d", i)
		if _, err := pl.AddTrack(title, "X", "uploads/"+title+".mp3"); err != nil {
			t.Fatal(err)
		}
		if pl.Len() != i+1 {
			t.Fatalf("Unexpected length: %d != %d", pl.Len(), i+1)
		}
		if cur := currentTitle(pl); cur != "T0" {
			t.Fatalf("Cursor moved on add: %q", cur)
		}
	}
	tracks := pl.Tracks()
	for i, track := range tracks {
		if track.Title != fmt.Sprintf("T%d", i) {
			t.Fatalf("Insertion order not preserved at %d: %q", i, track.Title)
		}
	}
}

func TestAddTrackValidation(t *testing.T) {
	pl := New(memStorage{})
	tests := []struct {
		title, artist, path string
		field               string
	}{
		{"", "X", "a.mp3", "title"},
		{"A", "", "a.mp3", "artist"},
		{"A", "X", "", "file"},
	}
	for _, tt := range tests {
		_, err := pl.AddTrack(tt.title, tt.artist, tt.path)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Expected a validation error, got %v", err)
		}
		if verr.Field != tt.field {
			t.Fatalf("Unexpected field: %q != %q", verr.Field, tt.field)
		}
	}
	if pl.Len() != 0 {
		t.Fatalf("Invalid tracks were added: %d", pl.Len())
	}
	if _, ok := pl.Current(); ok {
		t.Fatalf("Cursor set on an empty playlist")
	}
}

func TestListTracks(t *testing.T) {
	pl := New(memStorage{})
	if lines := pl.ListTracks(); len(lines) != 0 {
		t.Fatalf("Unexpected lines for an empty playlist: %v", lines)
	}

	if _, err := pl.AddTrack("A", "X", "uploads/a.mp3"); err != nil {
		t.Fatal(err)
	}
	if _, err := pl.AddTrack("B", "Y", "uploads/b.webm"); err != nil {
		t.Fatal(err)
	}
	expect := []string{
		"▶️ 1. A by X (.mp3)",
		"2. B by Y (.webm)",
	}
	if lines := pl.ListTracks(); !reflect.DeepEqual(lines, expect) {
		t.Fatalf("Unexpected lines: %q", lines)
	}

	if err := pl.Advance(); err != nil {
		t.Fatal(err)
	}
	expect = []string{
		"1. A by X (.mp3)",
		"▶️ 2. B by Y (.webm)",
	}
	if lines := pl.ListTracks(); !reflect.DeepEqual(lines, expect) {
		t.Fatalf("Unexpected lines: %q", lines)
	}
}

func TestAdvance(t *testing.T) {
	pl := New(memStorage{})
	if err := pl.Advance(); err != ErrEmptyPlaylist {
		t.Fatalf("Unexpected error: %v", err)
	}

	fill(t, pl, "A", "B")
	if err := pl.Advance(); err != nil {
		t.Fatal(err)
	}
	if cur := currentTitle(pl); cur != "B" {
		t.Fatalf("Unexpected current track: %q", cur)
	}
	if err := pl.Advance(); err != ErrEndOfPlaylist {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cur := currentTitle(pl); cur != "B" {
		t.Fatalf("Cursor moved past the end: %q", cur)
	}
}

func TestRetreat(t *testing.T) {
	pl := New(memStorage{})
	if err := pl.Retreat(); err != ErrNoCurrent {
		t.Fatalf("Unexpected error: %v", err)
	}

	fill(t, pl, "A", "B", "C")
	if err := pl.Retreat(); err != ErrAlreadyAtStart {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cur := currentTitle(pl); cur != "A" {
		t.Fatalf("Cursor moved before the start: %q", cur)
	}

	pl.Advance()
	pl.Advance()
	if err := pl.Retreat(); err != nil {
		t.Fatal(err)
	}
	if cur := currentTitle(pl); cur != "B" {
		t.Fatalf("Unexpected current track: %q", cur)
	}
}

func TestAdvanceRetreatRoundTrip(t *testing.T) {
	pl := New(memStorage{})
	fill(t, pl, "A", "B", "C", "D")
	// Every position that has a successor.
	for start := 0; start < 3; start++ {
		before := pl.CurrentIndex()
		if before != start {
			t.Fatalf("Unexpected cursor: %d != %d", before, start)
		}
		if err := pl.Advance(); err != nil {
			t.Fatal(err)
		}
		if err := pl.Retreat(); err != nil {
			t.Fatal(err)
		}
		if after := pl.CurrentIndex(); after != before {
			t.Fatalf("Cursor not restored: %d != %d", after, before)
		}
		pl.Advance()
	}
}

func TestRemoveTrack(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		pl := New(memStorage{})
		if _, err := pl.RemoveTrack("A"); err != ErrEmptyPlaylist {
			t.Fatalf("Unexpected error: %v", err)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		pl := New(memStorage{})
		fill(t, pl, "A", "B")
		_, err := pl.RemoveTrack("a")
		if !errors.Is(err, ErrTrackNotFound) {
			t.Fatalf("Unexpected error: %v", err)
		}
		if pl.Len() != 2 {
			t.Fatalf("Unexpected length: %d", pl.Len())
		}
	})

	t.Run("not_current", func(t *testing.T) {
		pl := New(memStorage{})
		fill(t, pl, "A", "B", "C")
		pl.Advance()
		pl.Advance()
		if _, err := pl.RemoveTrack("A"); err != nil {
			t.Fatal(err)
		}
		if cur := currentTitle(pl); cur != "C" {
			t.Fatalf("Unexpected current track: %q", cur)
		}
		if _, err := pl.RemoveTrack("B"); err != nil {
			t.Fatal(err)
		}
		if cur := currentTitle(pl); cur != "C" {
			t.Fatalf("Unexpected current track: %q", cur)
		}
	})

	t.Run("current_moves_to_successor", func(t *testing.T) {
		pl := New(memStorage{})
		fill(t, pl, "A", "B", "C")
		pl.Advance()
		removed, err := pl.RemoveTrack("B")
		if err != nil {
			t.Fatal(err)
		}
		if removed.Title != "B" {
			t.Fatalf("Unexpected removed track: %q", removed.Title)
		}
		if cur := currentTitle(pl); cur != "C" {
			t.Fatalf("Unexpected current track: %q", cur)
		}
	})

	t.Run("current_moves_to_predecessor", func(t *testing.T) {
		pl := New(memStorage{})
		fill(t, pl, "A", "B", "C")
		pl.Advance()
		pl.Advance()
		if _, err := pl.RemoveTrack("C"); err != nil {
			t.Fatal(err)
		}
		if cur := currentTitle(pl); cur != "B" {
			t.Fatalf("Unexpected current track: %q", cur)
		}
	})

	t.Run("head_is_current", func(t *testing.T) {
		pl := New(memStorage{})
		fill(t, pl, "A", "B")
		if _, err := pl.RemoveTrack("A"); err != nil {
			t.Fatal(err)
		}
		if cur := currentTitle(pl); cur != "B" {
			t.Fatalf("Unexpected current track: %q", cur)
		}
	})

	t.Run("only_track", func(t *testing.T) {
		pl := New(memStorage{})
		fill(t, pl, "A")
		if _, err := pl.RemoveTrack("A"); err != nil {
			t.Fatal(err)
		}
		if _, ok := pl.Current(); ok {
			t.Fatalf("Cursor still set on an empty playlist")
		}
		if pl.CurrentIndex() != -1 {
			t.Fatalf("Unexpected cursor: %d", pl.CurrentIndex())
		}
		// The playlist is usable again afterwards.
		fill(t, pl, "B")
		if cur := currentTitle(pl); cur != "B" {
			t.Fatalf("Unexpected current track: %q", cur)
		}
	})

	t.Run("duplicate_titles", func(t *testing.T) {
		pl := New(memStorage{})
		if _, err := pl.AddTrack("Same", "First", "uploads/1.mp3"); err != nil {
			t.Fatal(err)
		}
		if _, err := pl.AddTrack("Same", "Second", "uploads/2.mp3"); err != nil {
			t.Fatal(err)
		}
		removed, err := pl.RemoveTrack("Same")
		if err != nil {
			t.Fatal(err)
		}
		if removed.Artist != "First" {
			t.Fatalf("Not the first match was removed: %q", removed.Artist)
		}
		tracks := pl.Tracks()
		if len(tracks) != 1 || tracks[0].Artist != "Second" {
			t.Fatalf("Unexpected remaining tracks: %v", tracks)
		}
	})

	t.Run("round_trip", func(t *testing.T) {
		pl := New(memStorage{})
		fill(t, pl, "A", "B")
		before := pl.Len()
		fill(t, pl, "New")
		if _, err := pl.RemoveTrack("New"); err != nil {
			t.Fatal(err)
		}
		if pl.Len() != before {
			t.Fatalf("Unexpected length: %d != %d", pl.Len(), before)
		}
	})
}

// Removing the current track from every position must leave the cursor on a
// remaining track, or unset when nothing remains.
func TestRemoveCurrentKeepsCursorValid(t *testing.T) {
	titles := []string{"A", "B", "C", "D", "E"}
	for pos := range titles {
		pl := New(memStorage{})
		fill(t, pl, titles...)
		for i := 0; i < pos; i++ {
			pl.Advance()
		}
		for pl.Len() > 0 {
			cur, _ := pl.Current()
			if _, err := pl.RemoveTrack(cur.Title); err != nil {
				t.Fatal(err)
			}
			if pl.Len() == 0 {
				if _, ok := pl.Current(); ok {
					t.Fatalf("Cursor still set on an empty playlist")
				}
				break
			}
			idx := pl.CurrentIndex()
			if idx < 0 || idx >= pl.Len() {
				t.Fatalf("Cursor out of range: %d (len %d)", idx, pl.Len())
			}
		}
	}
}

func TestPlayCurrent(t *testing.T) {
	storage := memStorage{
		"uploads/a.mp3": []byte("audio"),
		"uploads/b.MKV": []byte("video"),
		"uploads/c.txt": []byte("text"),
	}

	t.Run("empty", func(t *testing.T) {
		pl := New(storage)
		if _, err := pl.PlayCurrent(); err != ErrNoCurrent {
			t.Fatalf("Unexpected error: %v", err)
		}
	})

	t.Run("audio", func(t *testing.T) {
		pl := New(storage)
		pl.AddTrack("A", "X", "uploads/a.mp3")
		pb, err := pl.PlayCurrent()
		if err != nil {
			t.Fatal(err)
		}
		if pb.Kind != media.Audio || string(pb.Data) != "audio" || pb.MIME != "audio/mpeg" {
			t.Fatalf("Unexpected playback: %v %q %q", pb.Kind, pb.Data, pb.MIME)
		}
		if pb.Track.Title != "A" {
			t.Fatalf("Unexpected track: %v", pb.Track)
		}
	})

	t.Run("video", func(t *testing.T) {
		pl := New(storage)
		pl.AddTrack("B", "Y", "uploads/b.MKV")
		pb, err := pl.PlayCurrent()
		if err != nil {
			t.Fatal(err)
		}
		if pb.Kind != media.Video || string(pb.Data) != "video" {
			t.Fatalf("Unexpected playback: %v %q", pb.Kind, pb.Data)
		}
	})

	t.Run("missing", func(t *testing.T) {
		pl := New(storage)
		pl.AddTrack("Gone", "Z", "uploads/gone.mp3")
		_, err := pl.PlayCurrent()
		var ferr *FileError
		if !errors.As(err, &ferr) || !errors.Is(err, ErrFileMissing) {
			t.Fatalf("Unexpected error: %v", err)
		}
		if ferr.Path != "uploads/gone.mp3" {
			t.Fatalf("Unexpected path: %q", ferr.Path)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		pl := New(storage)
		pl.AddTrack("C", "Z", "uploads/c.txt")
		_, err := pl.PlayCurrent()
		if !errors.Is(err, ErrUnsupported) {
			t.Fatalf("Unexpected error: %v", err)
		}
	})

	t.Run("missing_before_unsupported", func(t *testing.T) {
		pl := New(storage)
		pl.AddTrack("D", "Z", "uploads/gone.txt")
		if _, err := pl.PlayCurrent(); !errors.Is(err, ErrFileMissing) {
			t.Fatalf("Unexpected error: %v", err)
		}
	})
}

func TestStateErrors(t *testing.T) {
	for _, err := range []error{ErrEmptyPlaylist, ErrEndOfPlaylist, ErrAlreadyAtStart, ErrNoCurrent} {
		var serr *StateError
		if !errors.As(err, &serr) {
			t.Fatalf("%v is not a StateError", err)
		}
	}
}
