package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"path/filepath"
	"text/template"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"playdeck/src/media"
	"playdeck/src/metrics"
	"playdeck/src/playlist"
)

// Uploads are parsed in memory up to this size, the remainder is spooled to
// temporary files.
const maxMemory = 32 << 20

var m3uTemplate = template.Must(template.New("m3u").Parse(
	`#EXTM3U
{{ range .Tracks }}
#EXTINF:-1,{{ .Artist }} - {{ .Title }}
{{ $.Root }}media/{{ .File }}
{{ end }}`))

func jsonTrack(track playlist.Track, current bool) interface{} {
	var struc struct {
		Title   string `json:"title"`
		Artist  string `json:"artist"`
		File    string `json:"file"`
		Ext     string `json:"ext"`
		Current bool   `json:"current"`
	}
	struc.Title = track.Title
	struc.Artist = track.Artist
	struc.File = filepath.Base(track.MediaPath)
	struc.Ext = filepath.Ext(track.MediaPath)
	struc.Current = current
	return struc
}

func jsonPlaylist(pl *playlist.Playlist) interface{} {
	tracks := pl.Tracks()
	current := pl.CurrentIndex()
	jsonTracks := make([]interface{}, len(tracks))
	for i, track := range tracks {
		jsonTracks[i] = jsonTrack(track, i == current)
	}
	return map[string]interface{}{
		"current": current,
		"length":  pl.Len(),
		"tracks":  jsonTracks,
		"lines":   pl.ListTracks(),
	}
}

// AddFromRequest stores the file uploaded with a multipart form and appends
// it to the playlist using the "title" and "artist" form values.
//
// The title and artist are validated before anything is stored.
func (api *API) AddFromRequest(w http.ResponseWriter, r *http.Request, pl *playlist.Playlist) (playlist.Track, error) {
	if api.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, api.maxUploadSize)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return playlist.Track{}, err
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	title, artist := r.FormValue("title"), r.FormValue("artist")
	if title == "" {
		return playlist.Track{}, &playlist.ValidationError{Field: "title"}
	} else if artist == "" {
		return playlist.Track{}, &playlist.ValidationError{Field: "artist"}
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return playlist.Track{}, &playlist.ValidationError{Field: "file"}
	} else if err != nil {
		return playlist.Track{}, err
	}
	defer file.Close()
	if _, ok := media.Classify(header.Filename); !ok {
		return playlist.Track{}, &playlist.FileError{Path: header.Filename, Err: playlist.ErrUnsupported}
	}

	savedPath, err := api.storage.Save(header.Filename, file)
	if err != nil {
		return playlist.Track{}, err
	}
	return pl.AddTrack(title, artist, savedPath)
}

func (api *API) playlistContents(w http.ResponseWriter, r *http.Request) {
	sess := api.sessions.FromRequest(w, r)
	sess.Lock()
	defer sess.Unlock()
	json.NewEncoder(w).Encode(jsonPlaylist(sess.Playlist))
}

func (api *API) playlistAdd(w http.ResponseWriter, r *http.Request) {
	sess := api.sessions.FromRequest(w, r)
	sess.Lock()
	defer sess.Unlock()

	track, err := api.AddFromRequest(w, r, sess.Playlist)
	Observe("add", err)
	if api.mapError(w, r, err) {
		return
	}
	log.WithField("session", sess.ID).Infof("Added %v", track)
	sess.Changed()
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(jsonPlaylist(sess.Playlist))
}

func (api *API) playlistRemove(w http.ResponseWriter, r *http.Request) {
	var data struct {
		Title string `json:"title"`
	}
	if receiveJSONForm(w, r, &data) {
		return
	}

	sess := api.sessions.FromRequest(w, r)
	sess.Lock()
	defer sess.Unlock()

	track, err := sess.Playlist.RemoveTrack(data.Title)
	Observe("remove", err)
	if api.mapError(w, r, err) {
		return
	}
	log.WithField("session", sess.ID).Infof("Removed %v", track)
	sess.Changed()
	json.NewEncoder(w).Encode(jsonPlaylist(sess.Playlist))
}

func (api *API) playlistNext(w http.ResponseWriter, r *http.Request) {
	api.navigate(w, r, "advance", (*playlist.Playlist).Advance)
}

func (api *API) playlistPrev(w http.ResponseWriter, r *http.Request) {
	api.navigate(w, r, "retreat", (*playlist.Playlist).Retreat)
}

func (api *API) navigate(w http.ResponseWriter, r *http.Request, operation string, move func(*playlist.Playlist) error) {
	sess := api.sessions.FromRequest(w, r)
	sess.Lock()
	defer sess.Unlock()

	err := move(sess.Playlist)
	Observe(operation, err)
	if api.mapError(w, r, err) {
		return
	}
	sess.Changed()
	json.NewEncoder(w).Encode(jsonPlaylist(sess.Playlist))
}

func (api *API) playCurrent(w http.ResponseWriter, r *http.Request) (*playlist.Playback, bool) {
	sess := api.sessions.FromRequest(w, r)
	sess.Lock()
	playback, err := sess.Playlist.PlayCurrent()
	sess.Unlock()

	Observe("play", err)
	if api.mapError(w, r, err) {
		return nil, false
	}
	metrics.PlaybackBytesTotal.WithLabelValues(string(playback.Kind)).Add(float64(len(playback.Data)))
	return playback, true
}

func (api *API) playlistCurrent(w http.ResponseWriter, r *http.Request) {
	playback, ok := api.playCurrent(w, r)
	if !ok {
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"title":  playback.Track.Title,
		"artist": playback.Track.Artist,
		"file":   filepath.Base(playback.Track.MediaPath),
		"kind":   playback.Kind,
		"mime":   playback.MIME,
		"size":   len(playback.Data),
	})
}

func (api *API) playlistCurrentMedia(w http.ResponseWriter, r *http.Request) {
	playback, ok := api.playCurrent(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", playback.MIME)
	w.Header().Set("Cache-Control", "no-store")
	name := filepath.Base(playback.Track.MediaPath)
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(playback.Data))
}

func (api *API) playlistM3U(w http.ResponseWriter, r *http.Request) {
	sess := api.sessions.FromRequest(w, r)
	sess.Lock()
	tracks := sess.Playlist.Tracks()
	sess.Unlock()

	type m3uTrack struct {
		Title, Artist, File string
	}
	entries := make([]m3uTrack, len(tracks))
	for i, track := range tracks {
		entries[i] = m3uTrack{
			Title:  track.Title,
			Artist: track.Artist,
			File:   path.Base(filepath.ToSlash(track.MediaPath)),
		}
	}

	var buf bytes.Buffer
	err := m3uTemplate.Execute(&buf, map[string]interface{}{
		"Root":   api.urlRoot,
		"Tracks": entries,
	})
	if api.mapError(w, r, err) {
		return
	}
	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.Header().Set("Content-Disposition", `attachment; filename="playlist.m3u"`)
	w.Write(buf.Bytes())
}

func (api *API) mediaFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	fd, err := api.storage.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer fd.Close()
	info, err := fd.Stat()
	if api.mapError(w, r, err) {
		return
	}
	w.Header().Set("Content-Type", media.MIMEType(name))
	http.ServeContent(w, r, name, info.ModTime(), fd)
}

func (api *API) probe(w http.ResponseWriter, r *http.Request) {
	if api.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, api.maxUploadSize)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		WriteError(w, r, err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, r, &playlist.ValidationError{Field: "file"})
		return
	}
	defer file.Close()
	if _, ok := media.Classify(header.Filename); !ok {
		WriteError(w, r, &playlist.FileError{Path: header.Filename, Err: playlist.ErrUnsupported})
		return
	}

	info := media.Probe(file, header.Filename)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"title":    info.Title,
		"artist":   info.Artist,
		"album":    info.Album,
		"kind":     info.Kind,
		"duration": int(info.Duration / time.Second),
	})
}
