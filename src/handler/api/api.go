package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"playdeck/src/metrics"
	"playdeck/src/playlist"
	"playdeck/src/session"
	"playdeck/src/storage"
)

// Notice classes used to present errors and results to users.
const (
	ClassSuccess = "success"
	ClassInfo    = "info"
	ClassWarning = "warning"
	ClassError   = "error"
)

// API contains the state that is accessible over the REST API.
type API struct {
	sessions      *session.Store
	storage       *storage.Dir
	maxUploadSize int64
	urlRoot       string
}

// New creates an API serving the playlists of the specified sessions. The
// URL root must be absolute, it is used to generate links for external
// programs.
func New(sessions *session.Store, storage *storage.Dir, maxUploadSize int64, urlRoot string) *API {
	return &API{
		sessions:      sessions,
		storage:       storage,
		maxUploadSize: maxUploadSize,
		urlRoot:       strings.TrimSuffix(urlRoot, "/") + "/",
	}
}

// InitRouter attaches all API routes to the specified router.
func InitRouter(r chi.Router, api *API) {
	r.Route("/playlist", func(r chi.Router) {
		r.With(jsonCtx).Get("/", api.playlistContents)
		r.With(jsonCtx).Post("/", api.playlistAdd)
		r.With(jsonCtx).Delete("/", api.playlistRemove)
		r.With(jsonCtx).Post("/next", api.playlistNext)
		r.With(jsonCtx).Post("/prev", api.playlistPrev)
		r.With(jsonCtx).Get("/current", api.playlistCurrent)
		r.Get("/current/media", api.playlistCurrentMedia)
	})
	r.Get("/playlist.m3u", api.playlistM3U)
	r.Get("/media/{name}", api.mediaFile)
	r.With(jsonCtx).Post("/probe", api.probe)
	r.Get("/events", api.events)
}

// Classify maps an error to an HTTP status code and a notice class.
func Classify(err error) (int, string) {
	var verr *playlist.ValidationError
	var serr *playlist.StateError
	var mberr *http.MaxBytesError
	switch {
	case errors.As(err, &verr), errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest, ClassWarning
	case errors.Is(err, playlist.ErrTrackNotFound), errors.Is(err, playlist.ErrFileMissing):
		return http.StatusNotFound, ClassError
	case errors.Is(err, playlist.ErrUnsupported):
		return http.StatusUnsupportedMediaType, ClassWarning
	case errors.As(err, &serr):
		return http.StatusConflict, ClassWarning
	case errors.As(err, &mberr):
		return http.StatusRequestEntityTooLarge, ClassError
	default:
		return http.StatusInternalServerError, ClassError
	}
}

// WriteError writes an error to the client.
//
// An attempt is made to tune the response format to the requestor.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, class := Classify(err)
	if status >= 500 {
		log.Errorf("Error serving %s: %v", r.RemoteAddr, err)
	} else {
		log.Debugf("Rejected request from %s: %v", r.RemoteAddr, err)
	}

	if !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"class": class,
	})
}

// mapError writes the error, if any, and reports whether the request has
// been handled.
func (api *API) mapError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	WriteError(w, r, err)
	return true
}

func receiveJSONForm(w http.ResponseWriter, r *http.Request, form interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(form); err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(err.Error()))
		return true
	}
	return false
}

// Observe records the outcome of a playlist operation.
func Observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		_, outcome = Classify(err)
	}
	metrics.PlaylistOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

func wantsJSON(r *http.Request) bool {
	return r.Header.Get("X-Requested-With") != "" ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func jsonCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
