package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"

	"playdeck/src/handler/api"
	"playdeck/src/handler/webui"
	"playdeck/src/media"
	"playdeck/src/metrics"
	"playdeck/src/playlist"
	"playdeck/src/session"
	"playdeck/src/util"
)

type webUI struct {
	build, version string
	urlRoot        string
	sessions       *session.Store
	api            *api.API

	files    fs.FS
	minifier *minify.M
	page     *template.Template
	style    []byte
}

// New creates the router serving the web interface and the API mounted at
// /data. The URL root is the path at which the interface is reachable.
func New(build, version, urlRoot string, sessions *session.Store, a *api.API) (chi.Router, error) {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)

	web := &webUI{
		build:    build,
		version:  version,
		urlRoot:  strings.TrimSuffix(urlRoot, "/") + "/",
		sessions: sessions,
		api:      a,
		files:    webui.Files(build),
		minifier: m,
	}
	if err := web.load(); err != nil {
		return nil, err
	}

	service := chi.NewRouter()
	service.Use(middleware.Recoverer)
	service.Use(util.LogHandler)
	service.Use(metrics.Middleware)
	service.Use(middleware.Compress(5))

	service.Get("/", web.playlistPage)
	service.Get("/style.css", web.stylesheet)
	service.Post("/add", web.add)
	service.Post("/delete", web.remove)
	service.Post("/prev", web.prev)
	service.Post("/play", web.play)
	service.Post("/next", web.next)
	service.Route("/data", func(r chi.Router) {
		api.InitRouter(r, web.api)
	})

	return service, nil
}

func (web *webUI) load() error {
	page, err := template.ParseFS(web.files, "page.html")
	if err != nil {
		return fmt.Errorf("could not parse page template: %w", err)
	}
	style, err := fs.ReadFile(web.files, "style.css")
	if err != nil {
		return err
	}
	if style, err = web.minifier.Bytes("text/css", style); err != nil {
		return fmt.Errorf("could not minify stylesheet: %w", err)
	}
	web.page, web.style = page, style
	return nil
}

// reload picks up edits to the assets in debug builds.
func (web *webUI) reload() {
	if web.build != "debug" {
		return
	}
	if err := web.load(); err != nil {
		log.Errorf("Could not reload web UI assets: %v", err)
	}
}

type playbackParams struct {
	Kind media.Kind
	MIME string
	Src  string
}

func (web *webUI) playlistPage(w http.ResponseWriter, r *http.Request) {
	web.reload()
	sess := web.sessions.FromRequest(w, r)
	sess.Lock()

	params := map[string]interface{}{
		"urlroot": web.urlRoot,
		"version": web.version,
		"accept":  "." + strings.Join(media.Extensions(), ",."),
	}
	if r.URL.Query().Get("play") != "" {
		playback, err := sess.Playlist.PlayCurrent()
		api.Observe("play", err)
		if err != nil {
			web.notifyError(sess, err)
		} else {
			params["playback"] = playbackParams{
				Kind: playback.Kind,
				MIME: playback.MIME,
				// The index defeats browser caching when the cursor moves.
				Src: web.urlRoot + "data/playlist/current/media?t=" + strconv.Itoa(sess.Playlist.CurrentIndex()),
			}
			sess.Notify(api.ClassInfo, "Now playing: "+playback.Track.String())
		}
	}
	params["lines"] = sess.Playlist.ListTracks()
	params["length"] = sess.Playlist.Len()
	params["notices"] = sess.TakeNotices()
	sess.Unlock()

	var buf bytes.Buffer
	if err := web.page.Execute(&buf, params); err != nil {
		api.WriteError(w, r, err)
		return
	}
	out, err := web.minifier.Bytes("text/html", buf.Bytes())
	if err != nil {
		log.Warnf("Could not minify page: %v", err)
		out = buf.Bytes()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(out)
}

func (web *webUI) stylesheet(w http.ResponseWriter, r *http.Request) {
	web.reload()
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	http.ServeContent(w, r, "style.css", time.Time{}, bytes.NewReader(web.style))
}

func (web *webUI) add(w http.ResponseWriter, r *http.Request) {
	sess := web.sessions.FromRequest(w, r)
	sess.Lock()
	defer sess.Unlock()

	track, err := web.api.AddFromRequest(w, r, sess.Playlist)
	api.Observe("add", err)
	if err != nil {
		web.notifyError(sess, err)
	} else {
		log.WithField("session", sess.ID).Infof("Added %v", track)
		sess.Notify(api.ClassSuccess, "Added: "+track.String())
		sess.Changed()
	}
	web.redirect(w, r, false)
}

func (web *webUI) remove(w http.ResponseWriter, r *http.Request) {
	sess := web.sessions.FromRequest(w, r)
	sess.Lock()
	defer sess.Unlock()

	title := r.FormValue("title")
	track, err := sess.Playlist.RemoveTrack(title)
	api.Observe("remove", err)
	switch {
	case errors.Is(err, playlist.ErrEmptyPlaylist):
		sess.Notify(api.ClassError, fmt.Sprintf("Cannot delete '%s'. Playlist is empty.", title))
	case errors.Is(err, playlist.ErrTrackNotFound):
		sess.Notify(api.ClassError, fmt.Sprintf("Track '%s' not found in the playlist.", title))
	case err != nil:
		web.notifyError(sess, err)
	default:
		log.WithField("session", sess.ID).Infof("Removed %v", track)
		sess.Notify(api.ClassSuccess, "Deleted: "+track.Title)
		sess.Changed()
	}
	web.redirect(w, r, false)
}

func (web *webUI) prev(w http.ResponseWriter, r *http.Request) {
	web.navigate(w, r, "retreat", (*playlist.Playlist).Retreat)
}

func (web *webUI) next(w http.ResponseWriter, r *http.Request) {
	web.navigate(w, r, "advance", (*playlist.Playlist).Advance)
}

// navigate moves the cursor and starts playback of the new current track.
func (web *webUI) navigate(w http.ResponseWriter, r *http.Request, operation string, move func(*playlist.Playlist) error) {
	sess := web.sessions.FromRequest(w, r)
	sess.Lock()
	defer sess.Unlock()

	err := move(sess.Playlist)
	api.Observe(operation, err)
	if err != nil {
		web.notifyError(sess, err)
		web.redirect(w, r, false)
		return
	}
	sess.Changed()
	web.redirect(w, r, true)
}

func (web *webUI) play(w http.ResponseWriter, r *http.Request) {
	web.redirect(w, r, true)
}

func (web *webUI) redirect(w http.ResponseWriter, r *http.Request, play bool) {
	target := web.urlRoot
	if play {
		target += "?play=1"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (web *webUI) notifyError(sess *session.Session, err error) {
	_, class := api.Classify(err)
	if class == api.ClassError {
		log.WithField("session", sess.ID).Warnf("%v", err)
	}
	sess.Notify(class, noticeText(err))
}

// noticeText turns an error into a sentence suitable for display.
func noticeText(err error) string {
	var ferr *playlist.FileError
	if errors.As(err, &ferr) && errors.Is(err, playlist.ErrUnsupported) {
		return fmt.Sprintf("The file type of %q is not supported for playback.", filepath.Base(ferr.Path))
	}
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	msg = string(unicode.ToUpper(r)) + msg[size:]
	if !strings.HasSuffix(msg, ".") {
		msg += "."
	}
	return msg
}
