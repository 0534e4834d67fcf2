package api

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"playdeck/src/session"
	"playdeck/src/util/eventsource"
)

func (api *API) events(w http.ResponseWriter, r *http.Request) {
	sess := api.sessions.FromRequest(w, r)

	es, err := eventsource.Begin(w, r)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	listener := sess.Listen(r.Context())

	sess.Lock()
	es.EventJSON("playlist", jsonPlaylist(sess.Playlist))
	sess.Unlock()

	for {
		var event interface{}
		select {
		case event = <-listener:
		case <-r.Context().Done():
			return
		}

		switch event.(type) {
		case session.PlaylistEvent:
			sess.Lock()
			es.EventJSON("playlist", jsonPlaylist(sess.Playlist))
			sess.Unlock()
		default:
			log.Debugf("Unmapped session event %#v", event)
		}
	}
}
