package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"playdeck/src/metrics"
	"playdeck/src/playlist"
	"playdeck/src/util"
)

// CookieName is the name of the cookie holding the session id.
const CookieName = "playdeck_session"

// PlaylistEvent is emitted after the playlist or its cursor has changed.
type PlaylistEvent struct {
	Length int
	Index  int
}

// A Notice is a message for the user that is shown once.
type Notice struct {
	Class string `json:"class"`
	Text  string `json:"text"`
}

// A Session holds the playlist of a single user.
//
// Handlers must hold the session lock while operating on the playlist.
type Session struct {
	sync.Mutex
	util.Emitter

	ID       string
	Playlist *playlist.Playlist

	notices  []Notice
	lastSeen time.Time
}

// Changed notifies listeners that the playlist was modified.
func (s *Session) Changed() {
	s.Emit(PlaylistEvent{Length: s.Playlist.Len(), Index: s.Playlist.CurrentIndex()})
}

// Notify queues a notice to be shown on the next page render.
func (s *Session) Notify(class, text string) {
	s.notices = append(s.notices, Notice{Class: class, Text: text})
}

// TakeNotices returns all queued notices and clears the queue.
func (s *Session) TakeNotices() []Notice {
	notices := s.notices
	s.notices = nil
	return notices
}

// Store keeps track of all sessions. Sessions which have not been used for
// longer than the TTL are forgotten along with their playlist.
type Store struct {
	storage playlist.Storage
	ttl     time.Duration
	now     func() time.Time

	sessions map[string]*Session
	lock     sync.Mutex
}

// NewStore creates an empty session store. A TTL of zero disables expiry.
func NewStore(storage playlist.Storage, ttl time.Duration) *Store {
	return &Store{
		storage:  storage,
		ttl:      ttl,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
}

// FromRequest looks up the session of the requesting client. A new session
// is started and its cookie set if the request does not carry a valid one.
func (st *Store) FromRequest(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(CookieName); err == nil {
		if sess, ok := st.Get(cookie.Value); ok {
			return sess
		}
	}

	sess := st.New()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

// Get returns the session with the specified id if it exists and has not
// expired.
func (st *Store) Get(id string) (*Session, bool) {
	st.lock.Lock()
	defer st.lock.Unlock()
	st.expire()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = st.now()
	return sess, true
}

// New starts a session with an empty playlist.
func (st *Store) New() *Session {
	st.lock.Lock()
	defer st.lock.Unlock()
	st.expire()

	sess := &Session{
		ID:       uuid.NewString(),
		Playlist: playlist.New(st.storage),
		lastSeen: st.now(),
	}
	st.sessions[sess.ID] = sess
	metrics.SessionsActive.Inc()
	log.WithField("session", sess.ID).Debugf("Started session")
	return sess
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.lock.Lock()
	defer st.lock.Unlock()
	st.expire()
	return len(st.sessions)
}

// expire drops idle sessions. The store lock must be held.
func (st *Store) expire() {
	if st.ttl == 0 {
		return
	}
	now := st.now()
	for id, sess := range st.sessions {
		if now.Sub(sess.lastSeen) > st.ttl {
			delete(st.sessions, id)
			metrics.SessionsActive.Dec()
			log.WithField("session", id).Debugf("Session expired")
		}
	}
}
