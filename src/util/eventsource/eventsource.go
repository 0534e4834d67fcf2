package eventsource

import (
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// EventSource writes server-sent events to a client.
type EventSource struct {
	w       http.ResponseWriter
	flusher http.Flusher
	id      int
}

// Begin writes the event stream headers. An error is returned if the
// response can not be flushed incrementally.
func Begin(w http.ResponseWriter, r *http.Request) (*EventSource, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("could not start event source: response writer %T can not flush", w)
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &EventSource{w: w, flusher: flusher}, nil
}

func (es *EventSource) Event(event, body string) {
	es.id++
	fmt.Fprintf(es.w, "id: %d\n", es.id)
	fmt.Fprintf(es.w, "event: %s\n", event)
	fmt.Fprintf(es.w, "data: %s\n\n", body)
	es.flusher.Flush()
}

func (es *EventSource) EventJSON(event string, body interface{}) {
	b, err := json.Marshal(body)
	if err != nil {
		log.Errorf("Could not marshal event %q: %v", event, err)
		return
	}
	es.Event(event, string(b))
}
