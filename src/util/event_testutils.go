package util

import (
	"context"
	"reflect"
	"testing"
	"time"
)

// TestEventEmission asserts that the trigger function causes the Eventer to
// emit the specified event within a second.
func TestEventEmission(t *testing.T, ev Eventer, event interface{}, trigger func()) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := ev.Events().Listen(ctx)
	trigger()
	timeout := time.After(time.Second)
	for {
		select {
		case msg := <-l:
			t.Logf("%T %#v", msg, msg)
			if reflect.DeepEqual(msg, event) {
				return
			}
		case <-timeout:
			t.Fatalf("Event %#v was not emitted", event)
		}
	}
}
