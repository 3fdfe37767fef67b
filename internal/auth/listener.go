package auth

import (
	"fmt"
	"net/http"
)

const closePage = `<!doctype html><html><body><p>%s</p><p>You can close this window.</p></body></html>`

// Listener turns completion requests into Events.
type Listener struct {
	events chan Event
}

func NewListener() *Listener {
	return &Listener{events: make(chan Event, 1)}
}

func (l *Listener) Events() <-chan Event {
	return l.events
}

func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ev := EventFromRequest(r)

	select {
	case l.events <- ev:
	case <-r.Context().Done():
		return
	}

	msg := "Login complete."
	if ev.Status != StatusSuccess {
		msg = "Login did not complete."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, closePage, msg)
}
