package auth

import (
	"net/http"
	"strings"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Event is the completion notice sent back by the auth window.
type Event struct {
	Origin      string
	State       string
	Status      Status
	Message     string
	AccessToken string
}

// EventFromRequest reads an Event from the query or form of r. The origin
// comes from the Origin header, then from the Referer. Browsers often send
// neither on a top-level redirect, so State is the check that works there.
func EventFromRequest(r *http.Request) Event {
	_ = r.ParseForm()

	ev := Event{
		State:       r.Form.Get("state"),
		Status:      Status(strings.ToLower(strings.TrimSpace(r.Form.Get("status")))),
		Message:     r.Form.Get("message"),
		AccessToken: r.Form.Get("accessToken"),
	}

	if ev.AccessToken == "" {
		ev.AccessToken = r.Form.Get("access_token")
	}

	if origin := r.Header.Get("Origin"); origin != "" && origin != "null" {
		ev.Origin = origin
	} else {
		ev.Origin = originOf(r.Referer())
	}

	return ev
}
