package auth

import (
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fiore/internal/auth"
	"github.com/MrJamesThe3rd/fiore/internal/http/gate"
	"github.com/MrJamesThe3rd/fiore/internal/http/session"
	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
)

const CallbackPath = "/auth/callback"

var landing = template.Must(template.New("landing").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>{{.Name}}</title></head>
<body>
<h1>{{.Name}}</h1>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
{{if .LoggedIn}}<p><a href="/dashboard">Open dashboard</a> · <a href="/auth/logout">Log out</a></p>
{{else}}<p><a href="/auth/login">Log in with Fatture in Cloud</a></p>{{end}}
</body>
</html>
`))

type Handler struct {
	onboarding *invoicing.Onboarding
	policy     *auth.OriginPolicy
	appName    string
	publicURL  string
}

func NewHandler(onboarding *invoicing.Onboarding, policy *auth.OriginPolicy, appName, publicURL string) *Handler {
	return &Handler{
		onboarding: onboarding,
		policy:     policy,
		appName:    appName,
		publicURL:  strings.TrimRight(publicURL, "/"),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.landing)
	r.Get("/auth/login", h.login)
	r.Get(CallbackPath, h.callback)
	r.Post(CallbackPath, h.callback)
	r.Get("/auth/logout", h.logout)
}

type landingData struct {
	Name     string
	Error    string
	LoggedIn bool
}

func (h *Handler) landing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := landing.Execute(w, landingData{
		Name:     h.appName,
		Error:    r.URL.Query().Get("error"),
		LoggedIn: gate.LoggedIn(r),
	})
	if err != nil {
		slog.Error("failed to render landing page", "error", err)
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	target, err := h.onboarding.StartLogin(r.Context())
	if err != nil {
		if invoicing.IsCanceled(err) {
			return
		}

		slog.ErrorContext(r.Context(), "failed to start login", "error", err)
		fail(w, r, auth.MsgLoginFailed)

		return
	}

	u, err := url.Parse(target)
	if err != nil {
		slog.ErrorContext(r.Context(), "invalid auth url", "url", target, "error", err)
		fail(w, r, auth.MsgLoginFailed)

		return
	}

	q := u.Query()
	q.Set("redirect_uri", h.publicURL+CallbackPath)
	u.RawQuery = q.Encode()

	http.Redirect(w, r, u.String(), http.StatusFound)
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	ev := auth.EventFromRequest(r)

	res, ok := auth.Resolve(h.policy, ev)
	if !ok {
		slog.WarnContext(r.Context(), "rejected auth callback", "origin", ev.Origin, "status", ev.Status)
		fail(w, r, auth.MsgLoginFailed)

		return
	}

	switch res := res.(type) {
	case auth.Success:
		if res.AccessToken != "" {
			if err := session.NewTokens(w, r).SetToken(r.Context(), res.AccessToken); err != nil {
				slog.ErrorContext(r.Context(), "failed to store token", "error", err)
			}
		}

		session.Start(w)
		http.Redirect(w, r, res.RedirectTo, http.StatusSeeOther)
	case auth.Failure:
		fail(w, r, res.Message)
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	session.End(w)
	http.Redirect(w, r, gate.LandingPath, http.StatusSeeOther)
}

func fail(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, gate.LandingPath+"?error="+url.QueryEscape(msg), http.StatusSeeOther)
}
