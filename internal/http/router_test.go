package http_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fiore/internal/auth"
	fioreHttp "github.com/MrJamesThe3rd/fiore/internal/http"
	authHandler "github.com/MrJamesThe3rd/fiore/internal/http/auth"
	dashboardHandler "github.com/MrJamesThe3rd/fiore/internal/http/dashboard"
	recordHandler "github.com/MrJamesThe3rd/fiore/internal/http/record"
	uploadHandler "github.com/MrJamesThe3rd/fiore/internal/http/upload"
	"github.com/MrJamesThe3rd/fiore/internal/invoicing"
	"github.com/MrJamesThe3rd/fiore/internal/record"
)

const (
	trusted   = "https://fioreinvoicemanager.onrender.com"
	publicURL = "http://fiore.test"
)

type upstreamCall struct {
	Path   string
	Query  url.Values
	Cookie string
	Bearer string
}

func newServer(t *testing.T) (http.Handler, *[]upstreamCall) {
	t.Helper()

	var calls []upstreamCall

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := upstreamCall{Path: r.URL.Path, Query: r.URL.Query(), Bearer: r.Header.Get("Authorization")}
		if c, err := r.Cookie("connect.sid"); err == nil {
			call.Cookie = c.Value
		}

		calls = append(calls, call)

		switch r.URL.Path {
		case "/api/dashboard/expenses", "/api/dashboard/issued-documents":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"data":{"data":[
				{"id":1,"supplier":"Acme","amount":"$10.50","date":"2025-03-04"},
				{"id":2,"supplier":"Beta","amount":"abc","date":"2025-03-05"},
				{"id":3,"supplier":"acme bis","amount":20,"date":"2025-03-06"}
			]}}`))
		case "/api/dashboard/clients":
			w.WriteHeader(http.StatusInternalServerError)
		case "/api/fatture/auth":
			http.Redirect(w, r, "https://provider.example/oauth?client_id=1", http.StatusFound)
		case "/api/files/upload":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"ok":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(api.Close)

	opts := invoicing.Options{BaseURL: api.URL + "/api"}

	policy, err := auth.NewOriginPolicy([]string{trusted})
	require.NoError(t, err)

	records := record.NewService(invoicing.NewSession(opts), nil)
	now := func() time.Time { return time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC) }

	router := fioreHttp.New(
		[]string{"http://localhost:3000"},
		authHandler.NewHandler(invoicing.NewOnboarding(opts), policy, "Fiore Invoice Manager", publicURL),
		dashboardHandler.NewHandler(records, validator.New(), now),
		recordHandler.NewHandler(records),
		uploadHandler.NewHandler(invoicing.NewUpload(opts), "/files/upload"),
	)

	return router, &calls
}

func do(router http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	return w
}

func loggedIn(r *http.Request) *http.Request {
	r.AddCookie(&http.Cookie{Name: "loggedIn", Value: "true"})
	r.AddCookie(&http.Cookie{Name: "connect.sid", Value: "s1"})

	return r
}

func TestRouter_DashboardGate(t *testing.T) {
	for _, target := range []string{"/dashboard", "/dashboard/", "/dashboard/?resource=clients"} {
		t.Run(target, func(t *testing.T) {
			router, calls := newServer(t)

			w := do(router, httptest.NewRequest(http.MethodGet, target, nil))

			assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
			assert.Equal(t, "/", w.Header().Get("Location"))
			assert.Empty(t, *calls)
		})
	}
}

func TestRouter_DashboardView(t *testing.T) {
	router, calls := newServer(t)

	w := do(router, loggedIn(httptest.NewRequest(http.MethodGet, "/dashboard?filter_field=supplier&filter_value=ACME", nil)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Resource     string            `json:"resource"`
		ReportType   string            `json:"report_type"`
		StartDate    string            `json:"start_date"`
		EndDate      string            `json:"end_date"`
		HasDateField bool              `json:"has_date_field"`
		Columns      []string          `json:"columns"`
		Rows         []json.RawMessage `json:"rows"`
		TotalItems   int               `json:"total_items"`
		TotalPages   int               `json:"total_pages"`
		PageSize     int               `json:"page_size"`
		Totals       []struct {
			Column string `json:"column"`
			Sum    string `json:"sum"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "expenses", body.Resource)
	assert.Equal(t, "weekly", body.ReportType)
	assert.Equal(t, "2025-03-03", body.StartDate)
	assert.Equal(t, "2025-03-09", body.EndDate)
	assert.True(t, body.HasDateField)
	assert.Equal(t, []string{"id", "supplier", "amount", "date"}, body.Columns)
	assert.Equal(t, 2, body.TotalItems)
	assert.Equal(t, 1, body.TotalPages)
	assert.Equal(t, 10, body.PageSize)
	require.Len(t, body.Rows, 2)
	require.Len(t, body.Totals, 1)
	assert.Equal(t, "amount", body.Totals[0].Column)
	assert.Equal(t, "30.50", body.Totals[0].Sum)

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "2025-03-03", call.Query.Get("startDate"))
	assert.Equal(t, "2025-03-09", call.Query.Get("endDate"))
	assert.Equal(t, "s1", call.Cookie)
}

func TestRouter_DashboardMonthlyClamped(t *testing.T) {
	router, calls := newServer(t)

	w := do(router, loggedIn(httptest.NewRequest(http.MethodGet, "/dashboard?report_type=monthly&start_date=2025-04-02", nil)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, *calls, 1)
	assert.Equal(t, "2025-04-02", (*calls)[0].Query.Get("startDate"))
	assert.Equal(t, "2025-04-02", (*calls)[0].Query.Get("endDate"))
}

func TestRouter_DashboardErrors(t *testing.T) {
	type testCase struct {
		name       string
		target     string
		wantStatus int
		wantError  string
	}

	tests := []testCase{
		{name: "UnknownResource", target: "/dashboard?resource=invoices", wantStatus: http.StatusBadRequest},
		{name: "BadPageSize", target: "/dashboard?page_size=7", wantStatus: http.StatusBadRequest},
		{name: "BadPage", target: "/dashboard?page=two", wantStatus: http.StatusBadRequest},
		{name: "BadDate", target: "/dashboard?start_date=03/01/2025", wantStatus: http.StatusBadRequest},
		{name: "BadReportType", target: "/dashboard?report_type=yearly", wantStatus: http.StatusBadRequest},
		{
			name:       "UpstreamFailure",
			target:     "/dashboard?resource=clients",
			wantStatus: http.StatusBadGateway,
			wantError:  "Failed to fetch resource",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newServer(t)

			w := do(router, loggedIn(httptest.NewRequest(http.MethodGet, tt.target, nil)))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body struct {
				Error string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body.Error)
			}
		})
	}
}

func TestRouter_Records(t *testing.T) {
	router, calls := newServer(t)

	r := loggedIn(httptest.NewRequest(http.MethodGet, "/api/v1/records/issued_documents?type=invoice", nil))
	r.AddCookie(&http.Cookie{Name: "accessToken", Value: "tok"})

	w := do(router, r)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Resource string           `json:"resource"`
		Data     []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "issued-documents", body.Resource)
	assert.Len(t, body.Data, 3)

	require.Len(t, *calls, 1)
	assert.Equal(t, "/api/dashboard/issued-documents", (*calls)[0].Path)
	assert.Equal(t, "invoice", (*calls)[0].Query.Get("type"))
	assert.Equal(t, "Bearer tok", (*calls)[0].Bearer)

	w = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/records/invoices", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, httptest.NewRequest(http.MethodGet, "/api/v1/records/clients", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to fetch resource\n", w.Body.String())
}

func TestRouter_Login(t *testing.T) {
	router, _ := newServer(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	require.Equal(t, http.StatusFound, w.Code)

	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "provider.example", loc.Host)
	assert.Equal(t, "1", loc.Query().Get("client_id"))
	assert.Equal(t, publicURL+"/auth/callback", loc.Query().Get("redirect_uri"))
}

func TestRouter_Callback(t *testing.T) {
	type testCase struct {
		name         string
		target       string
		referer      string
		wantLocation string
		wantCookies  map[string]string
	}

	tests := []testCase{
		{
			name:         "Success",
			target:       "/auth/callback?status=success&accessToken=tok",
			referer:      trusted + "/api/fatture/callback",
			wantLocation: "/dashboard",
			wantCookies:  map[string]string{"loggedIn": "true", "accessToken": "tok"},
		},
		{
			name:         "ProviderError",
			target:       "/auth/callback?status=error&message=denied",
			referer:      trusted + "/",
			wantLocation: "/?error=denied",
			wantCookies:  map[string]string{},
		},
		{
			name:         "UntrustedOrigin",
			target:       "/auth/callback?status=success&accessToken=tok",
			referer:      "https://evil.example/",
			wantLocation: "/?error=Login+failed",
			wantCookies:  map[string]string{},
		},
		{
			name:         "NoOrigin",
			target:       "/auth/callback?status=success",
			wantLocation: "/?error=Login+failed",
			wantCookies:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newServer(t)

			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.referer != "" {
				r.Header.Set("Referer", tt.referer)
			}

			w := do(router, r)
			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))

			got := map[string]string{}
			for _, c := range w.Result().Cookies() {
				got[c.Name] = c.Value
			}

			assert.Equal(t, tt.wantCookies, got)
		})
	}
}

func TestRouter_Landing(t *testing.T) {
	router, _ := newServer(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/?error=%3Cb%3Edenied%3C%2Fb%3E", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Fiore Invoice Manager")
	assert.Contains(t, w.Body.String(), "/auth/login")
	assert.Contains(t, w.Body.String(), "&lt;b&gt;denied&lt;/b&gt;")
}

func multipartBody(t *testing.T, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)

	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestRouter_Upload(t *testing.T) {
	router, calls := newServer(t)

	body, ct := multipartBody(t, "invoice.pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"))

	r := loggedIn(httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body))
	r.Header.Set("Content-Type", ct)
	r.AddCookie(&http.Cookie{Name: "accessToken", Value: "tok"})

	w := do(router, r)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	require.Len(t, *calls, 1)
	assert.Equal(t, "/api/files/upload", (*calls)[0].Path)
	assert.Equal(t, "Bearer tok", (*calls)[0].Bearer)
}

func TestRouter_UploadRejectsUnknownType(t *testing.T) {
	router, calls := newServer(t)

	body, ct := multipartBody(t, "archive.zip", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"))

	r := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	r.Header.Set("Content-Type", ct)

	w := do(router, r)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Empty(t, *calls)
}

func TestRouter_UploadTooLarge(t *testing.T) {
	router, calls := newServer(t)

	content := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("0"), 12<<20)...)
	body, ct := multipartBody(t, "huge.pdf", content)

	r := loggedIn(httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body))
	r.Header.Set("Content-Type", ct)

	w := do(router, r)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "file too large")
	assert.Empty(t, *calls)
}

func TestRouter_HealthAndCORS(t *testing.T) {
	router, _ := newServer(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/records/clients", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodGet)

	w = do(router, r)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
