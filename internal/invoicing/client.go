package invoicing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrJamesThe3rd/fiore/internal/encoding"
)

// StatusTokenExpired is the API's custom "access token expired" status.
const StatusTokenExpired = 498

const defaultRefreshPath = "/auth/refresh-token"

// Options configures one client. It is copied on construction and never
// mutated afterwards; per-request state travels in Request.
type Options struct {
	BaseURL     string
	HTTPClient  *http.Client
	Tokens      TokenStore
	RefreshPath string
	Logger      *slog.Logger
	Now         func() time.Time
}

// Request describes a single API call.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Cookies     []*http.Cookie
	// Tokens overrides Options.Tokens for this request.
	Tokens TokenStore

	bearer    string
	anonymous bool
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v, keeping numbers as json.Number.
func (r *Response) Decode(v any) error {
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// TokenExpired reports whether the API rejected the request because the
// access token expired, either through the status line or an error body
// carrying {"code": 498}.
func (r *Response) TokenExpired() bool {
	if r.StatusCode == StatusTokenExpired {
		return true
	}

	if r.StatusCode < http.StatusBadRequest {
		return false
	}

	var body struct {
		Code int `json:"code"`
	}
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return false
	}

	return body.Code == StatusTokenExpired
}

type policy struct {
	jsonContent       bool
	attachToken       bool
	refreshOnExpiry   bool
	proactiveRefresh  bool
	retryUnauthorized bool
}

type Client struct {
	opts   Options
	policy policy
}

func newClient(opts Options, p policy) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	if opts.RefreshPath == "" {
		opts.RefreshPath = defaultRefreshPath
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &Client{opts: opts, policy: p}
}

// NewSession returns the session-authenticated client. It recovers from an
// expired token by refreshing once and replaying the request once.
func NewSession(opts Options) *Client {
	return newClient(opts, policy{
		jsonContent:     true,
		attachToken:     true,
		refreshOnExpiry: true,
	})
}

// NewUpload returns the client used for file uploads. It always attaches the
// stored bearer token and refreshes it up front when it has already expired.
func NewUpload(opts Options) *Client {
	return newClient(opts, policy{
		attachToken:       true,
		proactiveRefresh:  true,
		retryUnauthorized: true,
	})
}

func (c *Client) BaseURL() string {
	return c.opts.BaseURL
}

// Do sends req. When token recovery fails the last response is returned
// together with the error so callers can still inspect it.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.policy.proactiveRefresh {
		if err := c.refreshIfExpired(ctx, &req); err != nil {
			return nil, err
		}
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	switch {
	case c.policy.refreshOnExpiry && resp.TokenExpired():
		return c.retryWithRefresh(ctx, req, resp)
	case c.policy.retryUnauthorized && resp.StatusCode == http.StatusUnauthorized:
		c.opts.Logger.DebugContext(ctx, "retrying unauthorized request", "path", req.Path)
		return c.send(ctx, req)
	}

	return resp, nil
}

func (c *Client) retryWithRefresh(ctx context.Context, req Request, expired *Response) (*Response, error) {
	token, err := c.refresh(ctx, req)
	if err != nil {
		return expired, err
	}

	if token == "" {
		return expired, ErrTokenExpired
	}

	req.bearer = token

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.TokenExpired() {
		return resp, ErrTokenExpired
	}

	return resp, nil
}

func (c *Client) refreshIfExpired(ctx context.Context, req *Request) error {
	token, err := c.token(ctx, *req)
	if err != nil {
		return err
	}

	if !TokenExpired(token, c.opts.Now()) {
		return nil
	}

	fresh, err := c.refresh(ctx, *req)
	if err != nil {
		return err
	}

	req.bearer = fresh

	return nil
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

func (c *Client) refresh(ctx context.Context, req Request) (string, error) {
	c.opts.Logger.InfoContext(ctx, "refreshing access token", "path", req.Path)

	resp, err := c.send(ctx, Request{
		Method:      http.MethodPost,
		Path:        c.opts.RefreshPath,
		Body:        []byte("{}"),
		ContentType: "application/json",
		Cookies:     req.Cookies,
		anonymous:   true,
	})
	if err != nil {
		if IsCanceled(err) {
			return "", err
		}

		return "", fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrTokenRefresh, resp.StatusCode)
	}

	var out refreshResponse
	if err := resp.Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenRefresh, err)
	}

	if out.AccessToken == "" {
		return "", nil
	}

	if store := c.store(req); store != nil {
		if err := store.SetToken(ctx, out.AccessToken); err != nil {
			return "", fmt.Errorf("saving token: %w", err)
		}
	}

	return out.AccessToken, nil
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	target, err := c.url(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	switch {
	case req.ContentType != "":
		httpReq.Header.Set("Content-Type", req.ContentType)
	case c.policy.jsonContent:
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpReq.Header.Set("Accept", "application/json")

	for _, ck := range req.Cookies {
		httpReq.AddCookie(ck)
	}

	if !req.anonymous && c.policy.attachToken {
		bearer := req.bearer
		if bearer == "" {
			if bearer, err = c.token(ctx, req); err != nil {
				return nil, err
			}
		}

		if bearer != "" {
			httpReq.Header.Set("Authorization", "Bearer "+bearer)
		}
	}

	res, err := c.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, classify(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, classify(err)
	}

	if raw, err = decodeBody(raw, res.Header.Get("Content-Type")); err != nil {
		return nil, err
	}

	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: raw}, nil
}

func (c *Client) url(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.opts.BaseURL + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}

	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	return u.String(), nil
}

func (c *Client) store(req Request) TokenStore {
	if req.Tokens != nil {
		return req.Tokens
	}

	return c.opts.Tokens
}

func (c *Client) token(ctx context.Context, req Request) (string, error) {
	store := c.store(req)
	if store == nil {
		return "", nil
	}

	token, err := store.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}

	return token, nil
}

// decodeBody converts bodies that declare a non UTF-8 charset.
func decodeBody(raw []byte, contentType string) ([]byte, error) {
	if contentType == "" {
		return raw, nil
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil || params["charset"] == "" {
		return raw, nil
	}

	return encoding.ToUTF8(raw, params["charset"])
}
