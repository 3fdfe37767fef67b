package invoicing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const authPath = "/fatture/auth"

// Onboarding is the unauthenticated client that starts the OAuth handshake.
type Onboarding struct {
	client *Client
}

func NewOnboarding(opts Options) *Onboarding {
	hc := http.Client{Timeout: 30 * time.Second}
	if opts.HTTPClient != nil {
		hc = *opts.HTTPClient
	}

	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	opts.HTTPClient = &hc

	return &Onboarding{client: newClient(opts, policy{
		jsonContent:       true,
		retryUnauthorized: true,
	})}
}

// AuthURL is the API endpoint that opens the provider's consent screen.
func (o *Onboarding) AuthURL() string {
	return o.client.BaseURL() + authPath
}

// StartLogin asks the API where the auth window should go. A redirect wins,
// then a url/authUrl JSON field; any other 200 means the endpoint itself is
// the page to open.
func (o *Onboarding) StartLogin(ctx context.Context) (string, error) {
	resp, err := o.client.Do(ctx, Request{Path: authPath})
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode < http.StatusBadRequest:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", ErrNoAuthURL
		}

		return o.resolve(loc)

	case resp.StatusCode == http.StatusOK:
		var body struct {
			URL     string `json:"url"`
			AuthURL string `json:"authUrl"`
		}

		if err := resp.Decode(&body); err == nil {
			if body.URL != "" {
				return o.resolve(body.URL)
			}

			if body.AuthURL != "" {
				return o.resolve(body.AuthURL)
			}
		}

		return o.AuthURL(), nil
	}

	return "", fmt.Errorf("%w: status %d", ErrNoAuthURL, resp.StatusCode)
}

func (o *Onboarding) resolve(loc string) (string, error) {
	base, err := url.Parse(o.AuthURL())
	if err != nil {
		return "", fmt.Errorf("parsing auth url: %w", err)
	}

	ref, err := url.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("parsing location: %w", err)
	}

	return base.ResolveReference(ref).String(), nil
}
