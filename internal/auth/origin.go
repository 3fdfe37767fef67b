package auth

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrNoOriginPolicy = errors.New("origin policy is required")

// OriginPolicy is the allow-list of origins that may complete a login.
type OriginPolicy struct {
	allowed map[string]struct{}
}

// NewOriginPolicy builds a policy from scheme://host[:port] entries. An empty
// list is rejected: there is no "allow everything" mode.
func NewOriginPolicy(origins []string) (*OriginPolicy, error) {
	p := &OriginPolicy{allowed: make(map[string]struct{}, len(origins))}

	for _, o := range origins {
		if strings.TrimSpace(o) == "" {
			continue
		}

		n, err := normalizeOrigin(o)
		if err != nil {
			return nil, err
		}

		p.allowed[n] = struct{}{}
	}

	if len(p.allowed) == 0 {
		return nil, fmt.Errorf("%w: no allowed origins", ErrNoOriginPolicy)
	}

	return p, nil
}

// Allows reports whether origin exactly matches an allowed entry.
func (p *OriginPolicy) Allows(origin string) bool {
	if p == nil {
		return false
	}

	n, err := normalizeOrigin(origin)
	if err != nil {
		return false
	}

	_, ok := p.allowed[n]

	return ok
}

func normalizeOrigin(s string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid origin %q: %w", s, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("invalid origin %q: scheme must be http or https", s)
	}

	if u.Host == "" || u.User != nil || (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("invalid origin %q: expected scheme://host[:port]", s)
	}

	return scheme + "://" + strings.ToLower(u.Host), nil
}

// originOf returns the scheme://host part of a full URL, or "" when raw is
// not an absolute http(s) URL.
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}

	return scheme + "://" + strings.ToLower(u.Host)
}
