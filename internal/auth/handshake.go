package auth

import (
	"context"
	"log/slog"
)

// Opener shows authURL to the user, typically in a browser window.
type Opener interface {
	Open(ctx context.Context, authURL string) error
}

type OpenerFunc func(ctx context.Context, authURL string) error

func (f OpenerFunc) Open(ctx context.Context, authURL string) error {
	return f(ctx, authURL)
}

// Handshake drives one interactive login.
type Handshake struct {
	policy *OriginPolicy
	opener Opener
	logger *slog.Logger
}

func NewHandshake(policy *OriginPolicy, opener Opener, logger *slog.Logger) (*Handshake, error) {
	if policy == nil {
		return nil, ErrNoOriginPolicy
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Handshake{policy: policy, opener: opener, logger: logger}, nil
}

// Login opens authURL and waits for the first acceptable event. It returns
// ctx's error when the wait is abandoned and a nil error with a Failure when
// the auth window could not be opened.
func (h *Handshake) Login(ctx context.Context, authURL string, events <-chan Event) (Result, error) {
	return h.LoginState(ctx, authURL, "", events)
}

// LoginState is Login for an auth URL that carries state. Events are then
// accepted on a matching state instead of their origin.
func (h *Handshake) LoginState(ctx context.Context, authURL, state string, events <-chan Event) (Result, error) {
	if err := h.opener.Open(ctx, authURL); err != nil {
		h.logger.ErrorContext(ctx, "failed to open auth window", "error", err)
		return Failure{Message: MsgPopupBlocked}, nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return Failure{Message: MsgLoginFailed}, nil
			}

			res, accepted := ResolveState(h.policy, state, ev)
			if !accepted {
				h.logger.WarnContext(ctx, "ignoring auth event", "origin", ev.Origin, "status", ev.Status)
				continue
			}

			return res, nil
		}
	}
}
