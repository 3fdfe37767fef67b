package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fiore/internal/auth"
)

const trusted = "https://fioreinvoicemanager.onrender.com"

func newHandshake(t *testing.T, opener auth.Opener) *auth.Handshake {
	t.Helper()

	policy, err := auth.NewOriginPolicy([]string{trusted})
	require.NoError(t, err)

	h, err := auth.NewHandshake(policy, opener, nil)
	require.NoError(t, err)

	return h
}

func opened(urls *[]string) auth.Opener {
	return auth.OpenerFunc(func(_ context.Context, u string) error {
		*urls = append(*urls, u)
		return nil
	})
}

func TestNewHandshake_RequiresPolicy(t *testing.T) {
	_, err := auth.NewHandshake(nil, auth.OpenerFunc(func(context.Context, string) error { return nil }), nil)
	assert.ErrorIs(t, err, auth.ErrNoOriginPolicy)
}

func TestHandshake_Login(t *testing.T) {
	type testCase struct {
		name   string
		events []auth.Event
		want   auth.Result
	}

	tests := []testCase{
		{
			name:   "Success",
			events: []auth.Event{{Origin: trusted, Status: auth.StatusSuccess, AccessToken: "tok"}},
			want:   auth.Success{RedirectTo: "/dashboard", AccessToken: "tok"},
		},
		{
			name:   "ErrorWithMessage",
			events: []auth.Event{{Origin: trusted, Status: auth.StatusError, Message: "denied"}},
			want:   auth.Failure{Message: "denied"},
		},
		{
			name:   "ErrorWithoutMessage",
			events: []auth.Event{{Origin: trusted, Status: auth.StatusError}},
			want:   auth.Failure{Message: "Login failed"},
		},
		{
			name: "UntrustedOriginIgnored",
			events: []auth.Event{
				{Origin: "https://evil.example", Status: auth.StatusSuccess},
				{Origin: "", Status: auth.StatusSuccess},
				{Origin: trusted, Status: "pending"},
				{Origin: trusted, Status: auth.StatusError, Message: "real"},
			},
			want: auth.Failure{Message: "real"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var urls []string

			h := newHandshake(t, opened(&urls))

			events := make(chan auth.Event, len(tt.events))
			for _, ev := range tt.events {
				events <- ev
			}

			got, err := h.Login(context.Background(), "https://api.example/fatture/auth", events)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, []string{"https://api.example/fatture/auth"}, urls)
		})
	}
}

func TestHandshake_LoginState(t *testing.T) {
	type testCase struct {
		name   string
		events []auth.Event
		want   auth.Result
	}

	tests := []testCase{
		{
			name:   "MatchingStateWithoutOrigin",
			events: []auth.Event{{State: "n1", Status: auth.StatusSuccess, AccessToken: "tok"}},
			want:   auth.Success{RedirectTo: "/dashboard", AccessToken: "tok"},
		},
		{
			name: "WrongStateIgnoredEvenFromTrustedOrigin",
			events: []auth.Event{
				{Origin: trusted, State: "other", Status: auth.StatusSuccess, AccessToken: "stolen"},
				{Origin: trusted, Status: auth.StatusSuccess, AccessToken: "stolen"},
				{State: "n1", Status: auth.StatusError, Message: "denied"},
			},
			want: auth.Failure{Message: "denied"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var urls []string

			h := newHandshake(t, opened(&urls))

			events := make(chan auth.Event, len(tt.events))
			for _, ev := range tt.events {
				events <- ev
			}

			got, err := h.LoginState(context.Background(), "https://api.example/fatture/auth", "n1", events)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveState_EmptyStateUsesOrigin(t *testing.T) {
	policy, err := auth.NewOriginPolicy([]string{trusted})
	require.NoError(t, err)

	_, ok := auth.ResolveState(policy, "", auth.Event{State: "n1", Status: auth.StatusSuccess})
	assert.False(t, ok)

	got, ok := auth.ResolveState(policy, "", auth.Event{Origin: trusted, Status: auth.StatusSuccess})
	assert.True(t, ok)
	assert.Equal(t, auth.Success{RedirectTo: "/dashboard"}, got)
}

func TestHandshake_PopupBlocked(t *testing.T) {
	h := newHandshake(t, auth.OpenerFunc(func(context.Context, string) error {
		return errors.New("no browser")
	}))

	got, err := h.Login(context.Background(), "https://api.example/fatture/auth", make(chan auth.Event))
	require.NoError(t, err)
	assert.Equal(t, auth.Failure{Message: "Unable to open authentication window."}, got)
}

func TestHandshake_WindowClosed(t *testing.T) {
	var urls []string

	h := newHandshake(t, opened(&urls))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	events := make(chan auth.Event, 1)
	events <- auth.Event{Origin: "https://evil.example", Status: auth.StatusSuccess}

	got, err := h.Login(ctx, "https://api.example/fatture/auth", events)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHandshake_ClosedChannel(t *testing.T) {
	var urls []string

	events := make(chan auth.Event)
	close(events)

	got, err := newHandshake(t, opened(&urls)).Login(context.Background(), "https://api.example/fatture/auth", events)
	require.NoError(t, err)
	assert.Equal(t, auth.Failure{Message: "Login failed"}, got)
}
