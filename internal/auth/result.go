package auth

import "crypto/subtle"

const (
	DefaultRedirect = "/dashboard"

	MsgPopupBlocked = "Unable to open authentication window."
	MsgLoginFailed  = "Login failed"
)

// Result is either Success or Failure.
type Result interface {
	result()
}

type Success struct {
	RedirectTo  string
	AccessToken string
}

type Failure struct {
	Message string
}

func (Success) result() {}
func (Failure) result() {}

// Resolve turns ev into a Result. The boolean is false when ev must be
// ignored: it came from an origin the policy does not allow, or it carries
// no final status.
func Resolve(policy *OriginPolicy, ev Event) (Result, bool) {
	if !policy.Allows(ev.Origin) {
		return nil, false
	}

	return resolveStatus(ev)
}

// ResolveState is Resolve for a login that issued state. When state is set,
// ev must carry the same value and its origin is not consulted; an empty
// state falls back to the origin policy.
func ResolveState(policy *OriginPolicy, state string, ev Event) (Result, bool) {
	if state == "" {
		return Resolve(policy, ev)
	}

	if subtle.ConstantTimeCompare([]byte(ev.State), []byte(state)) != 1 {
		return nil, false
	}

	return resolveStatus(ev)
}

func resolveStatus(ev Event) (Result, bool) {
	switch ev.Status {
	case StatusSuccess:
		return Success{RedirectTo: DefaultRedirect, AccessToken: ev.AccessToken}, true
	case StatusError:
		msg := ev.Message
		if msg == "" {
			msg = MsgLoginFailed
		}

		return Failure{Message: msg}, true
	}

	return nil, false
}
