package model

// Caller is the verified identity attached to a request by the auth
// middleware.  It has exactly two variants: PermanentCaller for real
// accounts and AnonymousCaller for ephemeral device sessions.
// Components that care about the distinction (admission side effects,
// redemption) dispatch on the concrete type instead of inspecting a
// flag at each call site.
type Caller interface {
	// CallerID returns the users.id backing this identity.  Anonymous
	// sessions are backed by real user rows flagged is_anonymous, so
	// both variants carry an ID.
	CallerID() uint64
}

// PermanentCaller identifies a registered account.  Only permanent
// callers accrue reward progress or redeem rewards.
type PermanentCaller struct {
	ID uint64
}

func (p PermanentCaller) CallerID() uint64 { return p.ID }

// AnonymousCaller identifies an ephemeral session issued without
// credentials.  Anonymous callers may check in (crowd signal) but never
// touch reward state.
type AnonymousCaller struct {
	ID uint64
}

func (a AnonymousCaller) CallerID() uint64 { return a.ID }
