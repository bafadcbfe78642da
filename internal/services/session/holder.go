// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session

import "sync"

// State is the authentication state of a Holder.
type State int

const (
	// Anonymous is the state without a verified email.
	Anonymous State = iota
	// Authenticated is the state after a successful code verification.
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Holder is the per-request authentication state. It starts Anonymous,
// becomes Authenticated through Login and returns to Anonymous through
// Logout. It never expires on its own.
type Holder struct {
	mu    sync.RWMutex
	email string
	state State
}

// NewHolder returns an anonymous holder.
func NewHolder() *Holder {
	return &Holder{}
}

// HolderFromData restores a holder from a parsed cookie. A nil d yields an
// anonymous holder.
func HolderFromData(d *Data) *Holder {
	h := NewHolder()
	if d != nil {
		h.Login(d.Email)
	}
	return h
}

// Login marks the holder authenticated as email. Callers must only invoke
// it after a successful code verification.
func (h *Holder) Login(email string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = Authenticated
	h.email = email
}

// Logout resets the holder to Anonymous.
func (h *Holder) Logout() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = Anonymous
	h.email = ""
}

// State returns the current state.
func (h *Holder) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// IsAuthenticated reports whether the holder is Authenticated.
func (h *Holder) IsAuthenticated() bool {
	return h.State() == Authenticated
}

// Email returns the authenticated email, or "" when anonymous.
func (h *Holder) Email() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.email
}
