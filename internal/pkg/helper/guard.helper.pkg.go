package helper

import "sync/atomic"

// AuthGuard makes sure the unauthorized hook runs once per burst of 401s from
// the backend. It is cleared by the next successful response or by Clear.
type AuthGuard struct {
	tripped        atomic.Bool
	onUnauthorized func()
}

func NewAuthGuard(onUnauthorized func()) *AuthGuard {
	return &AuthGuard{onUnauthorized: onUnauthorized}
}

// Trip reports whether this call was the one that fired the hook.
func (g *AuthGuard) Trip() bool {
	if !g.tripped.CompareAndSwap(false, true) {
		return false
	}
	if g.onUnauthorized != nil {
		g.onUnauthorized()
	}
	return true
}

func (g *AuthGuard) Clear() {
	g.tripped.Store(false)
}

func (g *AuthGuard) Tripped() bool {
	return g.tripped.Load()
}
