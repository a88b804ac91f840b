package dashboard

import (
	"context"
	"sync"

	"finboard/internal/api"
	"finboard/internal/session"
)

// ErrorSurface observes the session's error state. It becomes visible when
// the session error transitions from nil to non-nil and offers Dismiss and
// Retry; session errors are global because a broken roster or selection
// invalidates the whole dashboard.
type ErrorSurface struct {
	session *session.Manager

	mu       sync.Mutex
	visible  bool
	message  string
	retrying bool
}

func NewErrorSurface(sess *session.Manager) *ErrorSurface {
	s := &ErrorSurface{session: sess}
	sess.Subscribe(s.observe)
	return s
}

func (s *ErrorSurface) observe(snap session.Snapshot) {
	if snap.Err == nil {
		return
	}
	s.mu.Lock()
	s.visible = true
	s.message = snap.Err.Error()
	s.mu.Unlock()
}

// Visible reports whether the surface is currently shown.
func (s *ErrorSurface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Message returns the error text currently shown.
func (s *ErrorSurface) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Retrying reports whether a retry is in flight; the retry action is
// disabled while it is.
func (s *ErrorSurface) Retrying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrying
}

// Dismiss hides the surface and clears the session error.
func (s *ErrorSurface) Dismiss() {
	s.mu.Lock()
	s.visible = false
	s.message = ""
	s.mu.Unlock()
	s.session.ResetError()
}

// Retry re-runs the roster refresh. The surface hides only on success; on
// another failure it stays visible with the updated error text. A retry
// while one is in flight is rejected with api.ErrBusy.
func (s *ErrorSurface) Retry(ctx context.Context) error {
	s.mu.Lock()
	if s.retrying {
		s.mu.Unlock()
		return api.ErrBusy
	}
	s.retrying = true
	s.mu.Unlock()

	err := s.session.RefreshRoster(ctx)

	s.mu.Lock()
	s.retrying = false
	if err == nil {
		s.visible = false
		s.message = ""
	} else {
		s.message = err.Error()
	}
	s.mu.Unlock()
	return err
}
