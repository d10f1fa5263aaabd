package provision

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Outcome is the terminal state of an install session.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSuccess
	OutcomeFailed
	OutcomeCanceled
	OutcomeToolchainMissing
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	case OutcomeCanceled:
		return "canceled"
	case OutcomeToolchainMissing:
		return "toolchain_missing"
	default:
		return "unknown"
	}
}

// Action names the kind of install shown to the user.
type Action string

const (
	ActionInstalling Action = "Installing"
	ActionUpdating   Action = "Updating"
)

// InstallSession is one in-flight provisioning attempt. Several event sources
// (process exit, cancellation, spawn failure) race to resolve it; only the
// first resolution is kept and every later one is a no-op. Progress reports
// made after resolution are dropped.
type InstallSession struct {
	ID      string
	Command CommandName
	Action  Action

	progress func(message string)

	once    sync.Once
	mu      sync.Mutex
	outcome Outcome
	err     error
	done    chan struct{}
}

// NewInstallSession creates a pending session. progress may be nil.
func NewInstallSession(command CommandName, action Action, progress func(message string)) *InstallSession {
	return &InstallSession{
		ID:       uuid.NewString(),
		Command:  command,
		Action:   action,
		progress: progress,
		done:     make(chan struct{}),
	}
}

// Title returns the progress title, e.g. "Installing simplicityhl-lsp".
func (s *InstallSession) Title() string {
	return string(s.Action) + " " + string(s.Command)
}

// Report forwards a progress message unless the session is already resolved.
func (s *InstallSession) Report(message string) {
	if s.progress == nil || s.Resolved() {
		return
	}
	s.progress(message)
}

// Resolve records the terminal result. A nil error means success. It returns
// true only for the call that actually resolved the session.
func (s *InstallSession) Resolve(err error) bool {
	resolved := false
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.outcome = classify(err)
		s.mu.Unlock()
		close(s.done)
		resolved = true
	})
	return resolved
}

// Resolved reports whether a terminal outcome has been recorded.
func (s *InstallSession) Resolved() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed once the session resolves.
func (s *InstallSession) Done() <-chan struct{} {
	return s.done
}

// Err returns the resolution error (nil on success or while pending).
func (s *InstallSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Outcome returns the terminal outcome, or OutcomePending.
func (s *InstallSession) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

func classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrInstallCanceled):
		return OutcomeCanceled
	case errors.Is(err, ErrToolchainMissing):
		return OutcomeToolchainMissing
	default:
		return OutcomeFailed
	}
}
