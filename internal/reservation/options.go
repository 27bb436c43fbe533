package reservation

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultHoldTTL             = 5 * time.Second
	DefaultMaxClaimAttempts    = 3
	DefaultCollaboratorTimeout = 2 * time.Second
)

type Option func(*Manager)

func WithHoldTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

func WithMaxClaimAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// WithCollaboratorTimeout bounds every call to the scheduler, payment
// checker and booking store.
func WithCollaboratorTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.callTimeout = d
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}
