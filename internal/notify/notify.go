// Package notify shows desktop notifications for events the user would
// otherwise miss while murmur runs in the background.
package notify

import (
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

// Notifier sends best-effort desktop notifications. Delivery failures are
// logged, never propagated: a missed notification must not affect the
// dictation flow.
type Notifier struct {
	enabled bool
	log     zerolog.Logger
}

// New creates a Notifier. When enabled is false every call is a no-op.
func New(enabled bool, log zerolog.Logger) *Notifier {
	return &Notifier{enabled: enabled, log: log}
}

// Info shows an informational notification.
func (n *Notifier) Info(title, message string) {
	if !n.enabled {
		return
	}
	if err := beeep.Notify(title, message, ""); err != nil {
		n.log.Debug().Err(err).Msg("notification failed")
	}
}

// Error shows an attention-grabbing notification.
func (n *Notifier) Error(title, message string) {
	if !n.enabled {
		return
	}
	if err := beeep.Alert(title, message, ""); err != nil {
		n.log.Debug().Err(err).Msg("notification failed")
	}
}
