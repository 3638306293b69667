// Package sink turns known event kinds into formatted toasts.
//
// The taxonomy is a fixed handler table; new kinds are added as entries, not
// by wrapping. Transport failures (connect errors, terminal disconnects) are
// logged only: by policy they never produce a user-facing toast, so normal
// reconnection stays silent.
package sink

import (
	"log/slog"
	"time"

	"github.com/luminacrm/pulse/internal/router"
	"github.com/luminacrm/pulse/internal/toast"
)

// Options tunes toast presentation and collaborator hooks.
type Options struct {
	// DefaultDuration applies to ordinary toasts. Zero means surface default.
	DefaultDuration time.Duration

	// AnnouncementDuration applies to announcement toasts, which stay up
	// longer than ordinary ones.
	AnnouncementDuration time.Duration

	// Position is passed through to the surface.
	Position string

	// RefreshPermissions, when set, is called after a permissions event so
	// the host can refetch its cached permission state.
	RefreshPermissions func()
}

// Sink builds the handler table over a toast surface.
type Sink struct {
	surface toast.Surface
	logger  *slog.Logger
	opts    Options
}

// New creates a sink rendering to the given surface.
func New(surface toast.Surface, opts Options, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		surface: surface,
		logger:  logger,
		opts:    opts,
	}
}

// Table returns the handler table for dispatch.
func (s *Sink) Table() router.Table {
	return router.Table{
		"notification": s.handleNotification,
		"new_lead":     s.handleNewLead,
		"invoice_paid": s.handleInvoicePaid,
		"announcement": s.handleAnnouncement,
		"permissions":  s.handlePermissions,
		"email":        s.handleEmail,
	}
}

// OnConnectError logs a transport connect failure. No toast: reconnection is
// automatic and transient network blips should not alarm the operator.
func (s *Sink) OnConnectError(err error) {
	s.logger.Warn("push connect error", "error", err)
}

// OnError logs a terminal transport error. No toast.
func (s *Sink) OnError(err error) {
	s.logger.Error("push connection error", "error", err)
}

func (s *Sink) handleNotification(p router.Payload, env router.Envelope) {
	message := p.String("message")
	if title := p.String("title"); title != "" {
		message = title + ": " + message
	}
	s.show(message, severityFromType(p.String("type")), s.opts.DefaultDuration)
}

func (s *Sink) handleNewLead(p router.Payload, env router.Envelope) {
	message := p.String("message")
	if message == "" {
		switch {
		case p.String("leadName") != "":
			message = "New lead: " + p.String("leadName")
		case p.String("leadId") != "":
			message = "New lead: Lead #" + p.String("leadId")
		default:
			message = "New lead"
		}
	}
	s.show(message, toast.SeveritySuccess, s.opts.DefaultDuration)
}

func (s *Sink) handleInvoicePaid(p router.Payload, env router.Envelope) {
	message := p.String("message")
	if message == "" {
		ref := p.String("invoiceNumber")
		if ref == "" {
			ref = "#" + p.String("invoiceId")
		}
		message = "Invoice " + ref + " has been paid"
		if amount := p.String("amount"); amount != "" {
			message += " (" + amount + ")"
		}
	}
	s.show(message, toast.SeveritySuccess, s.opts.DefaultDuration)
}

func (s *Sink) handleAnnouncement(p router.Payload, env router.Envelope) {
	message := p.String("message")
	if title := p.String("title"); title != "" {
		message = title + ": " + message
	}

	sev := severityFromType(p.String("type"))
	s.surface.Show(message, toast.Options{
		Severity: sev,
		Icon:     "megaphone",
		Duration: s.opts.AnnouncementDuration,
		Position: s.opts.Position,
	})
}

func (s *Sink) handlePermissions(p router.Payload, env router.Envelope) {
	message := p.String("message")
	if message == "" {
		message = "Your permissions have been updated"
	}
	s.show(message, toast.SeverityInfo, s.opts.DefaultDuration)

	if s.opts.RefreshPermissions != nil {
		s.opts.RefreshPermissions()
	}
}

func (s *Sink) handleEmail(p router.Payload, env router.Envelope) {
	subject := p.String("subject")
	message := p.String("message")

	text := message
	if subject != "" {
		text = "Email: " + subject
		if message != "" {
			text += " - " + message
		}
	}
	s.show(text, severityFromType(p.String("type")), s.opts.DefaultDuration)
}

func (s *Sink) show(message string, sev toast.Severity, duration time.Duration) {
	s.surface.Show(message, toast.Options{
		Severity: sev,
		Icon:     toast.DefaultIcon(sev),
		Duration: duration,
		Position: s.opts.Position,
	})
}

// severityFromType maps a payload "type" field to a severity, defaulting to
// info for unknown or missing values.
func severityFromType(t string) toast.Severity {
	switch t {
	case "success":
		return toast.SeveritySuccess
	case "warning":
		return toast.SeverityWarning
	case "error":
		return toast.SeverityError
	default:
		return toast.SeverityInfo
	}
}
