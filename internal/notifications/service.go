package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"faith-connect/congregation-portal/portal-backend/internal/congregations"
	"faith-connect/congregation-portal/portal-backend/internal/verification"
)

// ContactDirectory resolves a congregation's contact details
type ContactDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*congregations.Congregation, error)
}

// Service pushes committed verification decisions to connected
// dashboards and mails the congregation contact. Both channels are
// best-effort; the moderation flow never waits on them.
type Service struct {
	hub       *Hub
	mailer    Mailer
	directory ContactDirectory
	logger    *zap.Logger
}

// NewService creates a new notifications service
func NewService(hub *Hub, mailer Mailer, directory ContactDirectory, logger *zap.Logger) *Service {
	return &Service{hub: hub, mailer: mailer, directory: directory, logger: logger}
}

// NotifyDecision implements the verification engine's notifier hook
func (s *Service) NotifyDecision(ctx context.Context, congregationID uuid.UUID, congregationName string, action verification.RecordAction, reason string) {
	msg := Message{
		Type:      MessageTypeDecision,
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"congregation_id":   congregationID.String(),
			"congregation_name": congregationName,
			"action":            string(action),
		},
	}
	if reason != "" {
		msg.Data["reason"] = reason
	}
	delivered := s.hub.PushToCongregation(congregationID, msg)
	s.logger.Debug("decision pushed",
		zap.String("congregation_id", congregationID.String()),
		zap.Int("connections", delivered))

	s.sendEmail(ctx, congregationID, congregationName, action, reason)
}

func (s *Service) sendEmail(ctx context.Context, congregationID uuid.UUID, congregationName string, action verification.RecordAction, reason string) {
	c, err := s.directory.GetByID(ctx, congregationID)
	if err != nil || c == nil || c.ContactEmail == "" {
		if err != nil {
			s.logger.Warn("contact lookup failed",
				zap.String("congregation_id", congregationID.String()),
				zap.Error(err))
		}
		return
	}

	email := renderDecisionEmail(c.ContactEmail, congregationName, action, reason)
	if err := s.mailer.Send(ctx, email); err != nil {
		s.logger.Warn("decision email failed",
			zap.String("congregation_id", congregationID.String()),
			zap.Error(err))
	}
}

func renderDecisionEmail(to, congregationName string, action verification.RecordAction, reason string) DecisionEmail {
	if action == verification.RecordApproved {
		return DecisionEmail{
			To:      to,
			Subject: fmt.Sprintf("%s has been verified", congregationName),
			Body: fmt.Sprintf(
				"Good news! %s has been verified and is now listed in the public directory.",
				congregationName),
		}
	}

	body := fmt.Sprintf("The registration of %s was not approved.", congregationName)
	if reason != "" {
		body = fmt.Sprintf("%s\n\nReason: %s", body, reason)
	}
	return DecisionEmail{
		To:      to,
		Subject: fmt.Sprintf("Update on the registration of %s", congregationName),
		Body:    body,
	}
}
