package notifications

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// Mailer sends decision notices
type Mailer interface {
	Send(ctx context.Context, email DecisionEmail) error
}

// SESMailer sends through Amazon SES v2
type SESMailer struct {
	client *sesv2.Client
	sender string
	logger *zap.Logger
}

// NewSESMailer creates a new SES mailer
func NewSESMailer(client *sesv2.Client, sender string, logger *zap.Logger) *SESMailer {
	return &SESMailer{client: client, sender: sender, logger: logger}
}

// Send delivers one email
func (m *SESMailer) Send(ctx context.Context, email DecisionEmail) error {
	if email.To == "" {
		return nil
	}

	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.sender),
		Destination: &types.Destination{
			ToAddresses: []string{email.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(email.Subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(email.Body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", email.To, err)
	}
	return nil
}

// NopMailer drops every email. Used when email delivery is disabled.
type NopMailer struct{}

func (NopMailer) Send(context.Context, DecisionEmail) error { return nil }
