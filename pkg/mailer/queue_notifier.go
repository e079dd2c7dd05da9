package mailer

import (
	"context"

	"github.com/chatverse/auth-service/pkg/helpers"
)

// QueueNotifier hands email jobs to the RabbitMQ queue consumed by the email
// worker. Delivery retries live in the worker; callers only pay for one
// publish.
type QueueNotifier struct {
	Pub     *helpers.RabbitPublisher
	Enabled bool
}

func NewQueueNotifier(pub *helpers.RabbitPublisher, enabled bool) *QueueNotifier {
	return &QueueNotifier{Pub: pub, Enabled: enabled}
}

func (n *QueueNotifier) SendVerificationEmail(ctx context.Context, to, link string) error {
	return n.publish(ctx, EmailJob{
		To:       to,
		Template: TemplateVerifyEmail,
		Data:     map[string]any{"Link": link},
	})
}

func (n *QueueNotifier) SendPasswordResetEmail(ctx context.Context, to, secret string) error {
	return n.publish(ctx, EmailJob{
		To:       to,
		Template: TemplateResetPassword,
		Data:     map[string]any{"Token": secret},
	})
}

func (n *QueueNotifier) publish(ctx context.Context, job EmailJob) error {
	if !n.Enabled || n.Pub == nil {
		return nil
	}
	return n.Pub.PublishJSON(ctx, job)
}
