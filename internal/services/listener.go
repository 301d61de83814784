package services

import (
	"context"
	"fmt"

	"memberaccounts/internal/domain"
)

// MemberCreatedListener sends the welcome email when a member is created.
// It runs decoupled from the creation transaction: if the email fails, the
// member stays created and the failure is only logged by the event bus.
type MemberCreatedListener struct {
	emails domain.EmailService
}

// NewMemberCreatedListener returns a listener over the given email service.
func NewMemberCreatedListener(emails domain.EmailService) *MemberCreatedListener {
	return &MemberCreatedListener{emails: emails}
}

// Handle implements domain.EventHandler for MemberCreatedEvent.
func (l *MemberCreatedListener) Handle(ctx context.Context, event domain.Event) error {
	created, ok := event.(domain.MemberCreatedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type for %s: %T", event.EventName(), event)
	}
	return l.emails.SendWelcomeMessage(ctx, &domain.WelcomeMessageEmailData{
		Email:    created.Member.Email,
		Name:     created.Member.Name,
		MemberID: created.Member.ID,
	})
}
