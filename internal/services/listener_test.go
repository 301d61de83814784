package services

import (
	"context"
	"testing"
	"time"

	"memberaccounts/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmailService records the last welcome message sent.
type fakeEmailService struct {
	data *domain.WelcomeMessageEmailData
	err  error
}

func (f *fakeEmailService) SendWelcomeMessage(_ context.Context, data *domain.WelcomeMessageEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.data = data
	return nil
}

func TestMemberCreatedListener_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("sends welcome mail from event snapshot", func(t *testing.T) {
		emails := &fakeEmailService{}
		listener := NewMemberCreatedListener(emails)

		err := listener.Handle(ctx, domain.MemberCreatedEvent{
			ID:         "evt-1",
			OccurredAt: time.Now(),
			Member:     domain.Member{ID: 7, Email: "a@x.com", Name: "A"},
		})
		require.NoError(t, err)
		require.NotNil(t, emails.data)
		assert.Equal(t, "a@x.com", emails.data.Email)
		assert.Equal(t, "A", emails.data.Name)
		assert.Equal(t, int64(7), emails.data.MemberID)
	})

	t.Run("rejects unexpected event type", func(t *testing.T) {
		listener := NewMemberCreatedListener(&fakeEmailService{})
		err := listener.Handle(ctx, fakeEvent{})
		require.Error(t, err)
	})
}

type fakeEvent struct{}

func (fakeEvent) EventName() string { return domain.EventMemberCreated }
func (fakeEvent) EventID() string   { return "bogus" }
