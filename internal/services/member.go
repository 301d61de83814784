package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"memberaccounts/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type memberService struct {
	repo      domain.MemberRepository
	publisher domain.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewMemberService creates a MemberService over the given repository and publisher.
func NewMemberService(repo domain.MemberRepository, publisher domain.EventPublisher, logger *slog.Logger) domain.MemberService {
	return &memberService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Create persists a new member and, once the transaction has committed,
// publishes a MemberCreatedEvent. The publish is fire-and-forget: a failure
// in the downstream listener (e.g. the welcome email) does not roll back the
// already-committed member row and is only visible in the logs.
func (s *memberService) Create(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	m.Email = strings.TrimSpace(strings.ToLower(m.Email))
	if !emailRegexp.MatchString(m.Email) {
		return nil, fmt.Errorf("invalid email format")
	}
	if m.Status == "" {
		m.Status = domain.StatusActive
	}
	now := s.now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	var saved *domain.Member
	err := s.repo.InTx(ctx, domain.TxDefault, func(r domain.MemberRepository) error {
		if err := verifyEmailFree(ctx, r, m.Email); err != nil {
			return err
		}
		var err error
		saved, err = r.Save(ctx, m)
		if err != nil {
			if errors.Is(err, domain.ErrMemberExists) {
				return err
			}
			return fmt.Errorf("failed to save member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "member created", "member_id", saved.ID)

	s.publisher.Publish(domain.MemberCreatedEvent{
		ID:         uuid.NewString(),
		OccurredAt: s.now(),
		Member:     *saved,
	})
	return saved, nil
}

// Update applies the non-nil fields of patch to the member it addresses.
// Email is never changed. The read-modify-write runs in a serializable
// transaction; a conflicting concurrent update surfaces as
// ErrConcurrentUpdate and the whole operation may be retried by the caller.
func (s *memberService) Update(ctx context.Context, patch domain.MemberPatch) (*domain.Member, error) {
	var updated *domain.Member
	err := s.repo.InTx(ctx, domain.TxSerializable, func(r domain.MemberRepository) error {
		current, err := getVerifiedMember(ctx, r, patch.MemberID)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			current.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Phone != nil {
			current.Phone = strings.TrimSpace(*patch.Phone)
		}
		if patch.Status != nil {
			current.Status = *patch.Status
		}
		current.UpdatedAt = s.now()

		updated, err = r.Save(ctx, current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrMemberNotFound
			}
			if errors.Is(err, domain.ErrConcurrentUpdate) {
				return err
			}
			return fmt.Errorf("failed to update member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *memberService) Get(ctx context.Context, id int64) (*domain.Member, error) {
	var found *domain.Member
	err := s.repo.InTx(ctx, domain.TxReadOnly, func(r domain.MemberRepository) error {
		var err error
		found, err = getVerifiedMember(ctx, r, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *memberService) List(ctx context.Context, params domain.PaginationParams) (*domain.MemberPage, error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return page, nil
}

func (s *memberService) Delete(ctx context.Context, id int64) error {
	return s.repo.InTx(ctx, domain.TxDefault, func(r domain.MemberRepository) error {
		member, err := getVerifiedMember(ctx, r, id)
		if err != nil {
			return err
		}
		if err := r.Delete(ctx, member); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrMemberNotFound
			}
			return fmt.Errorf("failed to delete member: %w", err)
		}
		return nil
	})
}

// getVerifiedMember looks up a member by id and maps absence to ErrMemberNotFound.
func getVerifiedMember(ctx context.Context, r domain.MemberRepository, id int64) (*domain.Member, error) {
	m, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// verifyEmailFree fails with ErrMemberExists when a member already holds email.
func verifyEmailFree(ctx context.Context, r domain.MemberRepository, email string) error {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return domain.ErrMemberExists
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return fmt.Errorf("failed to check email: %w", err)
}
