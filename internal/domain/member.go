package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for member operations.
var (
	ErrMemberNotFound   = errors.New("member not found")
	ErrMemberExists     = errors.New("email already registered")
	ErrConcurrentUpdate = errors.New("concurrent update conflict")
)

// MemberStatus is the lifecycle state of a member account.
type MemberStatus string

const (
	StatusActive  MemberStatus = "active"
	StatusDormant MemberStatus = "dormant"
	StatusQuit    MemberStatus = "quit"
)

// ParseMemberStatus returns the MemberStatus for s, or false if s is not a known status.
func ParseMemberStatus(s string) (MemberStatus, bool) {
	switch MemberStatus(s) {
	case StatusActive, StatusDormant, StatusQuit:
		return MemberStatus(s), true
	}
	return "", false
}

// Member represents a member account
// swagger:model Member
type Member struct {
	ID        int64        `json:"id"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone"`
	Status    MemberStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// NewMember returns a new Member with the given fields and status active.
// ID is set by the repository on create.
func NewMember(email, name, phone string, createdAt, updatedAt time.Time) *Member {
	return &Member{
		Email:     email,
		Name:      name,
		Phone:     phone,
		Status:    StatusActive,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// MemberPatch is a partial update for a member. Nil fields are left unchanged.
// Email is deliberately absent: it is immutable after creation.
type MemberPatch struct {
	MemberID int64
	Name     *string
	Phone    *string
	Status   *MemberStatus
}

// TxLevel selects the transaction behavior for MemberRepository.InTx.
type TxLevel int

const (
	// TxDefault uses the store's default isolation (committed reads).
	TxDefault TxLevel = iota
	// TxSerializable guarantees the transaction behaves as if executed
	// in some serial order with respect to concurrent transactions.
	TxSerializable
	// TxReadOnly is a read-only transaction at default isolation.
	TxReadOnly
)

// MemberRepository defines the interface for member storage.
// GetByID and GetByEmail return sql.ErrNoRows when no record matches;
// the service layer maps that to ErrMemberNotFound / treats it as "email free".
type MemberRepository interface {
	Save(ctx context.Context, member *Member) (*Member, error)
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	List(ctx context.Context, params PaginationParams) (*MemberPage, error)
	Delete(ctx context.Context, member *Member) error

	// InTx runs fn within a transaction at the given level. The repository
	// passed to fn is bound to that transaction; the transaction commits if
	// fn returns nil and rolls back otherwise. Serialization conflicts
	// surface as ErrConcurrentUpdate.
	InTx(ctx context.Context, level TxLevel, fn func(repo MemberRepository) error) error
}

// MemberService defines the business logic for member account management.
type MemberService interface {
	Create(ctx context.Context, member *Member) (*Member, error)
	Update(ctx context.Context, patch MemberPatch) (*Member, error)
	Get(ctx context.Context, id int64) (*Member, error)
	List(ctx context.Context, params PaginationParams) (*MemberPage, error)
	Delete(ctx context.Context, id int64) error
}
