package repository

import (
	"context"

	"github.com/utafrali/CompanyDirectory/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts u unless its email is taken, in which case it returns
	// domain.ErrDuplicateEmail and writes nothing.
	Create(ctx context.Context, u *domain.User) error

	// GetByID retrieves a user by id.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by exact email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// MarkEmailVerified sets the email verified flag. Repeating it succeeds.
	MarkEmailVerified(ctx context.Context, id string) error

	// MarkMobileVerified sets the mobile verified flag. Repeating it succeeds.
	MarkMobileVerified(ctx context.Context, id string) error
}

// CompanyRepository defines the interface for company persistence operations.
type CompanyRepository interface {
	Create(ctx context.Context, c *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)

	// List returns one page of matching companies, newest first, and the
	// total number of matches.
	List(ctx context.Context, filter domain.CompanyFilter) ([]domain.Company, int, error)

	ListByOwner(ctx context.Context, ownerID string) ([]domain.Company, error)

	// Update applies the set fields of patch and returns the stored row.
	Update(ctx context.Context, id string, patch *domain.CompanyPatch) (*domain.Company, error)

	// Delete removes the company and returns the key of its stored logo,
	// empty when it had none.
	Delete(ctx context.Context, id string) (string, error)
}
