package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/CompanyDirectory/internal/domain"
	"github.com/utafrali/CompanyDirectory/internal/event"
	"github.com/utafrali/CompanyDirectory/internal/repository"
	"github.com/utafrali/CompanyDirectory/internal/storage"
	apperrors "github.com/utafrali/CompanyDirectory/pkg/errors"
	"github.com/utafrali/CompanyDirectory/pkg/pagination"
	"github.com/utafrali/CompanyDirectory/pkg/validator"
)

// CompanyConfig holds the tunables of the company service.
type CompanyConfig struct {
	// EnforceOwnership restricts update and delete to the owner.
	EnforceOwnership bool
}

// CompanyService implements company CRUD, listing and logo handling.
type CompanyService struct {
	companies repository.CompanyRepository
	logos     storage.Storage
	events    event.Publisher
	cfg       CompanyConfig
	logger    *slog.Logger
	now       func() time.Time
}

// NewCompanyService creates a new company service.
func NewCompanyService(
	companies repository.CompanyRepository,
	logos storage.Storage,
	events event.Publisher,
	cfg CompanyConfig,
	logger *slog.Logger,
) *CompanyService {
	if events == nil {
		events = event.Noop{}
	}
	return &CompanyService{
		companies: companies,
		logos:     logos,
		events:    events,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateCompanyInput holds the fields of a new company.
type CreateCompanyInput struct {
	Name        string
	Description string
	Industry    string
	Website     string
	Email       string
	Phone       string
	Location    string
	Address     string
	City        string
	State       string
	Country     string
	PostalCode  string
	CompanySize string
	FoundedYear *int
}

// CompanyPage is one page of a company listing.
type CompanyPage struct {
	Companies  []domain.Company
	TotalCount int
	Page       int
	PerPage    int
}

// Create stores a company owned by ownerID, uploading logo first when given.
func (s *CompanyService) Create(ctx context.Context, ownerID string, input CreateCompanyInput, logo *domain.Logo) (*domain.Company, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if err := s.validateAttributes(input.CompanySize, input.FoundedYear); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	company := &domain.Company{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		Industry:    input.Industry,
		Website:     input.Website,
		Email:       input.Email,
		Phone:       input.Phone,
		Location:    input.Location,
		Address:     input.Address,
		City:        input.City,
		State:       input.State,
		Country:     input.Country,
		PostalCode:  input.PostalCode,
		CompanySize: input.CompanySize,
		FoundedYear: input.FoundedYear,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if logo != nil {
		uploaded, err := s.uploadLogo(ctx, company.ID, logo)
		if err != nil {
			return nil, err
		}
		company.LogoURL = uploaded.URL
		company.LogoKey = uploaded.Key
	}

	if err := s.companies.Create(ctx, company); err != nil {
		s.removeLogo(ctx, company.LogoKey)
		return nil, fmt.Errorf("create company: %w", err)
	}

	if err := s.events.CompanyCreated(ctx, company); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish company.created event",
			slog.String("company_id", company.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "company created",
		slog.String("company_id", company.ID),
		slog.String("owner_id", ownerID),
	)
	return company, nil
}

// Get returns the company with id.
func (s *CompanyService) Get(ctx context.Context, id string) (*domain.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return company, nil
}

// List returns the page of companies matching filter, newest first.
func (s *CompanyService) List(ctx context.Context, filter domain.CompanyFilter) (*CompanyPage, error) {
	p := pagination.Params{Page: filter.Page, PerPage: filter.PerPage}.Normalize()
	filter.Page, filter.PerPage = p.Page, p.PerPage

	companies, total, err := s.companies.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return &CompanyPage{
		Companies:  companies,
		TotalCount: total,
		Page:       p.Page,
		PerPage:    p.PerPage,
	}, nil
}

// ListByOwner returns every company owned by ownerID.
func (s *CompanyService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Company, error) {
	companies, err := s.companies.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list companies by owner: %w", err)
	}
	return companies, nil
}

// Update applies the set fields of patch. A new logo replaces the stored one,
// whose object is then removed.
func (s *CompanyService) Update(ctx context.Context, actorID, id string, patch *domain.CompanyPatch, logo *domain.Logo) (*domain.Company, error) {
	existing, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	if err := s.authorize(existing, actorID); err != nil {
		return nil, err
	}

	if patch == nil {
		patch = &domain.CompanyPatch{}
	}
	patch.LogoURL, patch.LogoKey = nil, nil

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperrors.InvalidInput("name must not be blank")
		}
		patch.Name = &name
	}
	size := ""
	if patch.CompanySize != nil {
		size = *patch.CompanySize
	}
	if err := s.validateAttributes(size, patch.FoundedYear); err != nil {
		return nil, err
	}

	var newKey string
	if logo != nil {
		uploaded, err := s.uploadLogo(ctx, id, logo)
		if err != nil {
			return nil, err
		}
		newKey = uploaded.Key
		patch.LogoURL = &uploaded.URL
		patch.LogoKey = &uploaded.Key
	}

	updated, err := s.companies.Update(ctx, id, patch)
	if err != nil {
		s.removeLogo(ctx, newKey)
		return nil, fmt.Errorf("update company: %w", err)
	}

	if newKey != "" && existing.LogoKey != newKey {
		s.removeLogo(ctx, existing.LogoKey)
	}

	if err := s.events.CompanyUpdated(ctx, updated); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish company.updated event",
			slog.String("company_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "company updated",
		slog.String("company_id", id),
		slog.String("actor_id", actorID),
	)
	return updated, nil
}

// Delete removes the company and, best effort, its stored logo.
func (s *CompanyService) Delete(ctx context.Context, actorID, id string) error {
	if s.cfg.EnforceOwnership {
		existing, err := s.companies.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get company: %w", err)
		}
		if err := s.authorize(existing, actorID); err != nil {
			return err
		}
	}

	logoKey, err := s.companies.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	s.removeLogo(ctx, logoKey)

	if err := s.events.CompanyDeleted(ctx, id, actorID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish company.deleted event",
			slog.String("company_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "company deleted",
		slog.String("company_id", id),
		slog.String("actor_id", actorID),
	)
	return nil
}

func (s *CompanyService) authorize(c *domain.Company, actorID string) error {
	if s.cfg.EnforceOwnership && c.OwnerID != actorID {
		return domain.ErrNotCompanyOwner
	}
	return nil
}

func (s *CompanyService) validateAttributes(size string, foundedYear *int) error {
	if !domain.IsValidCompanySize(size) {
		return apperrors.InvalidInput(fmt.Sprintf("company_size must be one of %s",
			strings.Join(domain.CompanySizes(), ", ")))
	}
	if foundedYear != nil {
		if y := *foundedYear; y < validator.MinFoundedYear || y > s.now().Year() {
			return apperrors.InvalidInput(fmt.Sprintf("founded_year must be between %d and %d",
				validator.MinFoundedYear, s.now().Year()))
		}
	}
	return nil
}

func (s *CompanyService) uploadLogo(ctx context.Context, companyID string, logo *domain.Logo) (*storage.UploadResult, error) {
	if _, ok := storage.LogoExtension(logo.ContentType); !ok {
		return nil, apperrors.InvalidInput("logo must be a jpeg, png, webp or gif image")
	}
	size := logo.Size
	if size == 0 {
		size = int64(len(logo.Data))
	}
	if size > storage.MaxLogoSize {
		return nil, apperrors.InvalidInput("logo must be at most 5 MiB")
	}

	result, err := s.logos.Upload(ctx, &storage.UploadInput{
		Key:         storage.LogoKey(companyID, logo.ContentType),
		ContentType: logo.ContentType,
		Size:        size,
		Data:        bytes.NewReader(logo.Data),
	})
	if err != nil {
		return nil, fmt.Errorf("upload logo: %w", err)
	}
	return result, nil
}

// removeLogo deletes a stored logo, logging instead of failing.
func (s *CompanyService) removeLogo(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.logos.Delete(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "failed to delete logo",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
