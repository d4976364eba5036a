package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/CompanyDirectory/internal/domain"
	"github.com/utafrali/CompanyDirectory/pkg/database"
	"github.com/utafrali/CompanyDirectory/pkg/pagination"
)

const companyColumns = `id, owner_id, name, description, industry, website, email, phone, location, address, city, state, country, postal_code, company_size, founded_year, logo_url, logo_key, created_at, updated_at`

// CompanyRepository implements repository.CompanyRepository using PostgreSQL.
type CompanyRepository struct {
	db database.DBTX
}

// NewCompanyRepository creates a new PostgreSQL-backed company repository.
func NewCompanyRepository(db database.DBTX) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create inserts a new company.
func (r *CompanyRepository) Create(ctx context.Context, c *domain.Company) (err error) {
	const query = `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	ctx, end := database.TraceQuery(ctx, "CreateCompany", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.Name,
		c.Description,
		c.Industry,
		c.Website,
		c.Email,
		c.Phone,
		c.Location,
		c.Address,
		c.City,
		c.State,
		c.Country,
		c.PostalCode,
		c.CompanySize,
		c.FoundedYear,
		c.LogoURL,
		c.LogoKey,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.UserNotFound(c.OwnerID)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

// GetByID retrieves a company by id.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (_ *domain.Company, err error) {
	const query = `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetCompany", query)
	defer func() { end(err) }()

	c, err := scanCompany(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.CompanyNotFound(id)
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// List returns a page of companies matching filter, newest first.
func (r *CompanyRepository) List(ctx context.Context, filter domain.CompanyFilter) (_ []domain.Company, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if s := strings.TrimSpace(filter.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR description ILIKE $%d OR industry ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+escapeLike(s)+"%")
		argIndex++
	}

	if ind := strings.TrimSpace(filter.Industry); ind != "" {
		conditions = append(conditions, fmt.Sprintf("lower(industry) = lower($%d)", argIndex))
		args = append(args, ind)
		argIndex++
	}

	if loc := strings.TrimSpace(filter.Location); loc != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(location ILIKE $%d OR city ILIKE $%d OR state ILIKE $%d OR country ILIKE $%d)",
			argIndex, argIndex, argIndex, argIndex))
		args = append(args, "%"+escapeLike(loc)+"%")
		argIndex++
	}

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("owner_id = $%d", argIndex))
		args = append(args, filter.OwnerID)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() returns the total alongside the page in one round trip.
	query := fmt.Sprintf(`
		SELECT %s,
			   count(*) OVER() AS total_count
		FROM companies
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		companyColumns, whereClause, argIndex, argIndex+1,
	)

	p := pagination.Params{Page: filter.Page, PerPage: filter.PerPage}.Normalize()
	filterArgs := args
	args = append(args, p.Limit(), p.Offset())

	ctx, end := database.TraceQuery(ctx, "ListCompanies", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]domain.Company, 0, p.Limit())
	totalCount := 0
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(append(companyDest(&c), &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate companies: %w", err)
	}
	rows.Close()

	// A page past the end carries no window count.
	if len(companies) == 0 && p.Offset() > 0 {
		countQuery := "SELECT count(*) FROM companies " + whereClause
		if err := r.db.QueryRow(ctx, countQuery, filterArgs...).Scan(&totalCount); err != nil {
			return nil, 0, fmt.Errorf("count companies: %w", err)
		}
	}

	return companies, totalCount, nil
}

// ListByOwner returns every company owned by ownerID, newest first.
func (r *CompanyRepository) ListByOwner(ctx context.Context, ownerID string) (_ []domain.Company, err error) {
	const query = `SELECT ` + companyColumns + ` FROM companies WHERE owner_id = $1 ORDER BY created_at DESC, id`

	ctx, end := database.TraceQuery(ctx, "ListCompaniesByOwner", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list companies by owner: %w", err)
	}
	defer rows.Close()

	companies := []domain.Company{}
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(companyDest(&c)...); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

// Update writes only the columns set in patch and returns the updated row.
// An empty patch reads the row unchanged.
func (r *CompanyRepository) Update(ctx context.Context, id string, patch *domain.CompanyPatch) (_ *domain.Company, err error) {
	sets, args := patchAssignments(patch)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE companies SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), companyColumns)

	ctx, end := database.TraceQuery(ctx, "UpdateCompany", query)
	defer func() { end(err) }()

	c, err := scanCompany(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.CompanyNotFound(id)
		}
		return nil, fmt.Errorf("update company: %w", err)
	}
	return c, nil
}

// Delete removes the company and returns its logo key.
func (r *CompanyRepository) Delete(ctx context.Context, id string) (_ string, err error) {
	const query = `DELETE FROM companies WHERE id = $1 RETURNING logo_key`

	ctx, end := database.TraceQuery(ctx, "DeleteCompany", query)
	defer func() { end(err) }()

	var logoKey string
	if err := r.db.QueryRow(ctx, query, id).Scan(&logoKey); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.CompanyNotFound(id)
		}
		return "", fmt.Errorf("delete company: %w", err)
	}
	return logoKey, nil
}

// patchAssignments returns "column = $n" fragments in a fixed column order.
func patchAssignments(p *domain.CompanyPatch) ([]string, []any) {
	fields := []struct {
		column string
		set    bool
		value  any
	}{
		{"name", p.Name != nil, p.Name},
		{"description", p.Description != nil, p.Description},
		{"industry", p.Industry != nil, p.Industry},
		{"website", p.Website != nil, p.Website},
		{"email", p.Email != nil, p.Email},
		{"phone", p.Phone != nil, p.Phone},
		{"location", p.Location != nil, p.Location},
		{"address", p.Address != nil, p.Address},
		{"city", p.City != nil, p.City},
		{"state", p.State != nil, p.State},
		{"country", p.Country != nil, p.Country},
		{"postal_code", p.PostalCode != nil, p.PostalCode},
		{"company_size", p.CompanySize != nil, p.CompanySize},
		{"founded_year", p.FoundedYear != nil, p.FoundedYear},
		{"logo_url", p.LogoURL != nil, p.LogoURL},
		{"logo_key", p.LogoKey != nil, p.LogoKey},
	}

	var (
		sets []string
		args []any
	)
	for _, f := range fields {
		if !f.set {
			continue
		}
		args = append(args, deref(f.value))
		sets = append(sets, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}
	return sets, args
}

func deref(v any) any {
	switch p := v.(type) {
	case *string:
		return *p
	case *int:
		return *p
	default:
		return v
	}
}

func companyDest(c *domain.Company) []any {
	return []any{
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Description,
		&c.Industry,
		&c.Website,
		&c.Email,
		&c.Phone,
		&c.Location,
		&c.Address,
		&c.City,
		&c.State,
		&c.Country,
		&c.PostalCode,
		&c.CompanySize,
		&c.FoundedYear,
		&c.LogoURL,
		&c.LogoKey,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var c domain.Company
	if err := row.Scan(companyDest(&c)...); err != nil {
		return nil, err
	}
	return &c, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
