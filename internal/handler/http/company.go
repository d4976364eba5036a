package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/CompanyDirectory/internal/domain"
	"github.com/utafrali/CompanyDirectory/internal/service"
	"github.com/utafrali/CompanyDirectory/internal/storage"
	apperrors "github.com/utafrali/CompanyDirectory/pkg/errors"
	"github.com/utafrali/CompanyDirectory/pkg/httputil"
	"github.com/utafrali/CompanyDirectory/pkg/middleware"
	"github.com/utafrali/CompanyDirectory/pkg/pagination"
	"github.com/utafrali/CompanyDirectory/pkg/validator"
)

const (
	logoField = "logo"

	// maxMultipartBody leaves room for the text fields next to a full-size logo.
	maxMultipartBody = storage.MaxLogoSize + 1<<20
)

var errLogoTooLarge = apperrors.New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
	"logo must be at most 5 MiB", apperrors.ErrInvalidInput)

// CompanyHandler handles HTTP requests for company endpoints.
type CompanyHandler struct {
	service *service.CompanyService
	logger  *slog.Logger
}

// NewCompanyHandler creates a new company HTTP handler.
func NewCompanyHandler(svc *service.CompanyService, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateCompanyRequest is the body for creating a company.
type CreateCompanyRequest struct {
	Name        string `json:"name" validate:"notblank,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Industry    string `json:"industry" validate:"max=255"`
	Website     string `json:"website" validate:"max=255"`
	Email       string `json:"email" validate:"omitempty,email,max=254"`
	Phone       string `json:"phone" validate:"max=32"`
	Location    string `json:"location" validate:"max=255"`
	Address     string `json:"address" validate:"max=500"`
	City        string `json:"city" validate:"max=255"`
	State       string `json:"state" validate:"max=255"`
	Country     string `json:"country" validate:"max=255"`
	PostalCode  string `json:"postal_code" validate:"max=32"`
	CompanySize string `json:"company_size" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	FoundedYear *int   `json:"founded_year" validate:"omitempty,founded_year"`
}

// UpdateCompanyRequest is the body for a partial update. Absent fields are
// left untouched.
type UpdateCompanyRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Industry    *string `json:"industry" validate:"omitempty,max=255"`
	Website     *string `json:"website" validate:"omitempty,max=255"`
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	City        *string `json:"city" validate:"omitempty,max=255"`
	State       *string `json:"state" validate:"omitempty,max=255"`
	Country     *string `json:"country" validate:"omitempty,max=255"`
	PostalCode  *string `json:"postal_code" validate:"omitempty,max=32"`
	CompanySize *string `json:"company_size" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	FoundedYear *int    `json:"founded_year" validate:"omitempty,founded_year"`
}

func (req *CreateCompanyRequest) input() service.CreateCompanyInput {
	return service.CreateCompanyInput{
		Name:        req.Name,
		Description: req.Description,
		Industry:    req.Industry,
		Website:     req.Website,
		Email:       req.Email,
		Phone:       req.Phone,
		Location:    req.Location,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		PostalCode:  req.PostalCode,
		CompanySize: req.CompanySize,
		FoundedYear: req.FoundedYear,
	}
}

func (req *UpdateCompanyRequest) patch() *domain.CompanyPatch {
	return &domain.CompanyPatch{
		Name:        req.Name,
		Description: req.Description,
		Industry:    req.Industry,
		Website:     req.Website,
		Email:       req.Email,
		Phone:       req.Phone,
		Location:    req.Location,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		PostalCode:  req.PostalCode,
		CompanySize: req.CompanySize,
		FoundedYear: req.FoundedYear,
	}
}

// createRequest converts form fields into a create body; absent fields
// become empty.
func (req *UpdateCompanyRequest) createRequest() CreateCompanyRequest {
	v := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return CreateCompanyRequest{
		Name:        v(req.Name),
		Description: v(req.Description),
		Industry:    v(req.Industry),
		Website:     v(req.Website),
		Email:       v(req.Email),
		Phone:       v(req.Phone),
		Location:    v(req.Location),
		Address:     v(req.Address),
		City:        v(req.City),
		State:       v(req.State),
		Country:     v(req.Country),
		PostalCode:  v(req.PostalCode),
		CompanySize: v(req.CompanySize),
		FoundedYear: req.FoundedYear,
	}
}

// DeleteResponse confirms a deletion.
type DeleteResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// --- Handlers ---

// Create handles POST /api/companies
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var (
		req  CreateCompanyRequest
		logo *domain.Logo
	)

	if isMultipart(r) {
		fields, l, ok := h.readMultipart(w, r)
		if !ok {
			return
		}
		req, logo = fields.createRequest(), l
		if err := validator.Validate(req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.service.Create(r.Context(), middleware.UserIDFromContext(r.Context()), req.input(), logo)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: company})
}

// List handles GET /api/companies
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := pagination.FromRequest(r)

	page, err := h.service.List(r.Context(), domain.CompanyFilter{
		Search:   q.Get("search"),
		Industry: q.Get("industry"),
		Location: q.Get("location"),
		Page:     p.Page,
		PerPage:  p.PerPage,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(page.Companies, page.TotalCount, page.Page, page.PerPage))
}

// ListMine handles GET /api/companies/user/my-companies
func (h *CompanyHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListByOwner(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if companies == nil {
		companies = []domain.Company{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: companies})
}

// Get handles GET /api/companies/{id}
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	company, err := h.service.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: company})
}

// Update handles PUT /api/companies/{id}
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var (
		req  UpdateCompanyRequest
		logo *domain.Logo
	)

	if isMultipart(r) {
		fields, l, ok := h.readMultipart(w, r)
		if !ok {
			return
		}
		req, logo = fields, l
		if err := validator.Validate(req); err != nil {
			httputil.WriteValidationError(w, err)
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	company, err := h.service.Update(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), req.patch(), logo)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: company})
}

// Delete handles DELETE /api/companies/{id}
func (h *CompanyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: DeleteResponse{ID: id.String(), Status: "deleted"},
	})
}

// readMultipart parses a multipart body into form fields and an optional
// logo. Only keys present in the form are set.
func (h *CompanyHandler) readMultipart(w http.ResponseWriter, r *http.Request) (UpdateCompanyRequest, *domain.Logo, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)

	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, r, errLogoTooLarge, h.logger)
		} else {
			httputil.WriteError(w, r, apperrors.InvalidInput("invalid multipart body: "+err.Error()), h.logger)
		}
		return UpdateCompanyRequest{}, nil, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req, err := companyFromForm(r.MultipartForm)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return UpdateCompanyRequest{}, nil, false
	}

	logo, err := readLogo(r.MultipartForm)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return UpdateCompanyRequest{}, nil, false
	}
	return req, logo, true
}

func companyFromForm(form *multipart.Form) (UpdateCompanyRequest, error) {
	var req UpdateCompanyRequest
	fields := map[string]**string{
		"name":         &req.Name,
		"description":  &req.Description,
		"industry":     &req.Industry,
		"website":      &req.Website,
		"email":        &req.Email,
		"phone":        &req.Phone,
		"location":     &req.Location,
		"address":      &req.Address,
		"city":         &req.City,
		"state":        &req.State,
		"country":      &req.Country,
		"postal_code":  &req.PostalCode,
		"company_size": &req.CompanySize,
	}
	for key, dst := range fields {
		if values, ok := form.Value[key]; ok && len(values) > 0 {
			v := values[0]
			*dst = &v
		}
	}

	if values, ok := form.Value["founded_year"]; ok && len(values) > 0 {
		if s := strings.TrimSpace(values[0]); s != "" {
			year, err := strconv.Atoi(s)
			if err != nil {
				return req, apperrors.InvalidInput(fmt.Sprintf("founded_year must be an integer, got %q", s))
			}
			req.FoundedYear = &year
		}
	}
	return req, nil
}

func readLogo(form *multipart.Form) (*domain.Logo, error) {
	files := form.File[logoField]
	if len(files) == 0 {
		return nil, nil
	}
	fh := files[0]
	if fh.Size > storage.MaxLogoSize {
		return nil, errLogoTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, storage.MaxLogoSize+1))
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	if len(data) > storage.MaxLogoSize {
		return nil, errLogoTooLarge
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &domain.Logo{
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
