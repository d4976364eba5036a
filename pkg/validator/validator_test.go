package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	FullName string `json:"full_name" validate:"notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Gender   string `json:"gender,omitempty"`
}

type companyForm struct {
	Name        string  `json:"name" validate:"notblank,max=255"`
	Size        *string `json:"company_size" validate:"omitempty,oneof=1-10 11-50 51-200"`
	FoundedYear *int    `json:"founded_year" validate:"omitempty,founded_year"`
	Website     string  `json:"website" validate:"omitempty,url"`
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	return valErr.Fields()
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(signup{FullName: "Ada", Email: "ada@example.com", Password: "secret1"}))
}

func TestValidate_FieldsUseJSONNames(t *testing.T) {
	fields := fieldsOf(t, Validate(signup{Email: "not-an-email", Password: "x"}))

	assert.Equal(t, "is required", fields["full_name"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Contains(t, fields["password"], "6")
}

func TestValidate_NotBlankRejectsWhitespace(t *testing.T) {
	fields := fieldsOf(t, Validate(signup{FullName: "   ", Email: "a@b.co", Password: "secret1"}))
	assert.Contains(t, fields, "full_name")
}

func TestValidate_FoundedYear(t *testing.T) {
	year := func(y int) *int { return &y }

	assert.NoError(t, Validate(companyForm{Name: "Acme", FoundedYear: year(1999)}))
	assert.NoError(t, Validate(companyForm{Name: "Acme", FoundedYear: year(time.Now().Year())}))

	fields := fieldsOf(t, Validate(companyForm{Name: "Acme", FoundedYear: year(1700)}))
	assert.Contains(t, fields["founded_year"], "1800")

	_ = fieldsOf(t, Validate(companyForm{Name: "Acme", FoundedYear: year(time.Now().Year() + 1)}))
}

func TestValidate_MaxBytesCountsEncodedLength(t *testing.T) {
	type secret struct {
		Password string `json:"password" validate:"maxbytes=72"`
	}

	assert.NoError(t, Validate(secret{Password: strings.Repeat("a", 72)}))
	assert.NoError(t, Validate(secret{Password: strings.Repeat("é", 36)}))

	// 40 runes, 80 bytes.
	fields := fieldsOf(t, Validate(secret{Password: strings.Repeat("é", 40)}))
	assert.Equal(t, "must be at most 72 bytes", fields["password"])
}

func TestValidate_OneOfAndURL(t *testing.T) {
	size := "huge"
	fields := fieldsOf(t, Validate(companyForm{Name: "Acme", Size: &size, Website: "nope"}))

	assert.Contains(t, fields["company_size"], "one of")
	assert.Equal(t, "must be a valid URL", fields["website"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(signup{Email: "a@b.co", Password: "secret1"})
	require.Error(t, err)
	assert.Equal(t, "field 'full_name' is required", err.Error())
}

func TestDecodeAndValidate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"full_name":"Ada","email":"ada@example.com","password":"secret1"}`))
		var s signup
		require.NoError(t, DecodeAndValidate(req, &s))
		assert.Equal(t, "Ada", s.FullName)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{invalid"))
		var s signup
		err := DecodeAndValidate(req, &s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode request body")
	})

	t.Run("validation fails", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"bad"}`))
		var s signup
		var valErr *ValidationError
		assert.ErrorAs(t, DecodeAndValidate(req, &s), &valErr)
	})
}
