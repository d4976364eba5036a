package domain

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/CompanyDirectory/pkg/errors"
)

func TestNormalizeGender(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"m", GenderMale},
		{"f", GenderFemale},
		{"o", GenderOther},
		{"male", GenderMale},
		{"female", GenderFemale},
		{"other", GenderOther},
		{"", GenderOther},
		{"x", GenderOther},
		{"M", GenderOther},
		{"Female", GenderOther},
		{" m", GenderOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeGender(tt.in))
		})
	}
}

func TestUser_PasswordHashNeverSerialized(t *testing.T) {
	u := &User{ID: "u-1", Email: "ada@example.com", PasswordHash: "$2a$12$secret"}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
}

func TestUser_Projections(t *testing.T) {
	u := &User{
		ID: "u-1", FullName: "Ada Lovelace", Email: "ada@example.com",
		MobileNo: "+44 20 7946 0000", Gender: GenderFemale, IsEmailVerified: true,
	}

	pub := u.Public()
	assert.Equal(t, "+44 20 7946 0000", pub.MobileNo)
	assert.True(t, pub.IsEmailVerified)
	assert.False(t, pub.IsMobileVerified)

	login := u.Login()
	assert.Equal(t, &LoginUser{ID: "u-1", Email: "ada@example.com", FullName: "Ada Lovelace"}, login)

	raw, err := json.Marshal(login)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u-1","email":"ada@example.com","full_name":"Ada Lovelace"}`, string(raw))
}

func TestUser_HasMobile(t *testing.T) {
	assert.False(t, (&User{}).HasMobile())
	assert.False(t, (&User{MobileNo: "   "}).HasMobile())
	assert.True(t, (&User{MobileNo: "+15550100"}).HasMobile())
}

func TestSameMobile(t *testing.T) {
	assert.True(t, SameMobile("+1 555 0100", "+15550100"))
	assert.True(t, SameMobile("\t+1555 0100\n", "+1 5550100"))
	assert.False(t, SameMobile("+15550100", "+15550101"))
}

func TestIsValidCompanySize(t *testing.T) {
	for _, s := range CompanySizes() {
		assert.True(t, IsValidCompanySize(s), s)
	}
	assert.True(t, IsValidCompanySize(""))
	assert.False(t, IsValidCompanySize("huge"))
}

func TestCompanyPatch_ApplyOnlySetFields(t *testing.T) {
	year := 1999
	c := &Company{Name: "Acme", City: "London", Industry: "Tools", FoundedYear: &year}

	city := "Paris"
	p := &CompanyPatch{City: &city}
	require.False(t, p.IsEmpty())
	p.Apply(c)

	assert.Equal(t, "Paris", c.City)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, "Tools", c.Industry)
	assert.Equal(t, 1999, *c.FoundedYear)

	empty := ""
	(&CompanyPatch{Industry: &empty}).Apply(c)
	assert.Equal(t, "", c.Industry, "an explicit empty value clears the field")

	assert.True(t, (&CompanyPatch{}).IsEmpty())
}

func TestErrors_StatusAndCode(t *testing.T) {
	tests := []struct {
		err    *apperrors.AppError
		code   string
		status int
	}{
		{ErrDuplicateEmail, "DUPLICATE_EMAIL", http.StatusBadRequest},
		{ErrInvalidCredentials, "INVALID_CREDENTIALS", http.StatusBadRequest},
		{ErrUnauthenticated, "UNAUTHENTICATED", http.StatusUnauthorized},
		{ErrInvalidToken, "INVALID_TOKEN", http.StatusUnauthorized},
		{ErrInvalidOrExpiredToken, "INVALID_OR_EXPIRED_TOKEN", http.StatusBadRequest},
		{ErrWrongTokenPurpose, "WRONG_TOKEN_PURPOSE", http.StatusBadRequest},
		{ErrNoMobileOnFile, "NO_MOBILE_ON_FILE", http.StatusBadRequest},
		{ErrDelivery, "DELIVERY_ERROR", http.StatusInternalServerError},
		{ErrInvalidProof, "INVALID_PROOF", http.StatusBadRequest},
		{ErrMobileMismatch, "MOBILE_MISMATCH", http.StatusBadRequest},
		{ErrNotCompanyOwner, "FORBIDDEN", http.StatusForbidden},
		{CompanyNotFound("c-1"), "NOT_FOUND", http.StatusNotFound},
		{UserNotFound("u-1"), "NOT_FOUND", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, apperrors.HTTPStatus(tt.err))
			assert.NotEmpty(t, tt.err.Message)
		})
	}

	assert.Equal(t, "Invalid credentials", ErrInvalidCredentials.Message)
	assert.True(t, errors.Is(CompanyNotFound("x"), apperrors.ErrNotFound))
	assert.True(t, errors.Is(ErrDuplicateEmail, apperrors.ErrAlreadyExists))
}
