package domain

import (
	"net/http"

	apperrors "github.com/utafrali/CompanyDirectory/pkg/errors"
)

// Errors surfaced by the auth and company services. Each carries the status
// and code the HTTP boundary answers with.
var (
	ErrDuplicateEmail = apperrors.New(http.StatusBadRequest, "DUPLICATE_EMAIL",
		"a user with this email already exists", apperrors.ErrAlreadyExists)
	ErrInvalidCredentials = apperrors.New(http.StatusBadRequest, "INVALID_CREDENTIALS",
		"Invalid credentials", apperrors.ErrInvalidInput)
	ErrUnauthenticated = apperrors.New(http.StatusUnauthorized, "UNAUTHENTICATED",
		"missing or malformed authorization header", apperrors.ErrUnauthorized)
	ErrInvalidToken = apperrors.New(http.StatusUnauthorized, "INVALID_TOKEN",
		"invalid or expired token", apperrors.ErrUnauthorized)
	ErrInvalidOrExpiredToken = apperrors.New(http.StatusBadRequest, "INVALID_OR_EXPIRED_TOKEN",
		"verification link is invalid or has expired", apperrors.ErrInvalidInput)
	ErrWrongTokenPurpose = apperrors.New(http.StatusBadRequest, "WRONG_TOKEN_PURPOSE",
		"token was not issued for this operation", apperrors.ErrInvalidInput)
	ErrNoMobileOnFile = apperrors.New(http.StatusBadRequest, "NO_MOBILE_ON_FILE",
		"no mobile number on file", apperrors.ErrInvalidInput)
	ErrDelivery = apperrors.New(http.StatusInternalServerError, "DELIVERY_ERROR",
		"could not send verification email", apperrors.ErrInternal)
	ErrInvalidProof = apperrors.New(http.StatusBadRequest, "INVALID_PROOF",
		"phone verification could not be confirmed", apperrors.ErrInvalidInput)
	ErrMobileMismatch = apperrors.New(http.StatusBadRequest, "MOBILE_MISMATCH",
		"verified phone number does not match the number on file", apperrors.ErrInvalidInput)
	ErrNotCompanyOwner = apperrors.New(http.StatusForbidden, "FORBIDDEN",
		"only the owner may modify this company", apperrors.ErrForbidden)
)

// UserNotFound returns a 404 for the user with id.
func UserNotFound(id string) *apperrors.AppError {
	return apperrors.NotFound("user", id)
}

// CompanyNotFound returns a 404 for the company with id.
func CompanyNotFound(id string) *apperrors.AppError {
	return apperrors.NotFound("company", id)
}
