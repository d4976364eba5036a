package domain

import (
	"strings"
	"time"
)

// Gender storage codes.
const (
	GenderMale   = "m"
	GenderFemale = "f"
	GenderOther  = "o"
)

// NormalizeGender maps input to a storage code. Only the exact lowercase
// codes and long forms match; anything else becomes GenderOther.
func NormalizeGender(g string) string {
	switch g {
	case GenderMale, "male":
		return GenderMale
	case GenderFemale, "female":
		return GenderFemale
	default:
		return GenderOther
	}
}

// User represents a registered account.
type User struct {
	ID               string    `json:"id"`
	FullName         string    `json:"full_name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	MobileNo         string    `json:"mobile_no,omitempty"`
	Gender           string    `json:"gender"`
	IsEmailVerified  bool      `json:"is_email_verified"`
	IsMobileVerified bool      `json:"is_mobile_verified"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HasMobile reports whether a mobile number is on file.
func (u *User) HasMobile() bool {
	return strings.TrimSpace(u.MobileNo) != ""
}

// PublicUser is the projection returned by register and me.
type PublicUser struct {
	ID               string `json:"id"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	MobileNo         string `json:"mobile_no"`
	Gender           string `json:"gender"`
	IsEmailVerified  bool   `json:"is_email_verified"`
	IsMobileVerified bool   `json:"is_mobile_verified"`
}

// LoginUser is the reduced projection returned by login.
type LoginUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Public returns the register/me projection of u.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:               u.ID,
		FullName:         u.FullName,
		Email:            u.Email,
		MobileNo:         u.MobileNo,
		Gender:           u.Gender,
		IsEmailVerified:  u.IsEmailVerified,
		IsMobileVerified: u.IsMobileVerified,
	}
}

// Login returns the login projection of u.
func (u *User) Login() *LoginUser {
	return &LoginUser{ID: u.ID, Email: u.Email, FullName: u.FullName}
}

// SameMobile compares two phone numbers ignoring all whitespace.
func SameMobile(a, b string) bool {
	return stripSpace(a) == stripSpace(b)
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
