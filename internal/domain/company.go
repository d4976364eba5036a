package domain

import "time"

// Company size buckets.
const (
	Size1To10     = "1-10"
	Size11To50    = "11-50"
	Size51To200   = "51-200"
	Size201To500  = "201-500"
	Size501To1000 = "501-1000"
	Size1000Plus  = "1000+"
)

// CompanySizes lists the accepted size buckets in ascending order.
func CompanySizes() []string {
	return []string{Size1To10, Size11To50, Size51To200, Size201To500, Size501To1000, Size1000Plus}
}

// IsValidCompanySize reports whether s is empty or a known bucket.
func IsValidCompanySize(s string) bool {
	if s == "" {
		return true
	}
	for _, b := range CompanySizes() {
		if b == s {
			return true
		}
	}
	return false
}

// Company is a directory listing owned by a user.
type Company struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Industry    string    `json:"industry"`
	Website     string    `json:"website"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Location    string    `json:"location"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	Country     string    `json:"country"`
	PostalCode  string    `json:"postal_code"`
	CompanySize string    `json:"company_size,omitempty"`
	FoundedYear *int      `json:"founded_year,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	LogoKey     string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CompanyPatch carries the fields of a partial update. A nil field is left
// untouched.
type CompanyPatch struct {
	Name        *string
	Description *string
	Industry    *string
	Website     *string
	Email       *string
	Phone       *string
	Location    *string
	Address     *string
	City        *string
	State       *string
	Country     *string
	PostalCode  *string
	CompanySize *string
	FoundedYear *int
	LogoURL     *string
	LogoKey     *string
}

// IsEmpty reports whether the patch sets no field.
func (p *CompanyPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Industry == nil &&
		p.Website == nil && p.Email == nil && p.Phone == nil &&
		p.Location == nil && p.Address == nil && p.City == nil &&
		p.State == nil && p.Country == nil && p.PostalCode == nil &&
		p.CompanySize == nil && p.FoundedYear == nil &&
		p.LogoURL == nil && p.LogoKey == nil
}

// Apply copies every set field of p onto c.
func (p *CompanyPatch) Apply(c *Company) {
	setString(&c.Name, p.Name)
	setString(&c.Description, p.Description)
	setString(&c.Industry, p.Industry)
	setString(&c.Website, p.Website)
	setString(&c.Email, p.Email)
	setString(&c.Phone, p.Phone)
	setString(&c.Location, p.Location)
	setString(&c.Address, p.Address)
	setString(&c.City, p.City)
	setString(&c.State, p.State)
	setString(&c.Country, p.Country)
	setString(&c.PostalCode, p.PostalCode)
	setString(&c.CompanySize, p.CompanySize)
	setString(&c.LogoURL, p.LogoURL)
	setString(&c.LogoKey, p.LogoKey)
	if p.FoundedYear != nil {
		y := *p.FoundedYear
		c.FoundedYear = &y
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// CompanyFilter holds the listing criteria.
type CompanyFilter struct {
	Search   string
	Industry string
	Location string
	OwnerID  string
	Page     int
	PerPage  int
}

// Logo is an uploaded company logo.
type Logo struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}
