package person

import (
	"strings"
	"time"
	"unicode"
)

const (
	SexMasculine = "masculine"
	SexFeminine  = "feminine"

	RoleClient = "client"
	RoleStaff  = "staff"
)

// PhoneMaxDigits bounds the stored phone number length.
const PhoneMaxDigits = 8

type Person struct {
	ID int64 `json:"id"`
	// BirthDate is nil for placeholder persons fabricated during bulk
	// load, which carry no demographic data.
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Name      string     `json:"name"`
	Surname   string     `json:"surname"`
	Sex       string     `json:"sex"`
	Phone     string     `json:"phone"`
	Role      string     `json:"role"`
	Specialty *string    `json:"specialty,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
}

// FullName returns "name surname" for display labels.
func (p *Person) FullName() string {
	return strings.TrimSpace(p.Name + " " + p.Surname)
}

// NormalizeSex maps upload values onto the stored sex domain. Unknown
// values fall back to masculine, matching the store default.
func NormalizeSex(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", SexMasculine:
		return SexMasculine
	case "female", SexFeminine:
		return SexFeminine
	default:
		return SexMasculine
	}
}

// NormalizeRole maps upload values onto the stored role domain.
func NormalizeRole(s string) string {
	if strings.ToLower(strings.TrimSpace(s)) == RoleStaff {
		return RoleStaff
	}
	return RoleClient
}

// NormalizePhone strips every non-digit rune and truncates the remainder
// to PhoneMaxDigits.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
			if b.Len() == PhoneMaxDigits {
				break
			}
		}
	}
	return b.String()
}

// ValidSex reports whether s is a stored sex value.
func ValidSex(s string) bool {
	return s == SexMasculine || s == SexFeminine
}

// ValidRole reports whether s is a stored role value.
func ValidRole(s string) bool {
	return s == RoleClient || s == RoleStaff
}
