// Package domain defines the persistence models for identities, catalog
// entries, and rental records. These types are mapped with GORM and form the
// core data layer of the rental backend.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/cases"
)

// Role is the access level of an identity.
type Role string

const (
	RoleCustomer      Role = "customer"
	RoleAdministrator Role = "administrator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdministrator
}

// MaxActiveRentals is the number of open rentals an identity may hold.
const MaxActiveRentals = 3

// RentalPeriod is the fixed loan window applied to every rental.
const RentalPeriod = 48 * time.Hour

// StringList is an ordered list of strings stored as a JSON text column.
// It always encodes as a JSON array, never null.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringList: unsupported source %T", src)
	}
	var out []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// MarshalJSON keeps empty lists as [] in API responses.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// Without returns a copy of l with every occurrence of s removed.
func (l StringList) Without(s string) StringList {
	out := make(StringList, 0, len(l))
	for _, v := range l {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// User is a registered identity. Email is unique and matched exactly;
// ActiveRentals holds the ids of the rentals the user currently has open.
type User struct {
	ID            string     `json:"id"             gorm:"type:varchar(36);primaryKey"`
	Email         string     `json:"email"          gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash  string     `json:"-"              gorm:"type:varchar(255);not null"`
	FirstName     string     `json:"first_name"     gorm:"type:varchar(128);not null;default:''"`
	LastName      string     `json:"last_name"      gorm:"type:varchar(128);not null;default:''"`
	Address       string     `json:"address"        gorm:"type:varchar(512);not null;default:''"`
	PhoneNumber   string     `json:"phone_number"   gorm:"type:varchar(64);not null;default:''"`
	Role          Role       `json:"role"           gorm:"type:varchar(16);not null;check:chk_users_role,role IN ('customer','administrator')"`
	ActiveRentals StringList `json:"active_rentals" gorm:"type:text;not null"`
	RegisteredAt  time.Time  `json:"registered_at"  gorm:"not null;index"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// FullName is the "First Last" form snapshotted onto rentals.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdministrator reports whether the user holds the administrator role.
func (u User) IsAdministrator() bool { return u.Role == RoleAdministrator }

// Movie is a catalog entry. AvailableCopies is owned by the rental ledger and
// never edited directly.
type Movie struct {
	ID              string     `json:"id"               gorm:"type:varchar(36);primaryKey"`
	Title           string     `json:"title"            gorm:"type:varchar(255);not null;index:idx_movies_title"`
	Genre           string     `json:"genre"            gorm:"type:varchar(128);not null"`
	Director        string     `json:"director"         gorm:"type:varchar(255);not null"`
	DurationMinutes int        `json:"duration_minutes" gorm:"not null"`
	Rating          float64    `json:"rating"           gorm:"not null"`
	Description     string     `json:"description"      gorm:"type:text;not null"`
	Actors          StringList `json:"actors"           gorm:"type:text;not null"`
	TotalCopies     int        `json:"total_copies"     gorm:"not null;check:chk_movies_total,total_copies >= 0"`
	AvailableCopies int        `json:"available_copies" gorm:"not null;check:chk_movies_available,available_copies >= 0"`
	AddedAt         time.Time  `json:"added_at"         gorm:"not null"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Case-folded copies of Title and Genre matched by catalog search.
	TitleSearch string `json:"-" gorm:"type:text;not null;default:''"`
	GenreSearch string `json:"-" gorm:"type:text;not null;default:''"`
}

// SearchKey folds s for case-insensitive catalog matching. Full Unicode
// case folding is applied, so "ÉLAN" and "élan" share a key.
func SearchKey(s string) string { return cases.Fold().String(s) }

// TableName returns the database table name for Movie.
func (Movie) TableName() string { return "movies" }

// Rental records one loan of one copy. The user and movie fields are
// snapshots taken at borrow time and are not kept in sync with later edits.
// ReturnedAt is nil while the rental is open and is set exactly once.
type Rental struct {
	ID           string     `json:"id"            gorm:"type:varchar(36);primaryKey"`
	UserID       string     `json:"user_id"       gorm:"type:varchar(36);not null;index:idx_rentals_user"`
	MovieID      string     `json:"movie_id"      gorm:"type:varchar(36);not null;index:idx_rentals_movie"`
	UserFullName string     `json:"user_fullname" gorm:"column:user_fullname;type:varchar(255);not null"`
	UserEmail    string     `json:"user_email"    gorm:"type:varchar(255);not null"`
	MovieTitle   string     `json:"movie_title"   gorm:"type:varchar(255);not null"`
	RentedAt     time.Time  `json:"rented_at"     gorm:"not null;index:idx_rentals_rented_at"`
	DueDate      time.Time  `json:"due_date"      gorm:"not null"`
	ReturnedAt   *time.Time `json:"returned_at"`
}

// TableName returns the database table name for Rental.
func (Rental) TableName() string { return "rentals" }

// Open reports whether the rental has not been returned yet.
func (r Rental) Open() bool { return r.ReturnedAt == nil }

// DueDate computes the due date for a rental starting at rentedAt.
func DueDate(rentedAt time.Time) time.Time { return rentedAt.Add(RentalPeriod) }
