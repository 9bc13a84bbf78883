package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleFarmer Role = "farmer"
	RoleExpert Role = "expert"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFarmer, RoleExpert:
		return true
	}
	return false
}

// Address is an optional postal address. Every field may be empty.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

// Full joins the non-empty address parts with commas.
func (a *Address) Full() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.City, a.State, a.Country, a.ZipCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// User is a community member. PasswordHash is only populated on the
// credential lookup path used by login.
type User struct {
	ID             string
	Name           string
	Email          string
	PasswordHash   string
	Role           Role
	ProfilePicture string
	Bio            string
	Phone          string
	Address        *Address
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
