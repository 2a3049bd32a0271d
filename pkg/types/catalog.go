package types

import "strings"

// User is a registered account. The password hash never leaves storage.
type User struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

// NewUser is the input of user registration.
type NewUser struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that every field is present.
func (n NewUser) Validate() error {
	if strings.TrimSpace(n.Nickname) == "" || strings.TrimSpace(n.Email) == "" || n.Password == "" {
		return Invalid("nickname, email and password are required")
	}
	return nil
}

// UserUpdate changes the non-nil fields of a user.
type UserUpdate struct {
	Nickname *string `json:"nickname,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// Trait is a reference entity linked from characters.
type Trait struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Proficiency is a reference entity linked from characters.
type Proficiency struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Property is a reference entity linked from items.
type Property struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UserPage is one page of a user listing.
type UserPage struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

// TraitPage is one page of a trait listing.
type TraitPage struct {
	Traits []Trait `json:"traits"`
	Total  int     `json:"total"`
}

// ProficiencyPage is one page of a proficiency listing.
type ProficiencyPage struct {
	Proficiencies []Proficiency `json:"proficiencies"`
	Total         int           `json:"total"`
}

// PropertyPage is one page of a property listing.
type PropertyPage struct {
	Properties []Property `json:"properties"`
	Total      int        `json:"total"`
}
