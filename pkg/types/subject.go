package types

// Roles an authenticated subject may carry.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Subject is the already-authenticated caller identity supplied by the
// transport layer.
type Subject struct {
	ID   string `json:"id"`
	Role string `json:"role,omitempty"`
}

// Anonymous reports whether no identity was supplied.
func (s Subject) Anonymous() bool {
	return s.ID == ""
}
