package session

// Role is the access level of an identity.
type Role string

const (
	RoleMember     Role = "member"
	RoleCoach      Role = "coach"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Identity is the user record an access token was issued for.
type Identity struct {
	ID       string `json:"id" yaml:"id"`
	Email    string `json:"email" yaml:"email"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Role     Role   `json:"role" yaml:"role"`
	Verified bool   `json:"verified,omitempty" yaml:"verified,omitempty"`
}

// HasRole reports whether the identity may access something guarded by
// required. Superadmins pass coach and admin guards.
func (i Identity) HasRole(required Role) bool {
	if i.Role == required {
		return true
	}
	if i.Role == RoleSuperadmin {
		return required == RoleCoach || required == RoleAdmin
	}
	return false
}
