package models

import "time"

// Role is the ordered access level for an actor: Viewer < Editor < Admin.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
)

func (r Role) level() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	}
	return 0
}

// AtLeast reports whether the role grants the permissions of min.
func (r Role) AtLeast(min Role) bool {
	return r.level() >= min.level()
}

// ParseRole maps a claim value to a Role; unknown values degrade to viewer.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleEditor:
		return RoleEditor
	}
	return RoleViewer
}

// User represents an application user (mapped from identity-provider claims)
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Sub       string    `bson:"sub" json:"sub"` // OIDC subject
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	Role      Role      `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
