package models

import "time"

type Role string

const (
	RoleNormal     Role = "normal"
	RolePremium    Role = "premium"
	RoleAdmin      Role = "admin"
	RoleOwner      Role = "owner"
	RoleSuperAdmin Role = "super_admin"
)

// Privileged reports whether the role is exempt from token cost and
// account requirements.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleOwner || r == RoleSuperAdmin
}

// User mirrors a Telegram identity. UserID is the external Telegram ID;
// users are created on first interaction and never hard-deleted.
type User struct {
	UserID       int64     `bson:"user_id" json:"user_id"`
	Username     string    `bson:"username,omitempty" json:"username,omitempty"`
	FirstName    string    `bson:"first_name" json:"first_name"`
	LastName     string    `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Role         Role      `bson:"role" json:"role"`
	Tokens       int       `bson:"tokens" json:"tokens"`
	TotalReports int       `bson:"total_reports" json:"total_reports"`
	IsBlocked    bool      `bson:"is_blocked" json:"is_blocked"`
	JoinedAt     time.Time `bson:"joined_at" json:"joined_at"`
	LastActive   time.Time `bson:"last_active" json:"last_active"`
}
