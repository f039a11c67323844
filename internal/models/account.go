package models

import "time"

type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountInactive  AccountStatus = "inactive"
	AccountSuspended AccountStatus = "suspended"
	AccountBanned    AccountStatus = "banned"
)

// ValidAccountStatus reports whether s is one of the known statuses.
func ValidAccountStatus(s AccountStatus) bool {
	switch s {
	case AccountActive, AccountInactive, AccountSuspended, AccountBanned:
		return true
	}
	return false
}

// Account is a reporting account enrolled by a user: the "reporter of
// record" used when filing a report, decoupled from the user's own login.
// SessionData is AES-GCM encrypted at rest.
type Account struct {
	AccountID    string        `bson:"account_id" json:"account_id"`
	UserID       int64         `bson:"user_id" json:"user_id"`
	Name         string        `bson:"name" json:"name"`
	Phone        string        `bson:"phone" json:"phone"`
	SessionData  string        `bson:"session_data,omitempty" json:"-"`
	Status       AccountStatus `bson:"status" json:"status"`
	IsPrimary    bool          `bson:"is_primary" json:"is_primary"`
	ReportsUsed  int           `bson:"reports_used" json:"reports_used"`
	AddedAt      time.Time     `bson:"added_at" json:"added_at"`
	LastUsedAt   *time.Time    `bson:"last_used_at,omitempty" json:"last_used_at,omitempty"`
}
