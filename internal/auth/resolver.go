package auth

import (
	"telereport/internal/config"
	"telereport/internal/models"
)

// Resolver maps Telegram user IDs to roles using the static privileged-ID
// sets from configuration. It is built once at startup and passed to every
// component that needs privilege checks; it has no other state.
type Resolver struct {
	admins     map[int64]struct{}
	owners     map[int64]struct{}
	superAdmin int64
}

func NewResolver(cfg *config.Config) *Resolver {
	r := &Resolver{
		admins:     make(map[int64]struct{}, len(cfg.AdminIDs)),
		owners:     make(map[int64]struct{}, len(cfg.OwnerIDs)),
		superAdmin: cfg.SuperAdminID,
	}
	for _, id := range cfg.AdminIDs {
		r.admins[id] = struct{}{}
	}
	for _, id := range cfg.OwnerIDs {
		r.owners[id] = struct{}{}
	}
	return r
}

// Resolve returns the role for a user ID. Super-admin takes precedence
// over owner, owner over admin; everyone else is normal. Empty sets mean
// everyone resolves to normal.
func (r *Resolver) Resolve(userID int64) models.Role {
	if r.superAdmin != 0 && userID == r.superAdmin {
		return models.RoleSuperAdmin
	}
	if _, ok := r.owners[userID]; ok {
		return models.RoleOwner
	}
	if _, ok := r.admins[userID]; ok {
		return models.RoleAdmin
	}
	return models.RoleNormal
}

// Privileged is shorthand for Resolve(userID).Privileged().
func (r *Resolver) Privileged(userID int64) bool {
	return r.Resolve(userID).Privileged()
}
