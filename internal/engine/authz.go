package engine

import (
	"context"

	"github.com/roach88/stgov/internal/ir"
)

// AdminPermission grants administrative capability when present in a
// caller's SecurityContext.
const AdminPermission = "service_types:admin"

// Authorizer decides whether a caller holds administrative capability.
// approve, reject, rejectApproved, and create require it.
type Authorizer interface {
	IsAdministrator(ctx context.Context, caller ir.SecurityContext) bool
}

// AdminList is an Authorizer backed by a fixed set of user IDs.
// A caller is an administrator if their user ID is listed or they carry
// AdminPermission. Unauthenticated callers never are.
type AdminList struct {
	users map[string]struct{}
}

// NewAdminList creates an AdminList for the given user IDs.
func NewAdminList(userIDs ...string) *AdminList {
	users := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id != "" {
			users[id] = struct{}{}
		}
	}
	return &AdminList{users: users}
}

// IsAdministrator implements Authorizer.
func (a *AdminList) IsAdministrator(_ context.Context, caller ir.SecurityContext) bool {
	if !caller.Authenticated() {
		return false
	}
	if _, ok := a.users[caller.UserID]; ok {
		return true
	}
	return caller.HasPermission(AdminPermission)
}
