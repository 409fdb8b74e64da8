package auth

import (
	"time"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

// SubscriberDeleteWindow is how long an admin keeps delete rights over a new subscriber.
const SubscriberDeleteWindow = 24 * time.Hour

// CanDeleteSubscriber applies the subscriber lock window.
// superadmin and dev are exempt; admin may delete while now-addedAt <= 24h; nobody else may.
func CanDeleteSubscriber(actor domain.StaffRole, addedAt, now time.Time) bool {
	switch actor {
	case domain.StaffRoleSuperadmin, domain.StaffRoleDev:
		return true
	case domain.StaffRoleAdmin:
		return now.Sub(addedAt) <= SubscriberDeleteWindow
	default:
		return false
	}
}

// SubscriberLocked is the read-only flag shown to actor for a subscriber.
func SubscriberLocked(actor domain.StaffRole, addedAt, now time.Time) bool {
	return !CanDeleteSubscriber(actor, addedAt, now)
}

// CanModifyStaff reports whether actor may edit, delete or re-role a target account.
// A dev acting on its own dev account is refused so the last line of access cannot be removed.
func CanModifyStaff(actor domain.StaffRole, actorIsSelf bool, target domain.StaffRole) bool {
	switch actor {
	case domain.StaffRoleDev:
		return !(actorIsSelf && target == domain.StaffRoleDev)
	case domain.StaffRoleSuperadmin:
		return target != domain.StaffRoleSuperadmin && target != domain.StaffRoleDev
	default:
		return false
	}
}

// CanManageContent reports whether role may mutate subscribers, media and inquiries.
func CanManageContent(role domain.StaffRole) bool {
	switch role {
	case domain.StaffRoleAdmin, domain.StaffRoleSuperadmin, domain.StaffRoleDev:
		return true
	}
	return false
}

// CanHardDelete reports whether role may remove records outside any time window.
func CanHardDelete(role domain.StaffRole) bool {
	return role == domain.StaffRoleSuperadmin || role == domain.StaffRoleDev
}
