package domain

import "time"

// StaffRole enumerates internal operator roles. The set is flat; permissions
// are computed by comparing actor and target roles.
type StaffRole string

const (
	StaffRoleStaff      StaffRole = "staff"
	StaffRoleAdmin      StaffRole = "admin"
	StaffRoleSuperadmin StaffRole = "superadmin"
	StaffRoleDev        StaffRole = "dev"
)

// Valid reports whether r is one of the known roles.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleStaff, StaffRoleAdmin, StaffRoleSuperadmin, StaffRoleDev:
		return true
	}
	return false
}

// StaffMember models an admin panel account.
type StaffMember struct {
	ID            string     `bson:"_id"`
	Name          string     `bson:"name"`
	Email         string     `bson:"email"`
	PasswordHash  string     `bson:"passwordHash"`
	Role          StaffRole  `bson:"role"`
	Notifications bool       `bson:"notifications"`
	LastLoginAt   *time.Time `bson:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt"`
}
