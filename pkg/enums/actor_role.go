package enums

import "fmt"

// ActorRole identifies who is invoking a state-machine operation.
type ActorRole string

const (
	ActorRoleAdmin         ActorRole = "admin"
	ActorRoleStoreEmployee ActorRole = "store_employee"
	ActorRoleDriver        ActorRole = "driver"
	ActorRoleCustomer      ActorRole = "customer"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRoleStoreEmployee,
	ActorRoleDriver,
	ActorRoleCustomer,
}

// IsStaff reports whether the role may take back-office actions.
func (r ActorRole) IsStaff() bool {
	return r == ActorRoleAdmin || r == ActorRoleStoreEmployee
}

// IsValid checks whether the given role matches the canonical enum.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw strings into ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
