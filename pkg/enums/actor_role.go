package enums

import "fmt"

// ActorRole is the role supplied by the identity provider for every call.
type ActorRole string

const (
	ActorRoleSalesConsultant ActorRole = "sales_consultant"
	ActorRoleTechnician      ActorRole = "technician"
	ActorRoleBuyer           ActorRole = "buyer"
	ActorRoleManager         ActorRole = "manager"
	ActorRoleAdmin           ActorRole = "admin"
)

var validActorRoles = []ActorRole{
	ActorRoleSalesConsultant,
	ActorRoleTechnician,
	ActorRoleBuyer,
	ActorRoleManager,
	ActorRoleAdmin,
}

// RoleClass groups roles by what they may do in the quotation workflow.
type RoleClass string

const (
	RoleClassRequester RoleClass = "requester"
	RoleClassBuyer     RoleClass = "buyer"
	RoleClassAdmin     RoleClass = "admin"
)

// ActorRoles returns every known role.
func ActorRoles() []ActorRole {
	out := make([]ActorRole, len(validActorRoles))
	copy(out, validActorRoles)
	return out
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Class maps a role onto its class. Unknown roles have no class.
func (r ActorRole) Class() RoleClass {
	switch r {
	case ActorRoleSalesConsultant, ActorRoleTechnician:
		return RoleClassRequester
	case ActorRoleBuyer, ActorRoleManager:
		return RoleClassBuyer
	case ActorRoleAdmin:
		return RoleClassAdmin
	default:
		return ""
	}
}

func (r ActorRole) IsAdmin() bool {
	return r == ActorRoleAdmin
}

func (r ActorRole) IsBuyerClass() bool {
	return r.Class() == RoleClassBuyer
}

func (r ActorRole) IsRequesterClass() bool {
	return r.Class() == RoleClassRequester
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
