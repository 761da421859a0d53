package authorize

import (
	"fmt"
	"regexp"
)

type Action string
type Resource string
type Role string
type Domain string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// Power action: CRUD + list
	ActionManage Action = "manage"
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionManage: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	// Identity / auth
	ResourceUser         Resource = "user"
	ResourceAuthSession  Resource = "auth_session"
	ResourceRefreshToken Resource = "refresh_token"

	// Care records
	ResourcePatient     Resource = "patient"
	ResourceMedicine    Resource = "medicine"
	ResourceSchedule    Resource = "schedule"
	ResourceIntake      Resource = "intake"
	ResourceVital       Resource = "vital"
	ResourceAppointment Resource = "appointment"
	ResourceDocument    Resource = "document"

	// Family circle
	ResourceFamily       Resource = "family"
	ResourceFamilyMember Resource = "family_member"
	ResourceChat         Resource = "chat"

	// Sharing & communication
	ResourceShare        Resource = "share"
	ResourceNotification Resource = "notification"

	// System / platform admin
	ResourceSystem Resource = "system"
)

var KnownResources = map[Resource]struct{}{
	ResourceUser: {}, ResourceAuthSession: {}, ResourceRefreshToken: {},
	ResourcePatient: {}, ResourceMedicine: {}, ResourceSchedule: {}, ResourceIntake: {},
	ResourceVital: {}, ResourceAppointment: {}, ResourceDocument: {},
	ResourceFamily: {}, ResourceFamilyMember: {}, ResourceChat: {},
	ResourceShare: {}, ResourceNotification: {},
	ResourceSystem: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// These are the "policy subjects" we assign to users via grouping policies.

const (
	WildcardRole Role = "*"

	// Platform role (domain = sys)
	RoleSysSuperAdmin Role = "role:sys:superadmin"

	// Family roles (domain = family:<uuid>)
	RoleFamilyOwner     Role = "role:family:owner"
	RoleFamilyAdmin     Role = "role:family:admin"
	RoleFamilyCaregiver Role = "role:family:caregiver"
	RoleFamilyViewer    Role = "role:family:viewer"

	// Private user scope (domain = user:<uuid>)
	RoleUserSelf Role = "role:user:self"
)

var KnownRoles = map[Role]struct{}{
	RoleSysSuperAdmin:   {},
	RoleFamilyOwner:     {},
	RoleFamilyAdmin:     {},
	RoleFamilyCaregiver: {},
	RoleFamilyViewer:    {},
	RoleUserSelf:        {},
}

// Persian display names
var RoleDisplayNamesFA = map[Role]string{
	RoleSysSuperAdmin:   "سوپرادمین پلتفرم",
	RoleFamilyOwner:     "مالک گروه خانوادگی",
	RoleFamilyAdmin:     "ادمین گروه خانوادگی",
	RoleFamilyCaregiver: "مراقب",
	RoleFamilyViewer:    "بیننده",
	RoleUserSelf:        "خود کاربر",
}

// Family member role strings (stored in DB family_members.role column)
const (
	FamilyMemberRoleOwner     = "owner"
	FamilyMemberRoleAdmin     = "admin"
	FamilyMemberRoleCaregiver = "caregiver"
	FamilyMemberRoleViewer    = "viewer"
)

// FamilyMemberRoleToRBACRole maps DB role values to Casbin roles
var FamilyMemberRoleToRBACRole = map[string]Role{
	FamilyMemberRoleOwner:     RoleFamilyOwner,
	FamilyMemberRoleAdmin:     RoleFamilyAdmin,
	FamilyMemberRoleCaregiver: RoleFamilyCaregiver,
	FamilyMemberRoleViewer:    RoleFamilyViewer,
}

// ----------------------------
// Domains
// ----------------------------

const (
	DomainSys Domain = "sys"
)

// Domain prefixes (for exact domains we generate per entity)
const (
	DomainPrefixFamily Domain = "family:"
	DomainPrefixUser   Domain = "user:"
)

const (
	WildcardDomain Domain = "*"
)

var (
	reUUID = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)
)

// Domain builders (typed, safe)
func FamilyDomain(familyID string) Domain {
	return Domain(fmt.Sprintf("%s%s", DomainPrefixFamily, familyID))
}

func UserDomain(userID string) Domain {
	return Domain(fmt.Sprintf("%s%s", DomainPrefixUser, userID))
}

// IsValidDomain checks whether d is a recognised domain string.
func IsValidDomain(d Domain) bool {
	if d == DomainSys || d == WildcardDomain {
		return true
	}

	s := string(d)
	switch {
	case len(s) > len(DomainPrefixFamily) && s[:len(DomainPrefixFamily)] == string(DomainPrefixFamily):
		return reUUID.MatchString(s[len(DomainPrefixFamily):])
	case len(s) > len(DomainPrefixUser) && s[:len(DomainPrefixUser)] == string(DomainPrefixUser):
		return reUUID.MatchString(s[len(DomainPrefixUser):])
	default:
		return false
	}
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// GroupSubject is the g.sub in Casbin: a concrete principal id (user_id).
type GroupSubject string

// Grouping rows: g, user_id, role, domain
type GroupingPolicy struct {
	Subject GroupSubject
	Role    Role
	Domain  Domain
}

// Permission rows: p, role, domain, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Domain  Domain
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
