package authorize

import (
	"testing"
)

func TestIsValidDomain(t *testing.T) {
	tests := []struct {
		name     string
		domain   Domain
		expected bool
	}{
		// Valid domains
		{"sys domain", DomainSys, true},
		{"wildcard domain", WildcardDomain, true},
		{"valid family domain", Domain("family:550e8400-e29b-41d4-a716-446655440000"), true},
		{"valid user domain", Domain("user:550e8400-e29b-41d4-a716-446655440000"), true},

		// Invalid domains
		{"empty domain", Domain(""), false},
		{"random string", Domain("random"), false},
		{"family without uuid", Domain("family:"), false},
		{"family with invalid uuid", Domain("family:invalid-uuid"), false},
		{"user without uuid", Domain("user:"), false},
		{"unknown prefix", Domain("clinic:550e8400-e29b-41d4-a716-446655440000"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidDomain(tt.domain)
			if result != tt.expected {
				t.Errorf("IsValidDomain(%q) = %v, want %v", tt.domain, result, tt.expected)
			}
		})
	}
}

func TestFamilyDomain(t *testing.T) {
	familyID := "550e8400-e29b-41d4-a716-446655440000"
	expected := Domain("family:550e8400-e29b-41d4-a716-446655440000")

	if result := FamilyDomain(familyID); result != expected {
		t.Errorf("FamilyDomain(%q) = %q, want %q", familyID, result, expected)
	}
}

func TestUserDomain(t *testing.T) {
	userID := "550e8400-e29b-41d4-a716-446655440000"
	expected := Domain("user:550e8400-e29b-41d4-a716-446655440000")

	if result := UserDomain(userID); result != expected {
		t.Errorf("UserDomain(%q) = %q, want %q", userID, result, expected)
	}
}

func TestFamilyMemberRoleToRBACRole(t *testing.T) {
	tests := []struct {
		dbRole string
		want   Role
	}{
		{FamilyMemberRoleOwner, RoleFamilyOwner},
		{FamilyMemberRoleAdmin, RoleFamilyAdmin},
		{FamilyMemberRoleCaregiver, RoleFamilyCaregiver},
		{FamilyMemberRoleViewer, RoleFamilyViewer},
	}

	for _, tt := range tests {
		if got := FamilyMemberRoleToRBACRole[tt.dbRole]; got != tt.want {
			t.Errorf("FamilyMemberRoleToRBACRole[%q] = %q, want %q", tt.dbRole, got, tt.want)
		}
	}
}

func TestRoleDisplayNamesFA(t *testing.T) {
	for role := range KnownRoles {
		if name, ok := RoleDisplayNamesFA[role]; !ok || name == "" {
			t.Errorf("Expected role %q to have a Persian display name", role)
		}
	}
}
