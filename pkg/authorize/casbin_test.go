package authorize

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func newTestAuthorization(t *testing.T) IAuthorization {
	t.Helper()

	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer failed: %v", err)
	}
	auth, err := NewAuthorization(e)
	if err != nil {
		t.Fatalf("NewAuthorization failed: %v", err)
	}
	return auth
}

func TestNewAuthorization_NilEnforcer(t *testing.T) {
	if _, err := NewAuthorization(nil); err == nil {
		t.Error("Expected error for nil enforcer")
	}
}

func TestEnforce(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	userID := uuid.New().String()
	familyID := uuid.New().String()
	domain := FamilyDomain(familyID)

	if _, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), RoleFamilyCaregiver, domain); err != nil {
		t.Fatalf("Failed to add role: %v", err)
	}
	if _, err := auth.AddPermission(ctx, RoleFamilyCaregiver, domain, ResourceIntake, ActionManage, EffectAllow); err != nil {
		t.Fatalf("Failed to add permission: %v", err)
	}

	tests := []struct {
		name     string
		subject  GroupSubject
		domain   Domain
		resource Resource
		action   Action
		want     bool
		wantErr  bool
	}{
		{
			name:     "allowed when permission exists",
			subject:  GroupSubject(userID),
			domain:   domain,
			resource: ResourceIntake,
			action:   ActionManage,
			want:     true,
		},
		{
			name:     "denied when no permission",
			subject:  GroupSubject(userID),
			domain:   domain,
			resource: ResourceFamilyMember,
			action:   ActionDelete,
			want:     false,
		},
		{
			name:    "error for empty subject",
			subject: "",
			domain:  domain, resource: ResourceIntake, action: ActionRead,
			wantErr: true,
		},
		{
			name:    "error for invalid domain",
			subject: GroupSubject(userID),
			domain:  Domain("invalid"), resource: ResourceIntake, action: ActionRead,
			wantErr: true,
		},
		{
			name:    "error for unknown resource",
			subject: GroupSubject(userID),
			domain:  domain, resource: Resource("unknown"), action: ActionRead,
			wantErr: true,
		},
		{
			name:    "error for unknown action",
			subject: GroupSubject(userID),
			domain:  domain, resource: ResourceIntake, action: Action("unknown"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Enforce(ctx, tt.subject, tt.domain, tt.resource, tt.action)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Enforce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	userID := uuid.New().String()
	familyID := uuid.New().String()
	domain := FamilyDomain(familyID)

	auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), RoleFamilyViewer, domain)
	auth.AddPermission(ctx, RoleFamilyViewer, domain, ResourceVital, ActionRead, EffectAllow)

	t.Run("returns nil when allowed", func(t *testing.T) {
		if err := auth.MustEnforce(ctx, GroupSubject(userID), domain, ResourceVital, ActionRead); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("returns ErrForbidden when denied", func(t *testing.T) {
		err := auth.MustEnforce(ctx, GroupSubject(userID), domain, ResourceVital, ActionDelete)
		if err != ErrForbidden {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})
}

func TestSuperAdminBypass(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	adminID := uuid.New().String()

	if _, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(adminID), RoleSysSuperAdmin, DomainSys); err != nil {
		t.Fatalf("Failed to add superadmin role: %v", err)
	}

	allowed, err := auth.Enforce(ctx, GroupSubject(adminID), DomainSys, ResourceUser, ActionDelete)
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !allowed {
		t.Error("Expected superadmin to be allowed")
	}
}

func TestSeedDefaultPolicies(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	if err := SeedDefaultPolicies(ctx, auth); err != nil {
		t.Fatalf("SeedDefaultPolicies failed: %v", err)
	}

	ownerID := uuid.New().String()
	viewerID := uuid.New().String()
	familyID := uuid.New().String()
	domain := FamilyDomain(familyID)

	auth.AddRoleForUserInDomain(ctx, GroupSubject(ownerID), RoleFamilyOwner, domain)
	auth.AddRoleForUserInDomain(ctx, GroupSubject(viewerID), RoleFamilyViewer, domain)

	t.Run("owner can manage members", func(t *testing.T) {
		ok, err := auth.Enforce(ctx, GroupSubject(ownerID), domain, ResourceFamilyMember, ActionDelete)
		if err != nil {
			t.Fatalf("Enforce failed: %v", err)
		}
		if !ok {
			t.Error("Expected owner to be allowed")
		}
	})

	t.Run("viewer can read vitals", func(t *testing.T) {
		ok, err := auth.Enforce(ctx, GroupSubject(viewerID), domain, ResourceVital, ActionRead)
		if err != nil {
			t.Fatalf("Enforce failed: %v", err)
		}
		if !ok {
			t.Error("Expected viewer to be allowed to read")
		}
	})

	t.Run("viewer cannot delete documents", func(t *testing.T) {
		ok, err := auth.Enforce(ctx, GroupSubject(viewerID), domain, ResourceDocument, ActionDelete)
		if err != nil {
			t.Fatalf("Enforce failed: %v", err)
		}
		if ok {
			t.Error("Expected viewer to be denied")
		}
	})

	t.Run("viewer can send chat messages", func(t *testing.T) {
		ok, err := auth.Enforce(ctx, GroupSubject(viewerID), domain, ResourceChat, ActionCreate)
		if err != nil {
			t.Fatalf("Enforce failed: %v", err)
		}
		if !ok {
			t.Error("Expected viewer to be allowed to chat")
		}
	})

	t.Run("non-member is denied", func(t *testing.T) {
		strangerID := uuid.New().String()
		ok, err := auth.Enforce(ctx, GroupSubject(strangerID), domain, ResourceVital, ActionRead)
		if err != nil {
			t.Fatalf("Enforce failed: %v", err)
		}
		if ok {
			t.Error("Expected non-member to be denied")
		}
	})
}

func TestRoleManagement(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	userID := uuid.New().String()
	familyID := uuid.New().String()
	domain := FamilyDomain(familyID)

	t.Run("add and get roles", func(t *testing.T) {
		added, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), RoleFamilyCaregiver, domain)
		if err != nil {
			t.Errorf("Failed to add role: %v", err)
		}
		if !added {
			t.Error("Expected role to be added")
		}

		roles, err := auth.GetRolesForUserInDomain(ctx, GroupSubject(userID), domain)
		if err != nil {
			t.Errorf("Failed to get roles: %v", err)
		}
		if len(roles) != 1 || roles[0] != RoleFamilyCaregiver {
			t.Errorf("Expected [%q], got %v", RoleFamilyCaregiver, roles)
		}
	})

	t.Run("remove role", func(t *testing.T) {
		removed, err := auth.RemoveRoleForUserInDomain(ctx, GroupSubject(userID), RoleFamilyCaregiver, domain)
		if err != nil {
			t.Errorf("Failed to remove role: %v", err)
		}
		if !removed {
			t.Error("Expected role to be removed")
		}

		roles, _ := auth.GetRolesForUserInDomain(ctx, GroupSubject(userID), domain)
		if len(roles) != 0 {
			t.Errorf("Expected 0 roles after removal, got %d", len(roles))
		}
	})

	t.Run("error for invalid role", func(t *testing.T) {
		if _, err := auth.AddRoleForUserInDomain(ctx, GroupSubject(userID), Role("invalid-role"), domain); err == nil {
			t.Error("Expected error for invalid role")
		}
	})
}

func TestPermissionManagement(t *testing.T) {
	auth := newTestAuthorization(t)
	ctx := context.Background()

	t.Run("add and remove permission", func(t *testing.T) {
		added, err := auth.AddPermission(ctx, RoleFamilyAdmin, DomainSys, ResourceChat, ActionRead, EffectAllow)
		if err != nil {
			t.Errorf("Failed to add permission: %v", err)
		}
		if !added {
			t.Error("Expected permission to be added")
		}

		removed, err := auth.RemovePermission(ctx, RoleFamilyAdmin, DomainSys, ResourceChat, ActionRead, EffectAllow)
		if err != nil {
			t.Errorf("Failed to remove permission: %v", err)
		}
		if !removed {
			t.Error("Expected permission to be removed")
		}
	})

	t.Run("error for invalid effect", func(t *testing.T) {
		if _, err := auth.AddPermission(ctx, RoleFamilyAdmin, DomainSys, ResourceUser, ActionRead, PolicyEffect("invalid")); err == nil {
			t.Error("Expected error for invalid effect")
		}
	})
}
