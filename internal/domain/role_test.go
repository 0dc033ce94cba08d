package domain

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	for in, want := range map[string]Role{
		"admin":   RoleAdmin,
		" Coach ": RoleCoach,
		"ATHLETE": RoleAthlete,
		"parent":  RoleParent,
	} {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "superuser", "member"} {
		if _, err := ParseRole(in); !errors.Is(err, ErrInvalidRole) {
			t.Fatalf("ParseRole(%q) err = %v; want ErrInvalidRole", in, err)
		}
	}
	if got := ErrInvalidRole.Error(); got != "role must be one of: admin, coach, athlete, parent" {
		t.Fatalf("ErrInvalidRole = %q", got)
	}
}

func TestCapabilityTable(t *testing.T) {
	grants := map[Role][]Capability{
		RoleAdmin:   {CapViewAdminPortal, CapReviewApplications, CapManageSessions, CapManageUsers},
		RoleCoach:   {CapViewCoachPortal, CapReviewApplications, CapManageSessions},
		RoleAthlete: {CapViewAthletePortal, CapCheckIn, CapRequestLeave, CapApplyForMembership},
		RoleParent:  {CapViewParentPortal},
	}
	all := []Capability{
		CapViewAdminPortal, CapViewCoachPortal, CapViewAthletePortal, CapViewParentPortal,
		CapCheckIn, CapRequestLeave, CapApplyForMembership,
		CapReviewApplications, CapManageSessions, CapManageUsers,
	}
	for _, r := range Roles {
		if !r.Valid() {
			t.Fatalf("%q should be valid", r)
		}
		granted := map[Capability]bool{}
		for _, c := range grants[r] {
			granted[c] = true
		}
		for _, c := range all {
			if got := r.Can(c); got != granted[c] {
				t.Fatalf("%s.Can(%s) = %v; want %v", r, c, got, granted[c])
			}
		}
	}

	var bogus Role = "root"
	if bogus.Valid() {
		t.Fatalf("bogus role must be invalid")
	}
	for _, c := range all {
		if bogus.Can(c) {
			t.Fatalf("invalid role must not have %s", c)
		}
	}
}

func TestDashboardAndPortals(t *testing.T) {
	if RoleCoach.DashboardPath() != "/coach" || RoleParent.DashboardPath() != "/parent" {
		t.Fatalf("unexpected dashboard paths")
	}
	if Role("").DashboardPath() != LoginPath {
		t.Fatalf("invalid role should land on login")
	}

	root, ok := PortalRoot("/coach/roster")
	if !ok || root != "/coach" {
		t.Fatalf("PortalRoot(/coach/roster) = %q, %v", root, ok)
	}
	if _, ok := PortalRoot("/coaching"); ok {
		t.Fatalf("/coaching must not match the /coach portal")
	}
	if _, ok := PortalRoot("/login"); ok {
		t.Fatalf("/login is not a portal page")
	}

	if !RoleAdmin.CanViewPortal("/admin") || RoleAdmin.CanViewPortal("/athlete") {
		t.Fatalf("admin portal access wrong")
	}
	if !RoleAthlete.CanViewPortal("/athlete") || RoleAthlete.CanViewPortal("/coach") {
		t.Fatalf("athlete portal access wrong")
	}
}
