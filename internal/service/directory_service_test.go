package service_test

import (
	"context"
	"testing"

	"edu_admin_backend/internal/model"
	"edu_admin_backend/internal/service"
)

func TestDirectoryFallbacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n, err := f.directory.GroupMemberCount(ctx, "nobody")
	if err != nil || n != 10 {
		t.Fatalf("GroupMemberCount fallback = %d, %v", n, err)
	}
	n, err = f.directory.CompanyEmployeeCount(ctx, "nobody")
	if err != nil || n != 100 {
		t.Fatalf("CompanyEmployeeCount fallback = %d, %v", n, err)
	}
	name, err := f.directory.ResolveUserName(ctx, "u-42")
	if err != nil || name != "u-42" {
		t.Fatalf("ResolveUserName fallback = %q, %v", name, err)
	}

	if _, err := f.directory.UpsertGroup(ctx, "g", service.GroupRequest{Name: "Ops", MemberCount: 3}); err != nil {
		t.Fatalf("UpsertGroup: %v", err)
	}
	n, _ = f.directory.GroupMemberCount(ctx, "g")
	if n != 3 {
		t.Fatalf("GroupMemberCount = %d, want 3", n)
	}
}

func TestResolveTargetKeepsGivenName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.directory.UpsertCompany(ctx, "c", service.CompanyRequest{Name: "Acme", EmployeeCount: 5}); err != nil {
		t.Fatalf("UpsertCompany: %v", err)
	}

	target, n, err := f.directory.ResolveTarget(ctx, model.Target{Type: model.TargetCompany, ID: "c", Name: "Acme Japan"})
	if err != nil {
		t.Fatalf("ResolveTarget: %v", err)
	}
	if n != 5 || target.Name != "Acme Japan" {
		t.Fatalf("got %+v with %d participants", target, n)
	}
}

func TestUpsertValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.directory.UpsertGroup(ctx, "g", service.GroupRequest{Name: "x", MemberCount: -1})
	expectField(t, err, "memberCount")
	_, err = f.directory.UpsertCompany(ctx, "c", service.CompanyRequest{})
	expectField(t, err, "name")
	_, err = f.directory.UpsertUser(ctx, "u", service.UserRequest{})
	expectField(t, err, "name")
}
