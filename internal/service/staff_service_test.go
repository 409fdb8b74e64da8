package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/testutil"
)

type staffFixture struct {
	svc    *StaffService
	repo   *testutil.StaffRepo
	resets *testutil.PasswordResetRepo
	mailer *testutil.Mailer
}

func newStaffFixture(members ...*domain.StaffMember) *staffFixture {
	clock := testutil.NewClock(testNow)
	f := &staffFixture{
		repo:   testutil.NewStaffRepo(members...),
		resets: testutil.NewPasswordResetRepo(),
		mailer: &testutil.Mailer{},
	}
	f.svc = NewStaffService(testConfig(), StaffDependencies{
		StaffRepo:         f.repo,
		PasswordResetRepo: f.resets,
		Mailer:            f.mailer,
		Now:               clock.Now,
	})
	return f
}

func TestStaffService_CreateRespectsRoleRules(t *testing.T) {
	superadmin := newStaff("s1", domain.StaffRoleSuperadmin)
	dev := newStaff("d1", domain.StaffRoleDev)
	admin := newStaff("a1", domain.StaffRoleAdmin)
	f := newStaffFixture(superadmin, dev, admin)

	input := func(email string, role domain.StaffRole) StaffCreateInput {
		return StaffCreateInput{Name: "New", Email: email, Password: "long-enough", Role: role}
	}
	tests := []struct {
		name  string
		actor *domain.StaffMember
		role  domain.StaffRole
		code  string
	}{
		{"superadmin creates admin", superadmin, domain.StaffRoleAdmin, ""},
		{"superadmin creates staff", superadmin, domain.StaffRoleStaff, ""},
		{"superadmin cannot create superadmin", superadmin, domain.StaffRoleSuperadmin, "FORBIDDEN"},
		{"superadmin cannot create dev", superadmin, domain.StaffRoleDev, "FORBIDDEN"},
		{"dev creates superadmin", dev, domain.StaffRoleSuperadmin, ""},
		{"dev creates dev", dev, domain.StaffRoleDev, ""},
		{"admin cannot create", admin, domain.StaffRoleStaff, "FORBIDDEN"},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			email := strings.ReplaceAll(tc.name, " ", ".") + string(rune('a'+i)) + "@nxl.example"
			_, err := f.svc.Create(context.Background(), tc.actor, input(email, tc.role))
			assert.Equal(t, tc.code, errCode(err))
		})
	}
}

func TestStaffService_CreateValidatesAndRejectsTakenEmail(t *testing.T) {
	superadmin := newStaff("s1", domain.StaffRoleSuperadmin)
	f := newStaffFixture(superadmin)

	_, err := f.svc.Create(context.Background(), superadmin, StaffCreateInput{Name: "", Email: "x", Password: "short", Role: "boss"})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))

	_, err = f.svc.Create(context.Background(), superadmin, StaffCreateInput{
		Name: "Dup", Email: "S1@nxl.example", Password: "long-enough", Role: domain.StaffRoleStaff,
	})
	assert.Equal(t, "CONFLICT", errCode(err))
}

func TestStaffService_RoleChangeChecksBothRoles(t *testing.T) {
	superadmin := newStaff("s1", domain.StaffRoleSuperadmin)
	admin := newStaff("a1", domain.StaffRoleAdmin)
	other := newStaff("s2", domain.StaffRoleSuperadmin)
	f := newStaffFixture(superadmin, admin, other)

	promote := domain.StaffRoleSuperadmin
	_, err := f.svc.Update(context.Background(), superadmin, "a1", StaffUpdateInput{Role: &promote})
	assert.Equal(t, "FORBIDDEN", errCode(err), "superadmin cannot grant superadmin")

	demote := domain.StaffRoleAdmin
	_, err = f.svc.Update(context.Background(), superadmin, "s2", StaffUpdateInput{Role: &demote})
	assert.Equal(t, "FORBIDDEN", errCode(err), "superadmin cannot touch a peer")

	toStaff := domain.StaffRoleStaff
	updated, err := f.svc.Update(context.Background(), superadmin, "a1", StaffUpdateInput{Role: &toStaff})
	require.NoError(t, err)
	assert.Equal(t, domain.StaffRoleStaff, updated.Role)
}

func TestStaffService_DevSelfProtection(t *testing.T) {
	dev := newStaff("d1", domain.StaffRoleDev)
	otherDev := newStaff("d2", domain.StaffRoleDev)
	f := newStaffFixture(dev, otherDev)

	assert.Equal(t, "FORBIDDEN", errCode(f.svc.Delete(context.Background(), dev, "d1")))

	demote := domain.StaffRoleAdmin
	_, err := f.svc.Update(context.Background(), dev, "d1", StaffUpdateInput{Role: &demote})
	assert.Equal(t, "FORBIDDEN", errCode(err))

	require.NoError(t, f.svc.Delete(context.Background(), dev, "d2"))
	_, err = f.svc.Get(context.Background(), "d2")
	assert.Equal(t, "NOT_FOUND", errCode(err))
}

func TestStaffService_DeleteRemovesResetTokens(t *testing.T) {
	superadmin := newStaff("s1", domain.StaffRoleSuperadmin)
	f := newStaffFixture(superadmin, newStaff("a1", domain.StaffRoleAdmin))

	_, err := f.svc.SendResetLink(context.Background(), superadmin, "a1")
	require.NoError(t, err)
	require.Equal(t, 1, f.resets.Len())

	require.NoError(t, f.svc.Delete(context.Background(), superadmin, "a1"))
	assert.Zero(t, f.resets.Len())
}

func TestStaffService_SendResetLinkMailsAdminURL(t *testing.T) {
	superadmin := newStaff("s1", domain.StaffRoleSuperadmin)
	f := newStaffFixture(superadmin, newStaff("a1", domain.StaffRoleAdmin))

	reset, err := f.svc.SendResetLink(context.Background(), superadmin, "a1")
	require.NoError(t, err)
	assert.True(t, reset.ExpiresAt.Equal(testNow.Add(testConfig().Auth.PasswordResetTTL())))
	assert.NotEmpty(t, reset.Token)

	sent := f.mailer.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"a1@nxl.example"}, sent[0].To)
	assert.Contains(t, sent[0].HTML, "https://admin.nxl.example/reset-password?token="+reset.Token)
}

func TestStaffService_ResetPassword(t *testing.T) {
	superadmin := newStaff("s1", domain.StaffRoleSuperadmin)
	f := newStaffFixture(superadmin, newStaff("a1", domain.StaffRoleAdmin))

	assert.Equal(t, "VALIDATION_FAILED", errCode(f.svc.ResetPassword(context.Background(), superadmin, "a1", "short")))
	require.NoError(t, f.svc.ResetPassword(context.Background(), superadmin, "a1", "long-enough"))

	stored, err := f.repo.GetByID(context.Background(), "a1")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.PasswordHash)
}
