package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxl-pharma/crm-api/internal/auth"
	"github.com/nxl-pharma/crm-api/internal/config"
	"github.com/nxl-pharma/crm-api/internal/domain"
	"github.com/nxl-pharma/crm-api/internal/testutil"
)

type authFixture struct {
	svc    *AuthService
	staff  *testutil.StaffRepo
	resets *testutil.PasswordResetRepo
	keys   *testutil.KeyStore
	clock  *testutil.Clock
}

func newAuthFixture(t *testing.T, members ...*domain.StaffMember) *authFixture {
	t.Helper()
	cfg := testConfig()
	f := &authFixture{
		staff:  testutil.NewStaffRepo(members...),
		resets: testutil.NewPasswordResetRepo(),
		clock:  testutil.NewClock(testNow),
	}
	f.keys = testutil.NewKeyStore(f.clock.Now)
	f.svc = NewAuthService(cfg, AuthDependencies{
		StaffRepo:         f.staff,
		PasswordResetRepo: f.resets,
		Keys:              f.keys,
		TokenManager:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		Now:               f.clock.Now,
	})
	return f
}

func TestAuthService_LoginIssuesToken(t *testing.T) {
	member := withPassword(t, newStaff("a1", domain.StaffRoleAdmin), "correct-horse")
	f := newAuthFixture(t, member)

	staff, token, _, err := f.svc.Login(context.Background(), "A1@NXL.example", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "a1", staff.ID)
	require.NotNil(t, staff.LastLoginAt)
	assert.True(t, staff.LastLoginAt.Equal(testNow))

	claims, err := f.svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "a1", claims.Subject)
}

func TestAuthService_LoginFailuresAreGeneric(t *testing.T) {
	f := newAuthFixture(t, withPassword(t, newStaff("a1", domain.StaffRoleAdmin), "correct-horse"))

	_, _, _, wrongPassword := f.svc.Login(context.Background(), "a1@nxl.example", "nope-nope-nope")
	_, _, _, unknownUser := f.svc.Login(context.Background(), "ghost@nxl.example", "correct-horse")

	require.Error(t, wrongPassword)
	require.Error(t, unknownUser)
	assert.Equal(t, "Invalid credentials", wrongPassword.Error())
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestAuthService_LoginThrottle(t *testing.T) {
	f := newAuthFixture(t, withPassword(t, newStaff("a1", domain.StaffRoleAdmin), "correct-horse"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _, _, err := f.svc.Login(ctx, "a1@nxl.example", "wrong-password")
		assert.Equal(t, "UNAUTHORIZED", errCode(err))
	}
	_, _, _, err := f.svc.Login(ctx, "a1@nxl.example", "correct-horse")
	assert.Equal(t, "RATE_LIMITED", errCode(err))

	f.clock.Advance(16 * time.Minute)
	_, _, _, err = f.svc.Login(ctx, "a1@nxl.example", "correct-horse")
	assert.NoError(t, err)
}

func TestAuthService_SuccessfulLoginClearsFailures(t *testing.T) {
	f := newAuthFixture(t, withPassword(t, newStaff("a1", domain.StaffRoleAdmin), "correct-horse"))
	ctx := context.Background()

	_, _, _, _ = f.svc.Login(ctx, "a1@nxl.example", "wrong-password")
	_, _, _, err := f.svc.Login(ctx, "a1@nxl.example", "correct-horse")
	require.NoError(t, err)

	n, err := f.keys.Count(ctx, "login:fail:a1@nxl.example")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuthService_ResetTokenLifecycle(t *testing.T) {
	member := withPassword(t, newStaff("a1", domain.StaffRoleAdmin), "correct-horse")
	f := newAuthFixture(t, member)
	ctx := context.Background()
	require.NoError(t, f.resets.Create(ctx, &domain.PasswordReset{
		ID: "r1", StaffID: "a1", Token: "tok", ExpiresAt: testNow.Add(time.Hour), CreatedAt: testNow,
	}))

	_, err := f.svc.InspectResetToken(ctx, "unknown")
	assert.Equal(t, "NOT_FOUND", errCode(err))

	info, err := f.svc.InspectResetToken(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, info.Valid)
	assert.Equal(t, member.Email, info.Email)

	assert.Equal(t, "VALIDATION_FAILED", errCode(f.svc.ConfirmPasswordReset(ctx, "tok", "short")))
	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, "tok", "brand-new-pass"))

	_, err = f.svc.InspectResetToken(ctx, "tok")
	assert.Equal(t, "GONE", errCode(err))
	assert.Equal(t, "GONE", errCode(f.svc.ConfirmPasswordReset(ctx, "tok", "another-pass")))

	_, _, _, err = f.svc.Login(ctx, member.Email, "brand-new-pass")
	assert.NoError(t, err)
}

func TestAuthService_ExpiredResetToken(t *testing.T) {
	f := newAuthFixture(t, newStaff("a1", domain.StaffRoleAdmin))
	ctx := context.Background()
	require.NoError(t, f.resets.Create(ctx, &domain.PasswordReset{
		ID: "r1", StaffID: "a1", Token: "tok", ExpiresAt: testNow.Add(time.Hour),
	}))

	f.clock.Advance(time.Hour)
	_, err := f.svc.InspectResetToken(ctx, "tok")
	assert.Equal(t, "GONE", errCode(err))
}

func TestAuthService_ChangePassword(t *testing.T) {
	f := newAuthFixture(t, withPassword(t, newStaff("a1", domain.StaffRoleAdmin), "correct-horse"))
	ctx := context.Background()

	assert.Equal(t, "UNAUTHORIZED", errCode(f.svc.ChangePassword(ctx, "a1", "wrong-password", "next-password")))
	require.NoError(t, f.svc.ChangePassword(ctx, "a1", "correct-horse", "next-password"))

	_, _, _, err := f.svc.Login(ctx, "a1@nxl.example", "next-password")
	assert.NoError(t, err)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	member := newStaff("a1", domain.StaffRoleAdmin)
	f := newAuthFixture(t, member)
	name, on := "  Ana  ", true

	updated, err := f.svc.UpdateProfile(context.Background(), member, ProfileUpdate{Name: &name, Notifications: &on})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.Name)
	assert.True(t, updated.Notifications)

	blank := " "
	_, err = f.svc.UpdateProfile(context.Background(), member, ProfileUpdate{Name: &blank})
	assert.Equal(t, "VALIDATION_FAILED", errCode(err))
}

func TestAuthService_SeedDevAccountOnlyWhenEmpty(t *testing.T) {
	f := newAuthFixture(t)
	seed := config.SeedConfig{DevEmail: "Dev@NXL.example", DevPassword: "bootstrap-pass", DevName: "Dev"}

	created, err := f.svc.SeedDevAccount(context.Background(), seed)
	require.NoError(t, err)
	assert.True(t, created)

	dev, err := f.staff.GetByEmail(context.Background(), "dev@nxl.example")
	require.NoError(t, err)
	assert.Equal(t, domain.StaffRoleDev, dev.Role)

	created, err = f.svc.SeedDevAccount(context.Background(), seed)
	require.NoError(t, err)
	assert.False(t, created)
}
