package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxl-pharma/crm-api/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	staff := &domain.StaffMember{ID: "s1", Email: "a@x.com", Name: "Ann", Role: domain.StaffRoleAdmin}

	token, exp, err := tm.GenerateToken(staff)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.Subject)
	assert.Equal(t, domain.StaffRoleAdmin, claims.Role)
	assert.Equal(t, "Ann", claims.Name)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Hour).GenerateToken(&domain.StaffMember{ID: "s1"})
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.GenerateToken(&domain.StaffMember{ID: "s1"})
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Minute).ParseToken(token)
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("changeme1", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "changeme1", hash)
	assert.NoError(t, ComparePassword(hash, "changeme1"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}
