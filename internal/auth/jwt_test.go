package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParsePair(t *testing.T) {
	tm := NewTokenManager("acc-secret", "ref-secret", "ledger-backend", time.Minute, time.Hour)

	access, refresh, exp, err := tm.GeneratePair("u-1", "admin")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, isRefresh, err := tm.ParseAny(access)
	require.NoError(t, err)
	assert.False(t, isRefresh)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	claims, isRefresh, err = tm.ParseAny(refresh)
	require.NoError(t, err)
	assert.True(t, isRefresh)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestParseAnyRejectsForeignToken(t *testing.T) {
	tm := NewTokenManager("acc-secret", "ref-secret", "ledger-backend", time.Minute, time.Hour)
	other := NewTokenManager("different", "different2", "ledger-backend", time.Minute, time.Hour)

	access, _, _, err := other.GeneratePair("u-1", "admin")
	require.NoError(t, err)

	_, _, err = tm.ParseAny(access)
	assert.Error(t, err)

	_, _, err = tm.ParseAny("not-a-token")
	assert.Error(t, err)
}
