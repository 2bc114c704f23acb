package identity

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "profile.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage_GetMissingKey(t *testing.T) {
	s := openTestStorage(t)

	got, err := s.Get("nope")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteStorage_SetOverwrites(t *testing.T) {
	s := openTestStorage(t)

	require.NoError(t, s.Set("user_name", "Ada"))
	require.NoError(t, s.Set("user_name", "Grace"))

	got, err := s.Get("user_name")
	require.NoError(t, err)
	assert.Equal(t, "Grace", got)
}

func TestBootstrap_MintsStableID(t *testing.T) {
	s := openTestStorage(t)

	first, err := Bootstrap(s)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.Participant.ID, "user_"), "id %q", first.Participant.ID)
	assert.Len(t, first.Participant.ID, len("user_")+8)

	// A second bootstrap against the same storage resolves the same id.
	second, err := Bootstrap(s)
	require.NoError(t, err)
	assert.Equal(t, first.Participant.ID, second.Participant.ID)
}

func TestBootstrap_Defaults(t *testing.T) {
	p, err := Bootstrap(openTestStorage(t))
	require.NoError(t, err)
	assert.Empty(t, p.Participant.DisplayName)
	assert.Equal(t, "en", p.Locale)
}

func TestProfile_WritesPersist(t *testing.T) {
	s := openTestStorage(t)

	p, err := Bootstrap(s)
	require.NoError(t, err)
	require.NoError(t, p.SetDisplayName("Ada"))
	require.NoError(t, p.SetLocale("de"))

	again, err := Bootstrap(s)
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.Participant.DisplayName)
	assert.Equal(t, "de", again.Locale)
}
