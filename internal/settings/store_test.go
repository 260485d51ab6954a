package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weeklybloom/internal/model"
)

func TestStore_DefaultsWhenMissing(t *testing.T) {
	s, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	got := s.Get()
	assert.Equal(t, "Mon", got.WeekStartsOn)
	assert.True(t, got.Notifications)
	assert.Equal(t, "08:00", got.MorningReminderTime)
}

func TestStore_PutPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)

	in := model.DefaultSettings()
	in.WeekStartsOn = "Sun"
	in.DarkMode = true
	_, err = s.Put(in)
	require.NoError(t, err)

	reopened, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)
	got := reopened.Get()
	assert.Equal(t, "Sun", got.WeekStartsOn)
	assert.True(t, got.DarkMode)
}

func TestStore_NormalizesWeekStart(t *testing.T) {
	s, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	in := model.DefaultSettings()
	in.WeekStartsOn = "Wednesday"
	got, err := s.Put(in)
	require.NoError(t, err)
	assert.Equal(t, "Mon", got.WeekStartsOn)
}

func TestStore_MalformedBlobFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte("!!"), 0o644))

	s, err := NewStore(dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "Mon", s.Get().WeekStartsOn)
}
