package bot_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimchunsik17/yacht-online/internal/game/bot"
)

const validProfileYAML = `
bot:
  id: dicey
  name: Dicey
  greeting: "Dicey joins the table and racks the dice."
  think_delay: 1500ms
  step_delay: 800ms
`

func TestLoadProfileFromBytes(t *testing.T) {
	p, err := bot.LoadProfileFromBytes([]byte(validProfileYAML))
	require.NoError(t, err)
	assert.Equal(t, "dicey", p.ID)
	assert.Equal(t, "Dicey", p.Name)
	assert.Equal(t, 1500*time.Millisecond, p.ThinkDelay)
	assert.Equal(t, 800*time.Millisecond, p.StepDelay)
}

func TestLoadProfileFromBytes_Invalid(t *testing.T) {
	_, err := bot.LoadProfileFromBytes([]byte("bot:\n  name: Nameless\n"))
	assert.Error(t, err, "missing id")

	_, err = bot.LoadProfileFromBytes([]byte("bot:\n  id: x\n  name: X\n  think_delay: soon\n"))
	assert.Error(t, err, "unparseable duration")

	_, err = bot.LoadProfileFromBytes([]byte("bot: ["))
	assert.Error(t, err, "malformed YAML")
}

func TestLoadProfilesFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dicey.yaml"), []byte(validProfileYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	profiles, err := bot.LoadProfilesFromDir(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "dicey", profiles[0].ID)

	_, err = bot.LoadProfilesFromDir(t.TempDir())
	assert.Error(t, err, "empty directory")
}

func TestDefaultProfile(t *testing.T) {
	p := bot.DefaultProfile()
	require.NoError(t, p.Validate())
	assert.NotEmpty(t, p.Greeting)
}
