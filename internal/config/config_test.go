package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/quill/internal/pubsub"
	"github.com/zjrosen/quill/internal/theme"
)

func TestDefaults(t *testing.T) {
	s := Defaults()

	assert.True(t, s.WordWrap)
	assert.True(t, s.HighlightCurrentLine)
	assert.True(t, s.BulletLists)
	assert.True(t, s.NumberedLists)
	assert.True(t, s.Checklists)
	assert.True(t, s.ClickableLinks)
	assert.False(t, s.ShowLineNumbers)
	assert.Equal(t, 4, s.TabWidth)
	assert.Equal(t, theme.VariantSystem, s.Variant())
	assert.Equal(t, theme.PresetDefault, s.Preset())
	require.NoError(t, s.Validate())
}

func TestValidate(t *testing.T) {
	t.Run("rejects zero tab width", func(t *testing.T) {
		s := Defaults()
		s.TabWidth = 0
		assert.Error(t, s.Validate())
	})

	t.Run("rejects unknown appearance", func(t *testing.T) {
		s := Defaults()
		s.Theme.Appearance = "sepia"
		assert.Error(t, s.Validate())
	})

	t.Run("accepts explicit light and dark", func(t *testing.T) {
		for _, v := range []string{"light", "dark", "system"} {
			s := Defaults()
			s.Theme.Appearance = v
			assert.NoError(t, s.Validate(), v)
		}
	})
}

func TestNormalize(t *testing.T) {
	s := Settings{TabWidth: -3, Theme: ThemeSettings{Appearance: "bogus"}}
	n := s.Normalize()

	assert.Equal(t, 1, n.TabWidth)
	assert.Equal(t, theme.VariantSystem, n.Variant())
	assert.Equal(t, string(theme.PresetDefault), n.Theme.Preset)
}

func TestThemeAffecting(t *testing.T) {
	old := Defaults()

	changed := old
	changed.Theme.Preset = string(theme.PresetInk)
	assert.True(t, ThemeAffecting(old, changed))

	changed = old
	changed.Theme.DarkStylesheet = "/tmp/dark.css"
	assert.True(t, ThemeAffecting(old, changed))

	changed = old
	changed.WordWrap = !old.WordWrap
	assert.False(t, ThemeAffecting(old, changed))
}

func TestStoreUpdatePublishesOnChange(t *testing.T) {
	st := NewStore(Defaults())
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := st.Subscribe(ctx)

	got := st.Update(func(s *Settings) { s.TabWidth = 8 })
	assert.Equal(t, 8, got.TabWidth)
	assert.Equal(t, 8, st.Get().TabWidth)

	select {
	case ev := <-events:
		assert.Equal(t, pubsub.UpdatedEvent, ev.Type)
		assert.Equal(t, 8, ev.Payload.TabWidth)
	case <-time.After(time.Second):
		t.Fatal("expected settings event")
	}
}

func TestStoreUpdateNoOpPublishesNothing(t *testing.T) {
	st := NewStore(Defaults())
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := st.Subscribe(ctx)

	st.Update(func(s *Settings) {})

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %v", ev.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	s := Defaults()
	s.TabWidth = 2
	s.ShowLineNumbers = true
	s.Theme.Appearance = "dark"
	s.Theme.Preset = string(theme.PresetInk)
	require.NoError(t, Save(path, s))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), loaded)
}

func TestLoadPartialFileLayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tab_width: 3\n"), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.TabWidth)
	assert.True(t, loaded.WordWrap)
}
