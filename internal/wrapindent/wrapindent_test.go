package wrapindent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/quill/internal/surface"
)

func allKinds() Kinds {
	return Kinds{Bullets: true, Ordered: true, Checklists: true}
}

func TestPlainLeadingWhitespace(t *testing.T) {
	ind := Lines("    four\n\tone tab\nnone\n", 4, allKinds())
	require.Len(t, ind, 4)

	assert.Equal(t, surface.Indent{First: 4, Hanging: 4}, ind[0])
	assert.Equal(t, surface.Indent{First: 4, Hanging: 4}, ind[1])
	assert.Equal(t, surface.Indent{First: 0, Hanging: 0}, ind[2])
}

func TestTabWidthExpansion(t *testing.T) {
	ind := Lines("\tx\n", 8, allKinds())
	assert.Equal(t, 8, ind[0].First)

	ind = Lines("\tx\n", 2, allKinds())
	assert.Equal(t, 2, ind[0].First)

	// tab width below the minimum is clamped, not rejected
	ind = Lines("\tx\n", 0, allKinds())
	assert.Equal(t, 1, ind[0].First)
}

func TestBulletHangingIndent(t *testing.T) {
	ind := Lines("- item\n", 4, allKinds())
	assert.Equal(t, surface.Indent{First: 0, Hanging: 2}, ind[0])

	ind = Lines("  - item\n", 4, allKinds())
	assert.Equal(t, surface.Indent{First: 2, Hanging: 4}, ind[0])
}

func TestOrderedHangingIndent(t *testing.T) {
	ind := Lines("12. item\n", 4, allKinds())
	assert.Equal(t, surface.Indent{First: 0, Hanging: 4}, ind[0])
}

func TestCheckboxHangingIndent(t *testing.T) {
	// content starts after "- [x] "
	ind := Lines("- [x] done\n", 4, allKinds())
	assert.Equal(t, surface.Indent{First: 0, Hanging: 6}, ind[0])
}

func TestDisabledKindFallsBackToLeading(t *testing.T) {
	ind := Lines("- item\n", 4, Kinds{})
	assert.Equal(t, surface.Indent{First: 0, Hanging: 0}, ind[0])

	// checkbox line with checklists off but bullets on hangs as a bullet
	ind = Lines("- [ ] todo\n", 4, Kinds{Bullets: true})
	assert.Equal(t, surface.Indent{First: 0, Hanging: 2}, ind[0])
}

func TestListGeometryIgnoresNonListLines(t *testing.T) {
	ind := Lines("- item\nplain continuation\n", 4, allKinds())
	require.Len(t, ind, 3)
	assert.Equal(t, surface.Indent{First: 0, Hanging: 2}, ind[0])
	assert.Equal(t, surface.Indent{First: 0, Hanging: 0}, ind[1])
}
