package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	assert.Equal(t, "#7C3AED", string(theme.Primary))
	assert.NotEmpty(t, theme.Error)
	assert.NotEmpty(t, theme.Border)
}

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestPlainStyles_LeaveTextUnchanged(t *testing.T) {
	s := PlainStyles()

	assert.Equal(t, "#1 FORMULA", s.Cell.Render("#1 FORMULA"))
	assert.Equal(t, "warning", s.Warning.Render("warning"))
	assert.NotNil(t, s.Theme())
}
