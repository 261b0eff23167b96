package theme

import (
	"testing"

	"fyne.io/fyne/v2/theme"
	"github.com/stretchr/testify/assert"
)

func TestAppThemePinsVariant(t *testing.T) {
	dark := NewAppTheme(theme.VariantDark, 0)
	light := NewAppTheme(theme.VariantLight, 18)

	assert.Equal(t,
		theme.DefaultTheme().Color(theme.ColorNameBackground, theme.VariantDark),
		dark.Color(theme.ColorNameBackground, theme.VariantLight))
	assert.Equal(t,
		theme.DefaultTheme().Color(theme.ColorNameBackground, theme.VariantLight),
		light.Color(theme.ColorNameBackground, theme.VariantDark))

	assert.Equal(t, float32(defaultTextSize), dark.Size(theme.SizeNameText))
	assert.Equal(t, float32(18), light.Size(theme.SizeNameText))
	assert.Equal(t, theme.DefaultTheme().Size(theme.SizeNamePadding), light.Size(theme.SizeNamePadding))
}

func TestVariantByName(t *testing.T) {
	assert.Equal(t, theme.VariantLight, VariantByName("light"))
	assert.Equal(t, theme.VariantLight, VariantByName("Light"))
	assert.Equal(t, theme.VariantDark, VariantByName("dark"))
	assert.Equal(t, theme.VariantDark, VariantByName("neon"))
}
