package theme

import (
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// defaultTextSize is Fyne's own text size, used to scale the editor font setting
const defaultTextSize = 14

// VariantByName maps the settings theme name to a Fyne variant; anything
// other than "light" is dark
func VariantByName(name string) fyne.ThemeVariant {
	if strings.EqualFold(name, "light") {
		return theme.VariantLight
	}
	return theme.VariantDark
}

// AppTheme pins the light or dark variant chosen in settings and scales text
type AppTheme struct {
	Variant  fyne.ThemeVariant
	TextSize float32
}

// NewAppTheme creates a theme for the given variant and text size
func NewAppTheme(variant fyne.ThemeVariant, textSize int) *AppTheme {
	if textSize <= 0 {
		textSize = defaultTextSize
	}
	return &AppTheme{Variant: variant, TextSize: float32(textSize)}
}

func (m *AppTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (m *AppTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

// Color ignores the system variant in favour of the configured one
func (m *AppTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, m.Variant)
}

func (m *AppTheme) Size(name fyne.ThemeSizeName) float32 {
	size := theme.DefaultTheme().Size(name)
	if name == theme.SizeNameText && m.TextSize > 0 {
		return m.TextSize
	}
	return size
}

func (m *AppTheme) ApplyTheme(a fyne.App) {
	a.Settings().SetTheme(m)
	a.SetIcon(theme.ComputerIcon())
}
