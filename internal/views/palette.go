package views

import (
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

var profile = termenv.TrueColor

// SetColorProfile tells the views how many colors the terminal has.
func SetColorProfile(p termenv.Profile) {
	profile = p
	lipgloss.SetColorProfile(p)
}

// ansiPalette is used when the terminal only has the basic 16 colors.
var ansiPalette = []string{"9", "11", "10", "14", "12", "13", "3", "6"}

// LayerColor returns the color for a layer color tag. Tags are spread evenly
// around the hue wheel so neighbouring layers are easy to tell apart.
func LayerColor(tag, paletteSize int) lipgloss.TerminalColor {
	if paletteSize < 1 {
		paletteSize = 1
	}
	tag = ((tag % paletteSize) + paletteSize) % paletteSize
	switch profile {
	case termenv.Ascii:
		return lipgloss.NoColor{}
	case termenv.ANSI:
		return lipgloss.Color(ansiPalette[tag%len(ansiPalette)])
	}
	hue := float64(tag) * 360 / float64(paletteSize)
	return lipgloss.Color(colorful.Hsv(hue, 0.55, 0.95).Hex())
}
