package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/pillbox/pkg/views"
)

// UI styles and layout settings
// Color palette "Blue Moon" from https://gogh-co.github.io/Gogh/
const (
	colorGray     = "#353b52"
	colorWhite    = "#ffffff"
	colorGreen    = "#acfab4"
	colorGreenDim = "#b4c4b4"
	colorRed      = "#e61f44"
	colorRedDim   = "#d06178"
	colorPurple   = "#b9a3eb"
	colorBlue     = "#89ddff"
	colorYellow   = "#ffcb6b"

	clockTickDuration = time.Second

	bordersAndPaddingWidth = 4
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue)).
			Background(lipgloss.Color(colorGray)).
			Padding(0, 2).Align(lipgloss.Center)
	subtitleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(colorBlue))
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray)).
			Background(lipgloss.Color(colorGreen))
	dangerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorGray)).
				Background(lipgloss.Color(colorRed))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWhite))
	textRedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed))
	quoteStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color(colorPurple))

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color(colorGreenDim))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).
			Foreground(lipgloss.Color(colorGray)).
			Background(lipgloss.Color(colorBlue))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorGray))
)

// statusColorize renders text in the colour of a calendar day status:
// green when everything was taken, yellow when partial, red otherwise.
func statusColorize(text string, status views.DayStatus) string {
	switch status {
	case views.StatusAllTaken:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen)).Render(text)
	case views.StatusPartial:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)).Render(text)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorRedDim)).Render(text)
	}
}

// takenMark is the checkbox shown in front of a record.
func takenMark(taken bool) string {
	if taken {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreenDim)).Render("[x]")
	}
	return "[ ]"
}

// Generates pointer symbol when line in focus
func generateLinePointer(isPoint bool, length int) string {
	if isPoint {
		return ">" + strings.Repeat(" ", length-1)
	}
	return strings.Repeat(" ", length)
}

func truncate(text string, width int) string {
	if width <= 3 || lipgloss.Width(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && lipgloss.Width(string(runes))+2 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ".."
}

func confirmOptions(confirmIdx int, yes string) string {
	yesOpt, noOpt := yes, "Cancel"
	if confirmIdx == 0 {
		yesOpt = dangerSelectedStyle.Render(" >" + yesOpt)
		noOpt = inactiveStyle.Render("  " + noOpt)
	} else {
		yesOpt = inactiveStyle.Render("  " + yesOpt)
		noOpt = selectedStyle.Render(" >" + noOpt)
	}
	return fmt.Sprintf("%s\n%s\n\n(enter to confirm, esc to cancel, up/down to switch)", yesOpt, noOpt)
}
