package main

import "github.com/charmbracelet/lipgloss"

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	passStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	fasterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	slowerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// styled renders text with a style unless --no-color is set
func styled(style lipgloss.Style, text string) string {
	if noColor {
		return text
	}
	return style.Render(text)
}

func heading(text string) string {
	return styled(headingStyle, text)
}

// statusStyled colors a comparison status word
func statusStyled(status string) string {
	switch status {
	case "PASS":
		return styled(passStyle, status)
	case "FAIL":
		return styled(failStyle, status)
	case "FASTER":
		return styled(fasterStyle, status)
	case "SLOWER":
		return styled(slowerStyle, status)
	}
	return status
}
