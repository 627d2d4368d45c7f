package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Each colour has a light and a dark terminal variant.
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#1D6FA5", Dark: "#5FB3E8"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#2F7D5B", Dark: "#7CC9A3"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#B0527A", Dark: "#E38AB0"}
	colorMuted     = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6E7381"}
	colorSuccess   = lipgloss.AdaptiveColor{Light: "#2E8B3E", Dark: "#8BD17C"}
	colorWarning   = lipgloss.AdaptiveColor{Light: "#B7791F", Dark: "#F2C15E"}
	colorError     = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#F0776B"}
	colorFg        = lipgloss.AdaptiveColor{Light: "#20232A", Dark: "#DDE1E8"}
	colorSubtle    = lipgloss.AdaptiveColor{Light: "#C9CDD4", Dark: "#3B4252"}
	colorHighlight = lipgloss.AdaptiveColor{Light: "#5B4BB7", Dark: "#A99BF0"}
)

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	titleStyle     = fg(colorFg).Bold(true)
	subtitleStyle  = fg(colorMuted).Italic(true)
	accentStyle    = fg(colorAccent)
	successStyle   = fg(colorSuccess)
	warningStyle   = fg(colorWarning)
	errorStyle     = fg(colorError).Bold(true)
	mutedStyle     = fg(colorMuted)
	highlightStyle = fg(colorHighlight)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = mutedStyle.Padding(0, 1)

	activeTabStyle = fg(colorPrimary).Bold(true).
			Border(lipgloss.ThickBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 1)
	inactiveTabStyle = mutedStyle.Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(0, 1)
	activePanelStyle = panelStyle.BorderForeground(colorPrimary).Padding(1, 2)

	selectedItemStyle = fg(colorPrimary).Bold(true)
	normalItemStyle   = fg(colorFg)
)

// Timer digits, coloured by state.
var (
	timerStyle        = fg(colorMuted).Bold(true).Align(lipgloss.Center)
	timerRunningStyle = timerStyle.Foreground(colorSuccess)
	timerPausedStyle  = timerStyle.Foreground(colorWarning)
)

// Task rows and report tables.
var (
	doneTaskStyle    = mutedStyle.Strikethrough(true)
	overdueTaskStyle = errorStyle
	activeTaskStyle  = successStyle.Bold(true)
	projectTagStyle  = fg(colorSecondary)

	tableHeaderStyle = fg(colorHighlight).Bold(true)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// barStyles colours successive report bars.
var barStyles = []lipgloss.Style{
	fg(colorPrimary),
	fg(colorSecondary),
	fg(colorAccent),
	fg(colorWarning),
	fg(colorHighlight),
}
