package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// stdout receives all status output. Tests swap it for a buffer.
var stdout io.Writer = os.Stdout

var (
	colorAccent = lipgloss.Color("36")  // teal
	colorOK     = lipgloss.Color("35")  // green
	colorWarn   = lipgloss.Color("220") // amber
	colorBad    = lipgloss.Color("167") // soft red
	colorText   = lipgloss.Color("255")
	colorMuted  = lipgloss.Color("245")
	colorFaint  = lipgloss.Color("240")
)

// Styles shared by the commands.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorAccent)
	StyleDim       = lipgloss.NewStyle().Foreground(colorFaint)
	StyleValue     = lipgloss.NewStyle().Foreground(colorText)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorWarn)
)

var (
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
	styleKey         = lipgloss.NewStyle().Foreground(colorMuted).Width(12)
	styleCached      = lipgloss.NewStyle().Foreground(colorOK)
	styleFresh       = lipgloss.NewStyle().Foreground(colorMuted)
)

// status prefixes
var (
	markSuccess = lipgloss.NewStyle().Foreground(colorOK).Render("✓")
	markError   = lipgloss.NewStyle().Foreground(colorBad).Render("✗")
	markWarning = lipgloss.NewStyle().Foreground(colorWarn).Render("!")
	markInfo    = lipgloss.NewStyle().Foreground(colorMuted).Render("›")
	markFile    = StyleDim.Render("→")
)

func printLine(mark, format string, args ...any) {
	fmt.Fprintln(stdout, mark+" "+fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { printLine(markSuccess, format, args...) }
func printError(format string, args ...any)   { printLine(markError, format, args...) }
func printInfo(format string, args ...any)    { printLine(markInfo, format, args...) }

func printWarning(format string, args ...any) {
	printLine(markWarning, "%s", StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	if path == "-" {
		path = "stdout"
	}
	fmt.Fprintln(stdout, "  "+markFile+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints pattern and hole counts and whether the artifacts came
// from the cache, e.g. "  10 patterns · 20418 holes · cached".
func printStats(patterns, holes int, cached bool) {
	var parts []string
	if patterns > 1 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d patterns", patterns)))
	}
	parts = append(parts, StyleDim.Render(fmt.Sprintf("%d holes", holes)))
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleFresh.Render("fresh"))
	}
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}
