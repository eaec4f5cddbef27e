package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// stdout receives all user-facing output; logs go to the logger's writer.
var stdout io.Writer = os.Stdout

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // primary
	colorGreen  = lipgloss.Color("35")  // success, cache hits
	colorYellow = lipgloss.Color("220") // warnings
	colorBlue   = lipgloss.Color("75")  // commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // labels
	colorDim    = lipgloss.Color("240") // chrome
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// Status Lines
// =============================================================================

func printLine(icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(stdout, icon.Render(glyph)+" "+msg)
}

func printSuccess(format string, args ...any) {
	printLine(styleIconSuccess, "✓", fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printLine(styleWarning, "!", styleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printLine(styleIconInfo, "›", fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile lists a written file under the preceding status line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render("→")+" "+styleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+styleValue.Render(value))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Stats
// =============================================================================

// runStats summarizes a pack or scroll run. Zero fields are omitted.
type runStats struct {
	items  int
	extent int // main-axis content length in px
	slot   int // slot size in px
	cached bool
}

// String renders the stats as "120 items · 4200px · slot 100px · cached".
func (s runStats) String() string {
	var parts []string
	if s.items > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d items", s.items)))
	}
	if s.extent > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%dpx", s.extent)))
	}
	if s.slot > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("slot %dpx", s.slot)))
	}
	if s.cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, StyleDim.Render("fresh"))
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func printStats(s runStats) {
	fmt.Fprintln(stdout, "  "+s.String())
}

// =============================================================================
// Tables
// =============================================================================

// newTable returns a rounded table with dim borders and a bold header row.
func newTable(headers ...string) *table.Table {
	header := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(StyleDim).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == -1 {
				return header
			}
			return cell
		})
}
