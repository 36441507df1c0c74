package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/denizgursoy/tursu/internal/history"
)

var (
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	undefinedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	faintStyle     = lipgloss.NewStyle().Faint(true)
)

func disableColor() {
	okStyle = lipgloss.NewStyle()
	undefinedStyle = lipgloss.NewStyle()
	failStyle = lipgloss.NewStyle()
	faintStyle = lipgloss.NewStyle()
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case history.StatusOK:
		return okStyle
	case history.StatusUndefined:
		return undefinedStyle
	default:
		return failStyle
	}
}

func problemLine(w io.Writer, status, uri, name, detail string) {
	fmt.Fprintln(w, statusStyle(status).Render(status)+"  "+uri+"  "+name+": "+detail)
}

func loadErrorLine(w io.Writer, err error) {
	fmt.Fprintln(w, failStyle.Render("error")+"  "+err.Error())
}

func scenarioLine(w io.Writer, location, name string) {
	fmt.Fprintln(w, faintStyle.Render(location)+"  "+name)
}

func summaryLine(w io.Writer, total, ok, undefined, ambiguous, broken, loadErrs int) {
	line := fmt.Sprintf("checked %d scenarios: %d ok, %d undefined, %d ambiguous, %d broken",
		total, ok, undefined, ambiguous, broken)
	if loadErrs > 0 {
		line += fmt.Sprintf(", %d files failed to load", loadErrs)
	}
	fmt.Fprintln(w, line)
}
