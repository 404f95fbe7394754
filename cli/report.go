package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"payflow/runtime"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

func printReport(w io.Writer, s *runtime.Summary) {
	fmt.Fprintln(w, headerStyle.Render("Run "+s.RunID))

	for _, res := range s.Results {
		if res.Failed() {
			fmt.Fprintf(w, "%s %s (%s): %v\n", failStyle.Render("✗"), res.Name, dimStyle.Render(res.Type), res.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s (%s)\n", okStyle.Render("✓"), res.Name, dimStyle.Render(res.Type))
		for field, value := range res.Outputs {
			fmt.Fprintf(w, "    %s\n", dimStyle.Render(field+" = "+value))
		}
	}

	line := fmt.Sprintf("%d/%d succeeded", s.Succeeded, s.Total)
	if s.AllSucceeded() {
		fmt.Fprintln(w, okStyle.Render(line))
	} else {
		fmt.Fprintln(w, failStyle.Render(line))
	}
}

func printServiceStatus(w io.Writer, name string, err error) {
	if err != nil {
		fmt.Fprintf(w, "%s %s: %v\n", failStyle.Render("✗"), name, err)
		return
	}
	fmt.Fprintf(w, "%s %s: reachable\n", okStyle.Render("✓"), name)
}
