package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/halotools/internal/halo"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff"))

	Missing = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ff4444"))
)

var paramsHeader = []string{"idx", "time", "center", "rho_peak", "rvir", "mvir", "vcirc_max"}

// ParamsTable renders one line per halo.
func ParamsTable(records []halo.Params) string {
	if len(records) == 0 {
		return Subtle.Render("no halo parameters recorded")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rvir, mvir := "-", "-"
		if r.HasVirial {
			rvir, mvir = fmt.Sprintf("%.4g", r.Rvir), fmt.Sprintf("%.4g", r.Mvir)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.Index),
			fmt.Sprintf("%.4g", r.Time),
			fmt.Sprintf("%.4g,%.4g,%.4g", r.Center[0], r.Center[1], r.Center[2]),
			fmt.Sprintf("%.4g", r.PeakDensity),
			rvir,
			mvir,
			fmt.Sprintf("%.4g", r.VCircMax),
		})
	}

	widths := make([]int, len(paramsHeader))
	for i, h := range paramsHeader {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	lines := []string{HeaderStyle.Render(joinCells(paramsHeader, widths))}
	for _, row := range rows {
		line := joinCells(row, widths)
		if row[4] == "-" {
			lines = append(lines, Missing.Render(line))
		} else {
			lines = append(lines, MetricValue.Render(line))
		}
	}

	title := Title.Render(fmt.Sprintf("Halo parameters (%d)", len(records)))
	return Panel.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{title}, lines...)...))
}

func joinCells(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = c + strings.Repeat(" ", widths[i]-len(c))
	}
	return strings.Join(padded, "  ")
}
