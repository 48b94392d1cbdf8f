package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginTop(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(24)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	ru1Style     = lipgloss.NewStyle().Foreground(lipgloss.Color("202")).Bold(true)
	ru2Style     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	barFillStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
)

func Title(s string) string { return titleStyle.Render(strings.ToUpper(s)) }

// KV renders one "label  value" report line.
func KV(label, format string, args ...interface{}) string {
	return labelStyle.Render(label) + valueStyle.Render(fmt.Sprintf(format, args...))
}

func Note(format string, args ...interface{}) string {
	return noteStyle.Render(fmt.Sprintf(format, args...))
}

// Species colours the Ru1 and Ru2 labels consistently across reports.
func Species(name string) string {
	switch {
	case strings.HasPrefix(name, "Ru1"):
		return ru1Style.Render(name)
	case strings.HasPrefix(name, "Ru2"):
		return ru2Style.Render(name)
	}
	return name
}

func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}
