package notify

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/trezcool/studydash/core/errlog"
)

var (
	destructive = lipgloss.Color("#e53935")
	warning     = lipgloss.Color("#FFC107")
	info        = lipgloss.Color("#2196F3")
	muted       = lipgloss.Color("#8a94a6")

	titleStyle  = lipgloss.NewStyle().Bold(true)
	descStyle   = lipgloss.NewStyle()
	actionStyle = lipgloss.NewStyle().Underline(true)
	hintStyle   = lipgloss.NewStyle().Foreground(muted)
)

func variantColor(v errlog.Variant) lipgloss.Color {
	switch v {
	case errlog.VariantDestructive:
		return destructive
	case errlog.VariantWarning:
		return warning
	default:
		return info
	}
}

func toastStyle(v errlog.Variant) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(variantColor(v)).
		Padding(0, 1).
		Width(48)
}

func pageStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(destructive).
		Padding(1, 4).
		Align(lipgloss.Center)
}
