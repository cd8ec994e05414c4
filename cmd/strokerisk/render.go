package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nyashahama/stroke-risk-backend/internal/scoring"
)

var (
	colorLow      = lipgloss.Color("#2ECC71")
	colorModerate = lipgloss.Color("#F4D03F")
	colorHigh     = lipgloss.Color("#E67E22")
	colorCritical = lipgloss.Color("#E74C3C")
	colorMuted    = lipgloss.Color("#7F8C8D")
)

var styles = struct {
	title   lipgloss.Style
	bold    lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	box     lipgloss.Style
}{
	title:   lipgloss.NewStyle().Bold(true),
	bold:    lipgloss.NewStyle().Bold(true),
	muted:   lipgloss.NewStyle().Foreground(colorMuted),
	warning: lipgloss.NewStyle().Foreground(colorCritical).Bold(true),
	box:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
}

func levelColor(l scoring.RiskLevel) lipgloss.Color {
	switch l {
	case scoring.LevelModerate:
		return colorModerate
	case scoring.LevelHigh:
		return colorHigh
	case scoring.LevelCritical:
		return colorCritical
	}
	return colorLow
}

// renderResult formats a RiskResult for the terminal. Colours are dropped
// automatically when stdout is not a terminal.
func renderResult(res scoring.RiskResult) string {
	color := levelColor(res.RiskLevel)

	var head strings.Builder
	head.WriteString(styles.title.Render("Stroke risk assessment") + "\n\n")
	head.WriteString(fmt.Sprintf("Risk level:      %s\n",
		lipgloss.NewStyle().Bold(true).Foreground(color).Render(res.RiskLevel.Label())))
	head.WriteString(fmt.Sprintf("Six-month risk:  %.1f%%\n", res.SixMonthRisk))
	head.WriteString(fmt.Sprintf("Composite score: %d\n", res.CompositeScore))
	if res.BMICategory == scoring.BMIInsufficientData {
		head.WriteString("BMI:             " + res.BMICategory.Label())
	} else {
		head.WriteString(fmt.Sprintf("BMI:             %.1f (%s)", res.BMI, res.BMICategory.Label()))
	}
	if t := res.ABCD2; t != nil {
		head.WriteString(fmt.Sprintf("\nABCD2:           %d (2-day %.1f%%, 7-day %.1f%%)", t.Score, t.TwoDayRisk, t.SevenDayRisk))
	}
	if a := res.CHA2DS2VASc; a != nil {
		head.WriteString(fmt.Sprintf("\nCHA2DS2-VASc:    %d (annual %.1f%%)", a.Score, a.AnnualRisk))
	}

	var b strings.Builder
	b.WriteString(styles.box.BorderForeground(color).Render(head.String()))
	b.WriteString("\n")

	if len(res.WarningFlags) > 0 {
		b.WriteString("\n" + styles.bold.Render("Warnings") + "\n")
		for _, w := range res.WarningFlags {
			b.WriteString("  " + styles.warning.Render("! "+w) + "\n")
		}
	}

	if len(res.RiskFactors) > 0 {
		b.WriteString("\n" + styles.bold.Render("Contributing factors") + "\n")
		for _, f := range res.RiskFactors {
			b.WriteString(fmt.Sprintf("  - %s %s\n", f.Label, styles.muted.Render(fmt.Sprintf("(+%d)", f.Points))))
		}
	}

	b.WriteString("\n" + styles.bold.Render("Recommendations") + "\n")
	for _, r := range res.Recommendations {
		b.WriteString("  - " + r + "\n")
	}

	return b.String()
}
