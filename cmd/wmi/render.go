package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmc31a42/WargameModInstaller/internal/command"
	"github.com/dmc31a42/WargameModInstaller/internal/plan"
	"github.com/dmc31a42/WargameModInstaller/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	groupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208"))

	statusStyles = map[store.OutcomeStatus]lipgloss.Style{
		store.OutcomeApplied:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		store.OutcomeVerified: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		store.OutcomeSkipped:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		store.OutcomeFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

func renderPlan(w io.Writer, groups []plan.Group) {
	summary := plan.Summarize(groups)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%d commands in %d groups", summary.Commands, summary.Groups)))
	if len(groups) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Nothing to install."))
		return
	}

	for i, group := range groups {
		fmt.Fprintln(w, groupStyle.Render(groupTitle(i+1, group)))
		for _, cmd := range group.Commands() {
			fmt.Fprintf(w, "  %s\n", describeCommand(cmd))
		}
	}
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("basic %d, archive %d, nested archive %d",
		summary.Basic, summary.Archive, summary.NestedArchive)))
}

func groupTitle(n int, group plan.Group) string {
	title := fmt.Sprintf("%d. %s (priority %d)", n, group.Kind(), group.Priority())
	if targeted, ok := group.(plan.ArchiveTargeted); ok {
		title += " " + targeted.Target().String()
	}
	if nested, ok := group.(*plan.NestedArchiveGroup); ok {
		title += " | " + nested.Container().String()
	}
	return title
}

func describeCommand(cmd command.Command) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("#%d %s", cmd.ID(), cmd.Kind()))
	if sourced, ok := cmd.(command.Sourced); ok {
		parts = append(parts, sourced.Source().String())
	}
	if targeted, ok := cmd.(command.Targeted); ok {
		target := targeted.Target().String()
		if content, ok := cmd.(command.ContentTargeted); ok {
			target += ":" + content.TargetContent().String()
		}
		parts = append(parts, "-> "+target)
	}
	line := strings.Join(parts, " ")
	if cmd.IsCritical() {
		line += " " + criticalStyle.Render("[critical]")
	}
	return line
}

func renderStatus(status store.OutcomeStatus) string {
	style, ok := statusStyles[status]
	if !ok {
		return string(status)
	}
	return style.Render(string(status))
}
