// Package views renders storefront state to a terminal. Components are pure
// consumers of the application: they read snapshots, call container
// operations and keep only ephemeral UI state.
package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Accent      = lipgloss.Color("#8BC34A")
	Primary     = lipgloss.Color("#2196F3")
	Destructive = lipgloss.Color("#e53935")
	Warning     = lipgloss.Color("#FFC107")
	Muted       = lipgloss.Color("#6b7280")
)

// Styles groups the lipgloss styles shared by components.
type Styles struct {
	Title  lipgloss.Style
	Body   lipgloss.Style
	Bold   lipgloss.Style
	Muted  lipgloss.Style
	Price  lipgloss.Style
	Badge  lipgloss.Style
	Toast  lipgloss.Style
	Banner lipgloss.Style
	Card   lipgloss.Style
}

// DefaultStyles returns the storefront palette.
func DefaultStyles() Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(Primary),
		Body:   lipgloss.NewStyle(),
		Bold:   lipgloss.NewStyle().Bold(true),
		Muted:  lipgloss.NewStyle().Foreground(Muted),
		Price:  lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Badge:  lipgloss.NewStyle().Foreground(Accent),
		Toast:  lipgloss.NewStyle().Foreground(Warning),
		Banner: lipgloss.NewStyle().Bold(true).Foreground(Destructive),
		Card:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Muted).Padding(0, 1),
	}
}

func money(amount float64, currency string) string {
	if currency == "" || strings.EqualFold(currency, "USD") {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, strings.ToUpper(currency))
}

func priceRange(min, max float64, currency string) string {
	if max <= min {
		return money(min, currency)
	}
	return money(min, currency) + " - " + money(max, currency)
}
