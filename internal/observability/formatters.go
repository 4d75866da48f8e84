// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/buyside/internal/campaign"
	"github.com/jonathan/buyside/internal/pipeline"
	"github.com/jonathan/buyside/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of keywords to display
	maxItemsToShow = 8
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n > width {
		runes := []rune(s)
		return string(runes[:width-3]) + "..."
	}
	return s + strings.Repeat(" ", width-n)
}

// PrintCampaign outputs a human-readable summary of one campaign.
func (p *Printer) PrintCampaign(c *types.Campaign) {
	if c == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:       %s\n", c.ID))
	sb.WriteString(fmt.Sprintf("Budget:   $%d\n", c.Budget))
	sb.WriteString(fmt.Sprintf("Created:  %s\n", c.CreatedAt.Format("2006-01-02 15:04")))
	sb.WriteString(fmt.Sprintf("Policy:   %s\n", c.ReviewPolicy.Status))
	if c.ReviewPolicy.Reason != "" {
		sb.WriteString(fmt.Sprintf("Reason:   %s\n", c.ReviewPolicy.Reason))
	}
	if c.HasImage() {
		sb.WriteString(fmt.Sprintf("Image:    %s\n", c.AdImageURL))
	}

	sb.WriteString("\nKeywords:\n")
	if len(c.Keywords) == 0 {
		sb.WriteString("  (none)\n")
	}
	for i, k := range c.Keywords {
		if i >= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(c.Keywords)-maxItemsToShow))
			break
		}
		sb.WriteString(fmt.Sprintf("  #%s\n", k))
	}

	sb.WriteString("\nAd text:\n")
	sb.WriteString("  " + c.AdTextContent + "\n")
	if c.SemanticDescription != "" {
		sb.WriteString("\nSemantic description:\n")
		sb.WriteString("  " + c.SemanticDescription + "\n")
	}

	p.printBox(c.Name, sb.String())
}

// PrintCampaignList outputs one line per campaign, newest first.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCampaignList(list []types.Campaign) {
	if len(list) == 0 {
		fmt.Fprintln(p.out, "No campaigns yet.")
		return
	}

	fmt.Fprintf(p.out, "%-36s  %-24s  %10s  %-8s\n", "ID", "NAME", "BUDGET", "POLICY")
	for _, c := range list {
		fmt.Fprintf(p.out, "%-36s  %-24s  %10d  %-8s\n", c.ID, pad(c.Name, 24), c.Budget, c.ReviewPolicy.Status)
	}
}

// PrintStats outputs the dashboard summary.
func (p *Printer) PrintStats(stats campaign.Stats) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Active campaigns:      %d\n", stats.ActiveCampaigns))
	sb.WriteString(fmt.Sprintf("Total budget:          $%d\n", stats.TotalBudget))
	sb.WriteString(fmt.Sprintf("Policy approval rate:  %d%%\n", stats.ApprovalRate))
	p.printBox("Dashboard", sb.String())
}

// PrintProgress outputs one pipeline progress line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	fmt.Fprintf(p.out, "Step %d/%d: %s\n", event.Step, event.Total, event.Message)
}
