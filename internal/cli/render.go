package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/factchecker/claimcheck/internal/models"
	"github.com/fatih/color"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.Faint)
)

func verdictColor(v models.Verdict) *color.Color {
	switch v {
	case models.VerdictTrue:
		return color.New(color.FgGreen, color.Bold)
	case models.VerdictFalse:
		return color.New(color.FgRed, color.Bold)
	case models.VerdictMixed:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgWhite, color.Bold)
	}
}

func labelColor(l models.Label) *color.Color {
	switch l {
	case models.LabelTrue:
		return color.New(color.FgGreen)
	case models.LabelFalse:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

// renderResult prints a human-readable report of one check.
func renderResult(w io.Writer, r *models.CheckResult, cached bool) {
	headingColor.Fprintln(w, "Claim")
	fmt.Fprintf(w, "  %s\n", r.Claim)
	fmt.Fprintf(w, "  Type: %s\n\n", r.ClaimType)

	headingColor.Fprintln(w, "Verdict")
	fmt.Fprint(w, "  ")
	verdictColor(r.Verdict).Fprintf(w, "%s", r.Verdict)
	fmt.Fprintf(w, " (confidence ~%d%%)\n", r.Confidence)
	if r.Synthesis != "" {
		for _, line := range strings.Split(strings.TrimSpace(r.Synthesis), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}
	fmt.Fprintln(w)

	if len(r.Verifications) > 0 {
		headingColor.Fprintln(w, "Assumptions")
		for i, v := range r.Verifications {
			fmt.Fprintf(w, "  %d. ", i+1)
			labelColor(v.Label).Fprintf(w, "[%s]", v.Label)
			fmt.Fprintf(w, " %s\n", v.Assumption)
			if v.Rationale != "" {
				dimColor.Fprintf(w, "     %s\n", v.Rationale)
			}
		}
		fmt.Fprintln(w)
	}

	headingColor.Fprintln(w, "Sources")
	if len(r.Sources) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, s := range r.Sources {
		title := s.Title
		if title == "" {
			title = s.Domain
		}
		fmt.Fprintf(w, "  - %s\n    %s\n", title, s.URL)
		if s.Published != nil {
			dimColor.Fprintf(w, "    published %s\n", *s.Published)
		}
	}

	fmt.Fprintln(w)
	note := fmt.Sprintf("backend: %s, %dms", r.Backend, r.DurationMs)
	if cached {
		note += ", from history (use --fresh to re-check)"
	}
	dimColor.Fprintln(w, note)
}
