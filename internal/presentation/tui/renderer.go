package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/atelier/pkg/compose"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWidth = 100

// NewRenderer returns a function that renders markdown for f. Styled
// output is only used when f is a terminal; otherwise markdown passes
// through unchanged.
func NewRenderer(f *os.File) func(string) (string, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	width := defaultWidth
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return r.Render
}

// PlanMarkdown describes a layer plan as a markdown document.
func PlanMarkdown(plan compose.Plan, fingerprint string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Token %d\n\n", plan.TokenID)
	fmt.Fprintf(&b, "- **Generation:** %d\n", plan.Generation)
	fmt.Fprintf(&b, "- **Fingerprint:** `%s`\n", fingerprint)
	fmt.Fprintf(&b, "- **Base:** `%s` (%s)\n", plan.Base.Path, plan.Base.Reason)
	if plan.Serum.Applied != "" {
		fmt.Fprintf(&b, "- **Serum:** %s\n", plan.Serum.Applied)
	}
	if plan.Serum.Failed {
		fmt.Fprintf(&b, "- **Failed serum:** %s\n", plan.Serum.FailedType)
	}
	if plan.SamuraiTop {
		b.WriteString("- **TOP** taken from the SamuraiZERO pool\n")
	}

	b.WriteString("\n## Layers\n\n")
	b.WriteString("| # | Category | Trait | Source | Path | Animated |\n")
	b.WriteString("|---|----------|-------|--------|------|----------|\n")
	for i, l := range plan.Layers {
		animated := ""
		if l.Animated {
			animated = fmt.Sprintf("yes (%d variants)", len(l.Variants))
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | `%s` | %s |\n",
			i+1, l.Category, l.TraitID, l.Source, l.Path, animated)
	}
	return b.String()
}
