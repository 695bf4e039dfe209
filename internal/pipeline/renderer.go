package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/dialectic/internal/model"
)

// Output formats accepted by Encode
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Renderer writes reports as JSON, YAML and Markdown
type Renderer struct {
	includeFooter bool
	out           io.Writer // summary destination
}

// NewRenderer creates a renderer. A nil out prints summaries to stderr.
func NewRenderer(includeFooter bool, out io.Writer) *Renderer {
	if out == nil {
		out = os.Stderr
	}
	return &Renderer{includeFooter: includeFooter, out: out}
}

// Encode writes v to w in the given format (json or yaml)
func Encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format: %s (supported: json, yaml)", format)
	}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderYAML writes the report as YAML
func (r *Renderer) RenderYAML(report *model.Report, path string) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal YAML: %w", err)
	}
	return writeFile(path, data)
}

// RenderMarkdown writes the report as Markdown
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// RenderLLMMarkdown writes an already rendered narrative
func (r *Renderer) RenderLLMMarkdown(content, path string) error {
	return writeFile(path, []byte(content))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder
	m := report.Metrics

	title := report.Title
	if title == "" {
		title = report.SessionID
	}
	fmt.Fprintf(&b, "# Coherence Report: %s\n\n", title)
	fmt.Fprintf(&b, "- **Session:** `%s`\n", report.SessionID)
	fmt.Fprintf(&b, "- **Computed:** %s\n", report.ComputedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- **Coherence:** %.3f (%s)\n\n", m.Coherence, report.Assessment.Band)

	b.WriteString("## Metrics\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Structural dependency density | %.3f |\n", m.SDD)
	fmt.Fprintf(&b, "| Orphan ratio | %.3f |\n", m.OrphanRatio)
	fmt.Fprintf(&b, "| Core reachability | %.3f |\n", m.CoreReachability)
	fmt.Fprintf(&b, "| Tension resolution rate | %.3f |\n", m.TRR)
	fmt.Fprintf(&b, "| Load-bearing ratio | %.3f |\n", m.LBR)
	fmt.Fprintf(&b, "| Claims | %d |\n", m.ClaimCount)
	fmt.Fprintf(&b, "| Edges | %d |\n", m.EdgeCount)
	fmt.Fprintf(&b, "| Tensions (resolved / accepted / open) | %d / %d / %d |\n\n",
		m.ResolvedCount, m.AcceptedCount, m.UnresolvedCount)

	b.WriteString("## Signals\n\n")
	for _, s := range report.Assessment.Signals {
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", s.Type, s.Severity, s.Description)
	}
	b.WriteString("\n")

	if d := report.Diff; d != nil {
		fmt.Fprintf(&b, "## Change Since Pass `%s`\n\n", d.PreviousPassID)
		b.WriteString("| Metric | Previous | Current | Delta |\n|---|---|---|---|\n")
		row := func(name string, prev, cur, delta float64) {
			fmt.Fprintf(&b, "| %s | %.3f | %.3f | %+.3f |\n", name, prev, cur, delta)
		}
		row("Coherence", d.Previous.Coherence, d.Current.Coherence, d.DeltaCoherence)
		row("SDD", d.Previous.SDD, d.Current.SDD, d.DeltaSDD)
		row("Orphan ratio", d.Previous.OrphanRatio, d.Current.OrphanRatio, d.DeltaOrphanRatio)
		row("Core reachability", d.Previous.CoreReachability, d.Current.CoreReachability, d.DeltaCoreReachability)
		row("TRR", d.Previous.TRR, d.Current.TRR, d.DeltaTRR)
		row("LBR", d.Previous.LBR, d.Current.LBR, d.DeltaLBR)
		b.WriteString("\n")
	}

	b.WriteString("## Strata\n\n")
	if len(report.Strata) == 0 {
		b.WriteString("_No claims._\n\n")
	} else {
		b.WriteString("| Claim | Stratum |\n|---|---|\n")
		for _, e := range report.Strata {
			fmt.Fprintf(&b, "| `%s` | %s |\n", e.ClaimID, e.Stratum)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Orphans\n\n")
	if len(report.Orphans) == 0 {
		b.WriteString("_None._\n")
	} else {
		for _, id := range report.Orphans {
			fmt.Fprintf(&b, "- `%s`\n", id)
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_Generated by dialectic. Metrics describe how claims depend on each other, not whether they are true._\n")
	}
	return b.String()
}

// RenderSummary prints a one-screen summary of the report
func (r *Renderer) RenderSummary(report *model.Report) {
	m := report.Metrics
	w := r.out

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  %s\n", report.Title)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Coherence:   %.3f (%s)\n", m.Coherence, report.Assessment.Band)
	if report.Diff != nil {
		fmt.Fprintf(w, "  Change:      %+.3f since pass %s\n", report.Diff.DeltaCoherence, report.Diff.PreviousPassID)
	}
	fmt.Fprintf(w, "  Claims:      %d (%d orphaned)\n", m.ClaimCount, len(report.Orphans))
	fmt.Fprintf(w, "  Edges:       %d\n", m.EdgeCount)
	fmt.Fprintf(w, "  Tensions:    %d open of %d\n", m.UnresolvedCount, m.TensionCount)
	if core := report.CoreClaimID(); core != "" {
		fmt.Fprintf(w, "  Core claim:  %s\n", core)
	} else {
		fmt.Fprintf(w, "  Core claim:  none\n")
	}
	fmt.Fprintf(w, "\n")

	for _, s := range report.Assessment.Signals {
		if s.Type == model.SignalCoherence {
			continue
		}
		fmt.Fprintf(w, "  [%s] %s\n", s.Severity, s.Description)
	}
	if report.LLM != nil && report.LLM.SummaryMD != "" {
		fmt.Fprintf(w, "\n  LLM summary available (generated content)\n")
	}
	fmt.Fprintf(w, "\n")
}
