package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/dialectic/internal/model"
)

func testReport() *model.Report {
	return &model.Report{
		SessionID:  "s1",
		Title:      "Pricing",
		ComputedAt: testTime,
		Metrics: model.Metrics{
			SDD: 0.1245, OrphanRatio: 0.2, CoreReachability: 0.8, TRR: 1, LBR: 0.6,
			Coherence: 0.613575, ClaimCount: 5, EdgeCount: 3,
		},
		Strata: []model.StratumEntry{
			{ClaimID: "A", Stratum: model.StratumStructural},
			{ClaimID: "C", Stratum: model.StratumCore},
		},
		Orphans: []string{"E"},
		Assessment: model.Assessment{
			Band: model.BandMedium,
			Signals: []model.Signal{
				{Type: model.SignalCoherence, Severity: model.SeverityInfo, Description: "Coherence 0.614"},
				{Type: model.SignalOrphans, Severity: model.SeverityWarning, Description: "20% of claims are orphaned"},
			},
		},
	}
}

func TestEncode(t *testing.T) {
	report := testReport()

	var jsonOut bytes.Buffer
	if err := Encode(&jsonOut, "json", report); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !strings.Contains(jsonOut.String(), `"coreReachability": 0.8`) {
		t.Errorf("Expected indented camelCase JSON, got:\n%s", jsonOut.String())
	}

	var yamlOut bytes.Buffer
	if err := Encode(&yamlOut, "yaml", report); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(yamlOut.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid YAML: %v", err)
	}
	if decoded["sessionId"] != "s1" {
		t.Errorf("Expected sessionId in YAML, got %v", decoded["sessionId"])
	}

	if err := Encode(&bytes.Buffer{}, "xml", report); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestRenderer_Markdown(t *testing.T) {
	r := NewRenderer(true, nil)
	md := r.Markdown(testReport())

	for _, want := range []string{
		"# Coherence Report: Pricing",
		"**Coherence:** 0.614 (medium)",
		"| Core reachability | 0.800 |",
		"- **orphans** (warning)",
		"| `C` | CORE |",
		"- `E`",
		"not whether they are true",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected Markdown to contain %q", want)
		}
	}
	if strings.Contains(md, "Change Since Pass") {
		t.Error("Expected no diff section without a diff")
	}
}

func TestRenderer_Markdown_DiffNoFooter(t *testing.T) {
	report := testReport()
	report.Diff = &model.PassDiff{
		PreviousPassID: "p1",
		Previous:       model.Metrics{Coherence: 0.5},
		Current:        report.Metrics,
		DeltaCoherence: 0.113575,
	}

	md := NewRenderer(false, nil).Markdown(report)

	if !strings.Contains(md, "## Change Since Pass `p1`") {
		t.Error("Expected diff section")
	}
	if !strings.Contains(md, "| Coherence | 0.500 | 0.614 | +0.114 |") {
		t.Errorf("Expected coherence delta row, got:\n%s", md)
	}
	if strings.Contains(md, "Generated by dialectic") {
		t.Error("Expected no footer")
	}
}

func TestRenderer_RenderYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := NewRenderer(true, nil).RenderYAML(testReport(), path); err != nil {
		t.Fatalf("RenderYAML failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "band: medium") {
		t.Errorf("Expected band in YAML, got:\n%s", data)
	}
}

func TestRenderer_RenderSummary(t *testing.T) {
	var out bytes.Buffer
	report := testReport()
	report.Diff = &model.PassDiff{PreviousPassID: "p1", DeltaCoherence: -0.1}

	NewRenderer(true, &out).RenderSummary(report)

	s := out.String()
	for _, want := range []string{"Pricing", "Coherence:   0.614 (medium)", "-0.100 since pass p1", "Core claim:  C", "[warning] 20% of claims"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, s)
		}
	}
	if strings.Contains(s, "Coherence 0.614") {
		t.Error("Expected the coherence signal itself to be omitted")
	}
}
