package service

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ludo-technologies/genlower/domain"
	"github.com/ludo-technologies/genlower/internal/version"
)

// DOTFormatterConfig configures the DOT formatter behavior.
type DOTFormatterConfig struct {
	// ShowLegend includes a legend subgraph explaining edge kinds.
	ShowLegend bool

	// RankDir is the layout direction: TB, LR, BT, RL.
	RankDir string
}

// DefaultDOTFormatterConfig returns a DOTFormatterConfig with sensible defaults.
func DefaultDOTFormatterConfig() *DOTFormatterConfig {
	return &DOTFormatterConfig{
		ShowLegend: true,
		RankDir:    "TB",
	}
}

// DOTFormatter renders the surviving case/address graph of one lowered
// generator function as Graphviz DOT -- the post-collapse structure
// spec.md §4.6 leaves behind: one node per remaining case, a "jumpTo" edge
// per jumpTo/jumpThroughFinallyBlocks case-id argument and a "reference"
// edge per other case-id argument; jumpToEnd and fallthrough add no edge.
type DOTFormatter struct {
	config *DOTFormatterConfig
}

// NewDOTFormatter creates a DOTFormatter with the given configuration.
func NewDOTFormatter(config *DOTFormatterConfig) *DOTFormatter {
	if config == nil {
		config = DefaultDOTFormatterConfig()
	}
	return &DOTFormatter{config: config}
}

// edgeStyles defines the visual style for edges based on the CaseEdge kind.
var edgeStyles = map[string]struct {
	style string
	arrow string
}{
	"jumpTo":    {style: "solid", arrow: "normal"},
	"reference": {style: "dashed", arrow: "empty"},
}

// validRankDirs contains the valid Graphviz rank directions.
var validRankDirs = map[string]bool{
	"TB": true,
	"LR": true,
	"BT": true,
	"RL": true,
}

// FormatFunction formats one function's case graph as DOT and returns the string.
func (f *DOTFormatter) FormatFunction(report *domain.FunctionReport) (string, error) {
	var sb strings.Builder
	if err := f.WriteFunction(report, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteFunction writes one function's case graph as DOT to writer.
func (f *DOTFormatter) WriteFunction(report *domain.FunctionReport, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("nil function report")
	}

	rankDir := f.config.RankDir
	if !validRankDirs[rankDir] {
		rankDir = "TB"
	}

	name := report.Name
	if name == "" {
		name = "anonymous"
	}
	graphName := escapeDOTID(fmt.Sprintf("%s_%d", name, report.StartLine))

	fmt.Fprintf(writer, "// generated by genlower %s\n", version.GetVersion())
	fmt.Fprintf(writer, "digraph %s {\n", graphName)
	fmt.Fprintf(writer, "  rankdir=%s;\n", rankDir)
	fmt.Fprintf(writer, "  label=%q;\n", fmt.Sprintf("%s (%s:%d)", name, report.FilePath, report.StartLine))
	fmt.Fprintln(writer, "  labelloc=t;")
	fmt.Fprintln(writer, "  node [shape=box, style=\"rounded,filled\", fillcolor=\"#E8F0FE\", color=\"#4285F4\"];")
	fmt.Fprintln(writer)

	ids := append([]int{}, report.CaseIDs...)
	sort.Ints(ids)
	for _, id := range ids {
		nodeID := caseNodeID(id)
		fmt.Fprintf(writer, "  %s [label=%q];\n", nodeID, fmt.Sprintf("case %d", id))
	}
	fmt.Fprintln(writer)

	edges := append([]domain.CaseEdge{}, report.Edges...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	for _, e := range edges {
		style := edgeStyles[e.Kind]
		if style.style == "" {
			style = edgeStyles["jumpTo"]
		}
		fmt.Fprintf(writer, "  %s -> %s [style=%s, arrowhead=%s];\n",
			caseNodeID(e.From), caseNodeID(e.To), style.style, style.arrow)
	}

	if f.config.ShowLegend {
		fmt.Fprintln(writer)
		f.writeLegend(writer)
	}

	fmt.Fprintln(writer, "}")
	return nil
}

func caseNodeID(id int) string {
	return fmt.Sprintf("case_%d", id)
}

func (f *DOTFormatter) writeLegend(writer io.Writer) {
	fmt.Fprintln(writer, "  subgraph cluster_legend {")
	fmt.Fprintln(writer, "    label=\"Legend\";")
	fmt.Fprintln(writer, "    style=dashed;")
	fmt.Fprintln(writer, "    legend_jump [label=\"jumpTo\", shape=plaintext];")
	fmt.Fprintln(writer, "    legend_ref [label=\"reference\", shape=plaintext];")
	fmt.Fprintln(writer, "    legend_jump_a [label=\"\", shape=point];")
	fmt.Fprintln(writer, "    legend_jump_b [label=\"\", shape=point];")
	fmt.Fprintln(writer, "    legend_jump_a -> legend_jump_b [style=solid, arrowhead=normal];")
	fmt.Fprintln(writer, "    legend_ref_a [label=\"\", shape=point];")
	fmt.Fprintln(writer, "    legend_ref_b [label=\"\", shape=point];")
	fmt.Fprintln(writer, "    legend_ref_a -> legend_ref_b [style=dashed, arrowhead=empty];")
	fmt.Fprintln(writer, "  }")
}

// escapeDOTID escapes a string for use as a DOT node/graph ID.
func escapeDOTID(id string) string {
	replacer := strings.NewReplacer(
		"/", "__",
		".", "_",
		"-", "_",
		"@", "_at_",
		" ", "_",
		":", "_",
		"(", "_",
		")", "_",
		"[", "_",
		"]", "_",
		"{", "_",
		"}", "_",
	)
	escaped := replacer.Replace(id)

	if len(escaped) > 0 && !isValidDOTIDStart(escaped[0]) {
		escaped = "_" + escaped
	}

	return escaped
}

// isValidDOTIDStart checks if a character can start a DOT ID.
func isValidDOTIDStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}
