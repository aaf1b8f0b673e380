package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ludo-technologies/genlower/domain"
)

// OutputFormatterImpl renders a domain.LowerResponse as text or JSON, the
// two formats `genlower lower` and `genlower check` support directly (DOT
// goes through DOTFormatter instead, since it renders one function's case
// graph rather than a whole batch response).
type OutputFormatterImpl struct{}

// NewOutputFormatter creates an OutputFormatterImpl.
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// WriteJSON marshals data as indented JSON to writer.
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Write renders response in format to writer.
func (f *OutputFormatterImpl) Write(response *domain.LowerResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatText:
		return f.writeText(response, writer)
	default:
		return fmt.Errorf("unsupported output format for lower response: %s", format)
	}
}

func (f *OutputFormatterImpl) writeText(response *domain.LowerResponse, writer io.Writer) error {
	s := response.Summary
	fmt.Fprintf(writer, "genlower %s\n\n", response.Version)
	fmt.Fprintf(writer, "Files processed:     %d\n", s.FilesProcessed)
	fmt.Fprintf(writer, "Generator functions: %d found, %d lowered, %d failed\n", s.FunctionsFound, s.FunctionsLowered, s.FunctionsFailed)
	fmt.Fprintf(writer, "Total cases emitted: %d\n", s.TotalCases)
	fmt.Fprintf(writer, "Duration:            %dms\n\n", response.DurationMs)

	for _, result := range response.Results {
		fmt.Fprintf(writer, "%s\n", result.FilePath)
		for _, fn := range result.Functions {
			status := "lowered"
			if !fn.Lowered {
				status = "failed"
			}
			fmt.Fprintf(writer, "  %s (line %d): %s, %d cases\n", fn.Name, fn.StartLine, status, len(fn.CaseIDs))
		}
		for _, d := range result.Diagnostics {
			fmt.Fprintf(writer, "  %s: %s: %s\n", d.Severity, functionLabel(d.Function), d.Message)
		}
		fmt.Fprintln(writer)
	}

	if s.FunctionsFailed > 0 {
		fmt.Fprintf(writer, "%d function(s) could not be lowered; see diagnostics above.\n", s.FunctionsFailed)
	}
	return nil
}

func functionLabel(name string) string {
	if name == "" {
		return "<anonymous>"
	}
	return name
}

// WriteCheck renders a domain.CheckResult as text or JSON for `genlower check`.
func (f *OutputFormatterImpl) WriteCheck(result *domain.CheckResult, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, result)
	case domain.OutputFormatText:
		return f.writeCheckText(result, writer)
	default:
		return fmt.Errorf("unsupported output format for check result: %s", format)
	}
}

func (f *OutputFormatterImpl) writeCheckText(result *domain.CheckResult, writer io.Writer) error {
	status := "PASS"
	if !result.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(writer, "genlower check: %s\n\n", status)
	fmt.Fprintf(writer, "Files analyzed:      %d\n", result.Summary.FilesAnalyzed)
	fmt.Fprintf(writer, "Generator functions: %d found, %d lowered\n", result.Summary.FunctionsFound, result.Summary.FunctionsLowered)

	if len(result.Violations) == 0 {
		fmt.Fprintln(writer, "\nNo violations.")
		return nil
	}

	fmt.Fprintf(writer, "\n%d violation(s):\n", len(result.Violations))
	for _, v := range result.Violations {
		loc := v.Location
		if loc != "" {
			loc = " (" + loc + ")"
		}
		fmt.Fprintf(writer, "  [%s/%s] %s%s: %s\n", v.Category, v.Rule, strings.ToUpper(v.Severity), loc, v.Message)
	}
	return nil
}
