package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/picklr-io/tfreconcile/internal/engine"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string, allowed ...string) error {
	if !slices.Contains(allowed, format) {
		return fmt.Errorf("unknown output format %q, expected one of: %s", format, strings.Join(allowed, ", "))
	}
	return nil
}

// writeStructured renders v as indented JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// renderPlanSummary prints the plan summary counts.
func renderPlanSummary(w io.Writer, plan *engine.Plan) {
	s := plan.Summary
	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  Modules:      %d (%d reconciled, %d skipped)\n", s.Modules, s.Reconciled, s.Skipped)
	fmt.Fprintf(w, "  Stay:         %d\n", s.Stay)
	fmt.Fprintf(w, "  Delete:       %d\n", s.Move)
	fmt.Fprintf(w, "  Data:         %d\n", s.Data)
	fmt.Fprintf(w, "  Dependencies: %d added\n", s.Dependencies)
}
