package engine

import (
	"fmt"
	"io"
	"strings"
)

// Reporter receives the decision trail of a reconciliation as it happens.
type Reporter interface {
	Begin()
	Module(path string)
	Decision(d Decision)
	EndModule(path string)
}

// Discard is a Reporter that prints nothing.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Begin()            {}
func (discard) Module(string)     {}
func (discard) Decision(Decision) {}
func (discard) EndModule(string)  {}

const separator = "===================="

// TextReporter writes the human readable audit trail.
type TextReporter struct {
	w io.Writer
}

func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

func (t *TextReporter) Begin() {
	fmt.Fprintln(t.w, separator)
	fmt.Fprintln(t.w, "== Updating state file")
}

func (t *TextReporter) Module(path string) {
	fmt.Fprintln(t.w, separator)
	fmt.Fprintf(t.w, "== Looking at module: %s\n", path)
}

func (t *TextReporter) Decision(d Decision) {
	fmt.Fprintf(t.w, "[%s] == %s == %s\n", d.Action.Label(), d.Name, d.To)
}

func (t *TextReporter) EndModule(string) {
	fmt.Fprintln(t.w, strings.Repeat("-", len(separator)))
}
