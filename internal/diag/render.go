package diag

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
)

// Renderer writes reports to a stream, one per line, sorted by file then
// source offset. Color is applied only when enabled (the caller decides,
// typically by sniffing the terminal).
type Renderer struct {
	out     io.Writer
	colored bool

	errFmt  *color.Color
	warnFmt *color.Color
	dim     *color.Color
}

func NewRenderer(out io.Writer, colored bool) *Renderer {
	return &Renderer{
		out:     out,
		colored: colored,
		errFmt:  color.New(color.FgRed, color.Bold),
		warnFmt: color.New(color.FgYellow, color.Bold),
		dim:     color.New(color.Faint),
	}
}

// Render prints every report. The input slice is not mutated.
func (r *Renderer) Render(reports []*Report) {
	sorted := make([]*Report, len(reports))
	copy(sorted, reports)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Span.Path != b.Span.Path {
			return a.Span.Path < b.Span.Path
		}
		return a.Span.Offset < b.Span.Offset
	})
	for _, rep := range sorted {
		r.renderOne(rep)
	}
}

func (r *Renderer) renderOne(rep *Report) {
	sev := rep.Severity.String()
	if r.colored {
		if rep.Severity == SeverityWarning {
			sev = r.warnFmt.Sprint(sev)
		} else {
			sev = r.errFmt.Sprint(sev)
		}
	}
	suffix := "[" + rep.Code + "]"
	if r.colored {
		suffix = r.dim.Sprint(suffix)
	}
	if rep.Span.IsNone() {
		fmt.Fprintf(r.out, "%s: %s %s\n", sev, rep.Message, suffix)
		return
	}
	fmt.Fprintf(r.out, "%s:%d:%d: %s: %s %s\n",
		rep.Span.Path, rep.Span.Line, rep.Span.Col, sev, rep.Message, suffix)
}

// HasErrors reports whether any report is error severity.
func HasErrors(reports []*Report) bool {
	for _, rep := range reports {
		if rep.Severity == SeverityError {
			return true
		}
	}
	return false
}
