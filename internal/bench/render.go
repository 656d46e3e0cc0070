package bench

import (
	"bytes"
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Render writes the human-readable report. Counts and durations are
// grouped by thousands.
func Render(w io.Writer, r *Report) error {
	p := message.NewPrinter(language.English)
	cfg := r.Config

	var buf bytes.Buffer
	p.Fprintf(&buf, "--- Boundary call overhead (host -> native) ---\n")
	p.Fprintf(&buf, "Run:           %s\n", r.ID)
	if cfg.Label != "" {
		p.Fprintf(&buf, "Label:         %s\n", cfg.Label)
	}
	p.Fprintf(&buf, "Simple calls:  %d\n", cfg.SimpleCalls)
	p.Fprintf(&buf, "Complex calls: %d\n", cfg.ComplexCalls)
	p.Fprintf(&buf, "List size:     %d\n", cfg.ListSize)
	p.Fprintf(&buf, "Workers:       %d\n\n", cfg.Workers)

	p.Fprintf(&buf, "--- Scenario A: integer addition (a + b) ---\n")
	renderComparison(p, &buf, r.Simple, false)

	p.Fprintf(&buf, "--- Scenario B: sum of %d floats ---\n", cfg.ListSize)
	renderComparison(p, &buf, r.Sequence, true)

	p.Fprintf(&buf, "--- Scenario C: time split over %d calls ---\n", r.Split.Calls)
	renderSplit(p, &buf, r.Split)

	_, err := w.Write(buf.Bytes())
	return err
}

func renderComparison(p *message.Printer, w io.Writer, c Comparison, reportSpeedup bool) {
	p.Fprintf(w, "Direct:   %.3f ms\n", millis(c.DirectNanos))
	p.Fprintf(w, "Boundary: %.3f ms\n", millis(c.BoundaryNanos))

	switch {
	case c.DirectNanos == 0 || c.BoundaryNanos == 0:
		p.Fprintf(w, "Comparison: too fast to measure\n\n")
	case reportSpeedup && c.BoundaryFaster():
		p.Fprintf(w, "Comparison: boundary calls are %.2fx faster than direct calls\n\n", 1/c.Factor())
	default:
		p.Fprintf(w, "Comparison: boundary calls are %.2fx slower than direct calls\n\n", c.Factor())
	}
}

func renderSplit(p *message.Printer, w io.Writer, s Split) {
	total, internal, overhead := s.TotalMillis(), s.InternalMillis(), s.OverheadMillis()

	p.Fprintf(w, "Total measured by caller (T_total):    %.3f ms\n", total)
	p.Fprintf(w, "Native internal time     (T_native):   %.3f ms\n", internal)
	p.Fprintf(w, "Boundary overhead        (T_boundary): %.3f ms\n\n", overhead)

	calls := float64(s.Calls)
	p.Fprintf(w, "--- Per call average ---\n")
	p.Fprintf(w, "Average total:    %.6f ms\n", total/calls)
	p.Fprintf(w, "Average native:   %.6f ms\n", internal/calls)
	p.Fprintf(w, "Average overhead: %.6f ms\n", overhead/calls)

	if s.TotalNanos > 0 {
		p.Fprintf(w, "\nNative work is %.2f%% of total time, boundary overhead %.2f%%\n",
			internal/total*100, overhead/total*100)
	}
}

func millis(nanos int64) float64 {
	return float64(nanos) / 1e6
}
