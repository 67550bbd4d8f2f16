// Package bench measures the labs and renders the numbers: counter
// races, vector kernels, device matmuls, dining philosophers, and ring
// allreduce, each as one row per measurement with a correctness check
// next to the timing.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/muesli/termenv"

	"github.com/parlab-go/parlab/internal/hw"
)

// defaultReps is how often a measurement repeats when the suite does
// not say.
const defaultReps = 5

// Result is one measurement row.
type Result struct {
	Name       string        `json:"name"`
	N          int           `json:"n"`
	Workers    int           `json:"workers,omitempty"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	Throughput float64       `json:"throughput,omitempty"` // items per second
	Correct    bool          `json:"correct"`
	Note       string        `json:"note,omitempty"`
}

// Suite collects results along with the hardware they were measured
// on.
type Suite struct {
	Title     string    `json:"title"`
	Hardware  hw.Info   `json:"hardware"`
	Results   []Result  `json:"results"`
	StartedAt time.Time `json:"started_at"`
	Reps      int       `json:"reps"`
}

// NewSuite probes the host and stamps the start time.
func NewSuite(title string) *Suite {
	return &Suite{
		Title:     title,
		Hardware:  hw.Detect(),
		StartedAt: time.Now(),
		Reps:      defaultReps,
	}
}

// Add appends one result row.
func (s *Suite) Add(r Result) {
	s.Results = append(s.Results, r)
}

// time runs f Reps times after one discarded warmup and returns the
// minimum wall time, the run closest to the noise floor.
func (s *Suite) time(f func()) time.Duration {
	reps := s.Reps
	if reps < 1 {
		reps = defaultReps
	}
	f()
	var best time.Duration
	for i := 0; i < reps; i++ {
		start := time.Now()
		f()
		if d := time.Since(start); i == 0 || d < best {
			best = d
		}
	}
	return best
}

// WriteJSON writes the suite as indented JSON.
func (s *Suite) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("bench: encode suite: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("bench: write %s: %w", path, err)
	}
	return nil
}

// Transcript renders the suite as a table: one aligned row per result
// and a colored verdict line. Styling degrades to plain text when w
// is not a terminal or NO_COLOR is set.
func (s *Suite) Transcript(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w, out.String(s.Title).Bold())
	fmt.Fprintf(w, "%s\n\n", hostLine(s.Hardware))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tN\tWORKERS\tELAPSED\tRATE\tOK\tNOTE")
	for _, r := range s.Results {
		status := "ok"
		if !r.Correct {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\t%s\t%s\n",
			r.Name, cell(r.N), cell(r.Workers),
			r.Elapsed.Round(time.Microsecond),
			humanRate(r.Throughput), status, r.Note)
	}
	tw.Flush()

	bad := 0
	for _, r := range s.Results {
		if !r.Correct {
			bad++
		}
	}
	verdict := out.String(fmt.Sprintf("\n%d measurements, all correct", len(s.Results))).
		Foreground(termenv.ANSIGreen)
	if bad > 0 {
		verdict = out.String(fmt.Sprintf("\n%d measurements, %d incorrect", len(s.Results), bad)).
			Foreground(termenv.ANSIRed)
	}
	fmt.Fprintln(w, verdict)
}

func hostLine(info hw.Info) string {
	model := info.ModelName
	if model == "" {
		model = info.Arch
	}
	return fmt.Sprintf("%s, %d logical CPUs, %d NUMA node(s), %s/%s",
		model, info.LogicalCPUs, max(len(info.NUMANodes), 1), info.OS, info.Arch)
}

func cell(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}

// humanRate renders items/second with a metric prefix.
func humanRate(r float64) string {
	switch {
	case r <= 0:
		return "-"
	case r >= 1e9:
		return fmt.Sprintf("%.2fG/s", r/1e9)
	case r >= 1e6:
		return fmt.Sprintf("%.2fM/s", r/1e6)
	case r >= 1e3:
		return fmt.Sprintf("%.2fK/s", r/1e3)
	default:
		return fmt.Sprintf("%.1f/s", r)
	}
}
