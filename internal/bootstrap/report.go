package bootstrap

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/climanegocios/platform/pkg/platform/core/metrics"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Name     string
	Phase    string
	Outcome  string // one of the metrics.Outcome* values
	Reason   string // why the step was skipped
	Duration time.Duration
	Err      error
}

// Report lists the step results of one Run.
type Report struct {
	Results []StepResult
}

// Count returns how many steps ended with outcome.
func (r Report) Count(outcome string) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Created returns the names of the steps that created something.
func (r Report) Created() []string {
	var names []string
	for _, res := range r.Results {
		if res.Outcome == metrics.OutcomeCreated {
			names = append(names, res.Name)
		}
	}
	return names
}

// Summary renders the outcome counts on one line.
func (r Report) Summary() string {
	return fmt.Sprintf("created=%d present=%d skipped=%d failed=%d",
		r.Count(metrics.OutcomeCreated),
		r.Count(metrics.OutcomePresent),
		r.Count(metrics.OutcomeSkipped),
		r.Count(metrics.OutcomeFailed))
}

// Print writes the report as an aligned table.
func (r Report) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PHASE\tSTEP\tOUTCOME\tDURATION\tNOTE")
	for _, res := range r.Results {
		note := res.Reason
		if res.Err != nil {
			note = res.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", res.Phase, res.Name, res.Outcome, res.Duration.Round(time.Millisecond), note)
	}
	fmt.Fprintf(tw, "\t\t%s\t\t\n", r.Summary())
	return tw.Flush()
}
