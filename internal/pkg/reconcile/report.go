package reconcile

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Outcome classifies one entity's reconciliation result.
type Outcome string

const (
	// OutcomeUpdate means a record was written, changed or pruned.
	OutcomeUpdate Outcome = "update"
	// OutcomeNoop means the entity was already correct.
	OutcomeNoop Outcome = "noop"
	// OutcomeSkipNoFile means no usable files exist for the entity.
	OutcomeSkipNoFile Outcome = "skip-no-file"
	// OutcomeFailed means this entity errored; the batch continued.
	OutcomeFailed Outcome = "failed"
)

// EntityResult is the per-entity reconciliation outcome.
type EntityResult struct {
	ProductID    uint
	Outcome      Outcome
	CanonicalURL string
	Pruned       int
	Err          error
}

// Report aggregates per-entity results for one batch run.
type Report struct {
	DryRun  bool
	Results []EntityResult
}

// NewReport creates an empty report.
func NewReport(dryRun bool) *Report {
	return &Report{DryRun: dryRun}
}

// Add appends one entity result.
func (r *Report) Add(result EntityResult) {
	r.Results = append(r.Results, result)
}

// Counts returns the number of entities per outcome.
func (r *Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, result := range r.Results {
		counts[result.Outcome]++
	}
	return counts
}

// Print writes the per-entity outcome table and aggregate counts.
func (r *Report) Print(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tOUTCOME\tPRUNED\tCANONICAL\tERROR")
	for _, result := range r.Results {
		errText := ""
		if result.Err != nil {
			errText = result.Err.Error()
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			result.ProductID, result.Outcome, result.Pruned, result.CanonicalURL, errText)
	}
	tw.Flush()

	counts := r.Counts()
	fmt.Fprintf(w, "\n%d products: %d update, %d noop, %d skip-no-file, %d failed\n",
		len(r.Results), counts[OutcomeUpdate], counts[OutcomeNoop],
		counts[OutcomeSkipNoFile], counts[OutcomeFailed])

	if r.DryRun {
		fmt.Fprintln(w, "dry-run: no changes were applied (use --apply to write)")
	}
}
