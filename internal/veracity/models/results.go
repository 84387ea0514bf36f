package models

// Outcome is the result of evaluating one package in a batch. Checks is nil
// exactly when the evaluation itself failed; a package successfully checked
// with zero evidence carries a non-nil zero Checks. The two cases are never
// conflated in statistics or reports.
type Outcome struct {
	Package Package
	Checks  *Checks
}

// Failed reports whether the evaluation of this package errored.
func (o Outcome) Failed() bool {
	return o.Checks == nil
}

// Statistics are the aggregate factor counts over one batch. They are derived
// from the outcomes, never stored independently.
type Statistics struct {
	Total              int
	ProvenanceAttested int
	ReproducibleBuilds int
}

// Results is the product of one batch evaluation: derived statistics plus the
// per-package outcomes in completion order. It is constructed once per batch
// and not mutated afterwards.
type Results struct {
	Statistics Statistics
	Outcomes   []Outcome
}

// Aggregate derives batch statistics from outcomes. Failed outcomes count
// toward Total and toward neither factor count.
func Aggregate(outcomes []Outcome) Results {
	stats := Statistics{Total: len(outcomes)}
	for _, outcome := range outcomes {
		if outcome.Failed() {
			continue
		}
		if outcome.Checks.HasProvenance() {
			stats.ProvenanceAttested++
		}
		if outcome.Checks.HasReproducibility() {
			stats.ReproducibleBuilds++
		}
	}
	return Results{Statistics: stats, Outcomes: outcomes}
}
