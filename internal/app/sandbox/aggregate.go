package sandbox

// Summary is the aggregated verdict over one run's case results.
type Summary struct {
	Status      string `json:"status"`
	PassedCount int    `json:"passed_count"`
	FailedCount int    `json:"failed_count"`
}

const (
	StatusPassed = "passed"
	StatusFailed = "failed"
)

// Aggregate combines per-case results into a verdict: passed iff every case
// passed. Callers must reject zero-case runs before executing.
func Aggregate(results []CaseResult) Summary {
	summary := Summary{}
	for _, res := range results {
		if res.Passed {
			summary.PassedCount++
		} else {
			summary.FailedCount++
		}
	}
	if summary.FailedCount == 0 && summary.PassedCount > 0 {
		summary.Status = StatusPassed
	} else {
		summary.Status = StatusFailed
	}
	return summary
}

// TotalRuntimeMs sums per-case runtimes for the stored execution record.
func TotalRuntimeMs(results []CaseResult) int {
	total := 0
	for _, res := range results {
		total += res.RuntimeMs
	}
	return total
}
