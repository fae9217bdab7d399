package model

import "time"

// Status is the outcome of a scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// FailureClass separates failure kinds so they can be triaged independently.
type FailureClass string

const (
	ClassNone           FailureClass = ""
	ClassAssertion      FailureClass = "assertion"
	ClassServiceError   FailureClass = "service_error"
	ClassLatencySLA     FailureClass = "latency_sla"
	ClassDecodeError    FailureClass = "decode_error"
	ClassTransportError FailureClass = "transport_error"
)

// Diagnostic describes one failed check.
type Diagnostic struct {
	Check         string `json:"check"`
	Expected      string `json:"expected"`
	Actual        string `json:"actual"`
	RelativeError string `json:"relative_error,omitempty"`
	Tolerance     string `json:"tolerance,omitempty"`
	Message       string `json:"message,omitempty"`
}

// ScenarioResult is the persisted record of a scenario run.
type ScenarioResult struct {
	RunID       string       `json:"run_id"`
	ScenarioID  string       `json:"scenario_id"`
	Kind        ScenarioKind `json:"kind"`
	TokenIn     string       `json:"token_in"`
	TokenOut    string       `json:"token_out"`
	Status      Status       `json:"status"`
	Class       FailureClass `json:"class,omitempty"`
	Error       string       `json:"error,omitempty"`
	SkipReason  string       `json:"skip_reason,omitempty"`
	StatusCode  int          `json:"status_code,omitempty"`
	LatencyMs   int64        `json:"latency_ms"`
	Tolerance   string       `json:"tolerance,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	CheckedAt   time.Time    `json:"checked_at"`
}

// RunSummary aggregates results for a run.
type RunSummary struct {
	RunID      string               `json:"run_id"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Total      int                  `json:"total"`
	Passed     int                  `json:"passed"`
	Failed     int                  `json:"failed"`
	Skipped    int                  `json:"skipped"`
	ByClass    map[FailureClass]int `json:"by_class"`
}

// Add folds a result into the summary.
func (s *RunSummary) Add(result ScenarioResult) {
	if s.ByClass == nil {
		s.ByClass = make(map[FailureClass]int)
	}
	s.Total++
	switch result.Status {
	case StatusPassed:
		s.Passed++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
		s.ByClass[result.Class]++
	}
}
