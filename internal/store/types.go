package store

import "time"

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

type OutcomeStatus string

const (
	// OutcomeApplied means the command changed the game directory.
	OutcomeApplied OutcomeStatus = "applied"
	// OutcomeVerified means an archive command passed every check but the
	// archive itself was left untouched.
	OutcomeVerified OutcomeStatus = "verified"
	OutcomeSkipped  OutcomeStatus = "skipped"
	OutcomeFailed   OutcomeStatus = "failed"
)

type RunInput struct {
	Document   string
	GameDir    string
	ModDir     string
	Components []string
	Commands   int
	Groups     int
}

type Run struct {
	ID         int64
	Document   string
	GameDir    string
	ModDir     string
	Components []string
	Commands   int
	Groups     int
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt *time.Time
}

type Outcome struct {
	CommandID  int
	Kind       string
	Group      int
	Critical   bool
	Status     OutcomeStatus
	Target     string
	Backup     string
	Message    string
	RecordedAt time.Time
}

type SearchResult struct {
	RunID     int64
	CommandID int
	Kind      string
	Status    OutcomeStatus
	Target    string
	Snippet   string
	Score     float64
}
