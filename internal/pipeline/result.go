package pipeline

import (
	"time"

	"github.com/lowrydr/tapline/internal/store"
)

// Stage names one step of the update state machine. Transitions are
// strictly forward; a failure freezes the run at its current stage.
type Stage string

const (
	StageIdle        Stage = "idle"
	StageFetching    Stage = "fetching"
	StageDownloading Stage = "downloading"
	StageVerifying   Stage = "verifying"
	StageExtracting  Stage = "extracting"
	StageInstalling  Stage = "installing"
	StageActivating  Stage = "activating"
	StageDone        Stage = "done"
)

// Outcome discriminates the success shapes an operation can produce.
// Failures travel as errors carrying the failing stage.
type Outcome int

const (
	UpToDate Outcome = iota
	Updated
	RolledBack
	Listed
	Compared
)

// Result is the structured answer handed to the CLI layer. Which fields
// are set depends on the outcome.
type Result struct {
	Outcome Outcome

	// Updated / RolledBack
	From string
	To   string

	// Listed
	Records []store.Record

	// Compared
	Diff *Comparison

	// Stale is set when release data came from an expired cache entry
	// because the network was unreachable.
	Stale bool

	// Warnings are non-fatal findings, e.g. no published checksum.
	Warnings []string
}

// Comparison is the dry-run diff between two releases.
type Comparison struct {
	FromTag  string
	ToTag    string
	FromDate time.Time
	ToDate   time.Time
	Notes    string
}
