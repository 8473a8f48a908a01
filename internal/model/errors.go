package model

import "errors"

// Sentinel errors for the failure taxonomy. Proposal and evaluation failures
// are recovered locally as skipped iterations; ErrConsecutiveFailures ends
// the run early but still yields the current champion.
var (
	ErrProposalFailed      = errors.New("proposal failed")
	ErrEvaluationFailed    = errors.New("evaluation failed")
	ErrConsecutiveFailures = errors.New("consecutive failure limit exceeded")
)
