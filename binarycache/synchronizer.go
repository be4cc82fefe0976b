package binarycache

import "sync/atomic"

// Synchronizer tracks the install executor's outstanding cache jobs with
// atomic fetch-add semantics (§4.8 "BinaryCacheSynchronizer"), so a
// caller waiting for background precheck/fetch work to drain never has
// to take a lock just to ask "are we done yet."
type Synchronizer struct {
	submitted           int64
	completed           int64
	submissionComplete  int32
}

// SubmitJob records that one more cache job has been handed to a worker
// pool.
func (s *Synchronizer) SubmitJob() { atomic.AddInt64(&s.submitted, 1) }

// CompleteJob records that one submitted job has finished.
func (s *Synchronizer) CompleteJob() { atomic.AddInt64(&s.completed, 1) }

// JobsSubmitted and JobsCompleted report the raw counters, mostly for
// diagnostics.
func (s *Synchronizer) JobsSubmitted() int64 { return atomic.LoadInt64(&s.submitted) }
func (s *Synchronizer) JobsCompleted() int64 { return atomic.LoadInt64(&s.completed) }

// FetchIncompleteMarkSubmissionComplete marks that no further jobs will
// be submitted and returns how many submitted jobs have not yet
// completed; the flag store and the two counter loads are separate atomic
// operations -- the install executor polls this to
// know when it can stop waiting on background cache work (§4.8).
func (s *Synchronizer) FetchIncompleteMarkSubmissionComplete() int64 {
	atomic.StoreInt32(&s.submissionComplete, 1)
	return atomic.LoadInt64(&s.submitted) - atomic.LoadInt64(&s.completed)
}

// SubmissionComplete reports whether FetchIncompleteMarkSubmissionComplete
// has been called.
func (s *Synchronizer) SubmissionComplete() bool {
	return atomic.LoadInt32(&s.submissionComplete) != 0
}
