package report

import (
	"sync/atomic"
	"time"
)

// Progress is a point-in-time view of a report run.
type Progress struct {
	Percent     int       `json:"percent"`
	Phase       string    `json:"phase"`
	Description string    `json:"description"`
	Finished    bool      `json:"finished"`
	Details     string    `json:"details,omitempty"`
	Err         error     `json:"-"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Error returns the failure message, if any.
func (p Progress) Error() string {
	if p.Err == nil {
		return ""
	}
	return p.Err.Error()
}

// ProgressStatus is written by the pipeline goroutine and read by pollers.
// Updates replace an immutable snapshot, so neither side blocks, and the
// percentage never decreases within a run.
type ProgressStatus struct {
	state atomic.Pointer[Progress]
}

// NewProgressStatus returns a status at zero percent.
func NewProgressStatus() *ProgressStatus {
	s := &ProgressStatus{}
	s.Reset("")
	return s
}

// Reset starts a new run.
func (s *ProgressStatus) Reset(phase string) {
	s.state.Store(&Progress{Phase: phase, Description: PhaseDescription(phase), UpdatedAt: time.Now()})
}

// Snapshot returns the current progress.
func (s *ProgressStatus) Snapshot() Progress {
	p := s.state.Load()
	if p == nil {
		return Progress{}
	}
	return *p
}

// Percent returns the current percentage.
func (s *ProgressStatus) Percent() int {
	return s.Snapshot().Percent
}

// SetPercent raises the percentage; lower values are ignored.
func (s *ProgressStatus) SetPercent(percent int) {
	s.update(func(p *Progress) { p.Percent = percent })
}

// SetDescription replaces the free-text description of the current phase.
func (s *ProgressStatus) SetDescription(description string) {
	s.update(func(p *Progress) { p.Description = description })
}

// Advance enters phase at percent.
func (s *ProgressStatus) Advance(phase string, percent int) {
	s.update(func(p *Progress) {
		p.Phase = phase
		p.Description = PhaseDescription(phase)
		p.Percent = percent
	})
}

// Finish marks the run complete at 100 percent.
func (s *ProgressStatus) Finish(details string) {
	s.update(func(p *Progress) {
		p.Phase = PhaseDone
		p.Description = PhaseDescription(PhaseDone)
		p.Percent = 100
		p.Finished = true
		p.Details = details
	})
}

// Fail marks the run finished with an error. The percentage is kept.
func (s *ProgressStatus) Fail(err error) {
	s.update(func(p *Progress) {
		p.Finished = true
		p.Err = err
	})
}

func (s *ProgressStatus) update(fn func(*Progress)) {
	for {
		old := s.state.Load()
		next := Progress{}
		if old != nil {
			next = *old
		}
		fn(&next)
		if next.Percent > 100 {
			next.Percent = 100
		}
		if old != nil && next.Percent < old.Percent {
			next.Percent = old.Percent
		}
		next.UpdatedAt = time.Now()
		if s.state.CompareAndSwap(old, &next) {
			return
		}
	}
}

// phasePercent maps done/total onto [start, start+span] using integer division.
func phasePercent(start, span, done, total int) int {
	if total <= 0 {
		return start + span
	}
	return start + (span*done)/total
}
