package operations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"ertcli/internal/infrastructure"
	"ertcli/internal/report"
	"ertcli/internal/shared/testutil"
)

type JobQueueSuite struct {
	suite.Suite
	store   *MemoryJobStore
	queue   *JobQueue
	handler *testutil.BufferedSlogHandler
	cancel  context.CancelFunc
}

func TestJobQueueSuite(t *testing.T) {
	suite.Run(t, new(JobQueueSuite))
}

func (s *JobQueueSuite) SetupTest() {
	logger, handler := testutil.NewTestLogger(s.T())
	s.handler = handler
	s.store = NewMemoryJobStore()
	s.queue = NewJobQueue(1, 4, s.store, logger)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.queue.Start(ctx)
}

func (s *JobQueueSuite) TearDownTest() {
	s.NoError(s.queue.Stop(5 * time.Second))
	s.cancel()
}

func (s *JobQueueSuite) waitForStatus(id string, status JobStatus) *Job {
	var job *Job
	s.Require().Eventually(func() bool {
		var err error
		job, err = s.queue.GetJob(id)
		return err == nil && job.Status == status
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func (s *JobQueueSuite) TestCompletedJob() {
	runner := newFakeRunner()
	job := &Job{Name: "report.csv"}
	s.Require().NoError(s.queue.Enqueue(context.Background(), job, runner, nil))
	s.NotEmpty(job.ID)

	done := s.waitForStatus(job.ID, JobStatusCompleted)
	s.Equal(100, done.Progress.Percent)
	s.True(done.Progress.Finished)
	s.Require().NotNil(done.Result)
	s.Equal("report.zip", done.Result.ArchiveName)
	s.NotNil(done.StartedAt)
	s.NotNil(done.CompletedAt)
	s.True(s.handler.ContainsMessage("processing job completed"))
}

func (s *JobQueueSuite) TestFailedJob() {
	runner := newFakeRunner()
	runner.err = errWrite
	job := &Job{Name: "report.csv"}
	s.Require().NoError(s.queue.Enqueue(context.Background(), job, runner, nil))

	failed := s.waitForStatus(job.ID, JobStatusFailed)
	s.Equal("disk full", failed.Error)
	s.Nil(failed.Result)
	s.True(s.handler.ContainsMessage("job failed"))
}

func (s *JobQueueSuite) TestPanicMarksJobFailed() {
	runner := newFakeRunner()
	runner.panics = true
	job := &Job{Name: "report.csv"}
	s.Require().NoError(s.queue.Enqueue(context.Background(), job, runner, nil))

	failed := s.waitForStatus(job.ID, JobStatusFailed)
	s.Contains(failed.Error, "panicked")
}

func (s *JobQueueSuite) TestLiveProgressWhileRunning() {
	runner := newFakeRunner()
	runner.release = make(chan struct{})
	job := &Job{Name: "report.csv"}
	s.Require().NoError(s.queue.Enqueue(context.Background(), job, runner, nil))
	<-runner.started

	running := s.waitForStatus(job.ID, JobStatusRunning)
	s.Equal(80, running.Progress.Percent)
	s.Equal(report.PhaseWrite, running.Progress.Phase)

	status, ok := s.queue.ProgressStatus(job.ID)
	s.True(ok)
	s.Same(runner.status, status)

	err := s.queue.CancelJob(job.ID)
	s.True(IsInvalidState(err))
	err = s.queue.RemoveJob(job.ID)
	s.True(IsInvalidState(err))

	close(runner.release)
	s.waitForStatus(job.ID, JobStatusCompleted)
	_, ok = s.queue.ProgressStatus(job.ID)
	s.False(ok)
}

func (s *JobQueueSuite) TestCancelPendingJob() {
	blocker := newFakeRunner()
	blocker.release = make(chan struct{})
	first := &Job{Name: "first"}
	s.Require().NoError(s.queue.Enqueue(context.Background(), first, blocker, nil))
	<-blocker.started

	queued := newFakeRunner()
	second := &Job{Name: "second"}
	s.Require().NoError(s.queue.Enqueue(context.Background(), second, queued, nil))
	s.Require().NoError(s.queue.CancelJob(second.ID))

	close(blocker.release)
	s.waitForStatus(first.ID, JobStatusCompleted)

	cancelled, err := s.queue.GetJob(second.ID)
	s.Require().NoError(err)
	s.Equal(JobStatusCancelled, cancelled.Status)
	s.Equal(int32(0), queued.calls.Load())
}

func (s *JobQueueSuite) TestRemoveFinishedJob() {
	job := &Job{Name: "report.csv"}
	s.Require().NoError(s.queue.Enqueue(context.Background(), job, newFakeRunner(), nil))
	s.waitForStatus(job.ID, JobStatusCompleted)

	s.Require().NoError(s.queue.RemoveJob(job.ID))
	_, err := s.queue.GetJob(job.ID)
	s.True(IsNotFound(err))
	s.True(IsNotFound(s.queue.RemoveJob(job.ID)))
}

func (s *JobQueueSuite) TestTraceIDStoredInMetadata() {
	ctx := infrastructure.WithTraceID(context.Background(), "trace-1")
	job := &Job{Name: "report.csv"}
	s.Require().NoError(s.queue.Enqueue(ctx, job, newFakeRunner(), nil))

	done := s.waitForStatus(job.ID, JobStatusCompleted)
	s.Equal("trace-1", done.Metadata[MetadataTraceID])
}

func (s *JobQueueSuite) TestListJobs() {
	for _, name := range []string{"a", "b"} {
		s.Require().NoError(s.queue.Enqueue(context.Background(), &Job{Name: name}, newFakeRunner(), nil))
	}
	s.Eventually(func() bool {
		jobs, err := s.queue.ListJobs(JobFilter{Status: JobStatusCompleted})
		return err == nil && len(jobs) == 2
	}, 2*time.Second, 10*time.Millisecond)
	s.Equal(1, s.queue.GetQueueStats().Workers)
}

func TestJobQueue_QueueFull(t *testing.T) {
	store := NewMemoryJobStore()
	queue := NewJobQueue(1, 1, store, nil)

	require.NoError(t, queue.Enqueue(context.Background(), &Job{Name: "a"}, newFakeRunner(), nil))
	job := &Job{Name: "b"}
	err := queue.Enqueue(context.Background(), job, newFakeRunner(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)

	stored, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, stored.Status)
	assert.Equal(t, 1, queue.GetQueueStats().Queued)
}

func TestJobQueue_RunCleanup(t *testing.T) {
	store := NewMemoryJobStore()
	queue := NewJobQueue(1, 1, store, nil)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, store.CreateJob(&Job{ID: "old", Status: JobStatusCompleted, CreatedAt: old, CompletedAt: &old}))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- queue.RunCleanup(ctx, 10*time.Millisecond, time.Minute) }()

	assert.Eventually(t, func() bool {
		_, err := store.GetJob("old")
		return IsNotFound(err)
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-errc)
}
