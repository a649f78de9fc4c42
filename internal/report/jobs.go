package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const MaxAttempts = 3

// Job asks a worker to rebuild one user's report.
type Job struct {
	Period   Period
	UserID   int64
	Attempts int
}

func (j Job) Encode() string {
	return fmt.Sprintf("%s:%d:%d", j.Period, j.UserID, j.Attempts)
}

func DecodeJob(s string) (Job, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Job{}, fmt.Errorf("malformed report job %q", s)
	}

	period, ok := ParsePeriod(parts[0])
	if !ok {
		return Job{}, fmt.Errorf("unknown report period %q", parts[0])
	}

	uid, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Job{}, fmt.Errorf("invalid user id in report job %q: %w", s, err)
	}

	attempts, err := strconv.Atoi(parts[2])
	if err != nil {
		return Job{}, fmt.Errorf("invalid attempt count in report job %q: %w", s, err)
	}

	return Job{Period: period, UserID: uid, Attempts: attempts}, nil
}

type ActiveUsers interface {
	UserIDsActiveSince(ctx context.Context, since time.Time) ([]int64, error)
}

// Queue is a FIFO of encoded jobs. Pop reports false when nothing arrived
// within the timeout.
type Queue interface {
	Push(data string) error
	Pop(timeout time.Duration) (string, bool, error)
	DeadLetter(data string) error
}

type refresher interface {
	Refresh(ctx context.Context, period Period, userID int64) (string, error)
}

// Scheduler fans report jobs out to a queue and works them off.
type Scheduler struct {
	users    ActiveUsers
	queue    Queue
	reporter refresher
	now      func() time.Time
}

func NewScheduler(users ActiveUsers, queue Queue, reporter *Reporter) *Scheduler {
	return &Scheduler{users: users, queue: queue, reporter: reporter, now: time.Now}
}

// Enqueue pushes one job per user with records inside the period.
func (s *Scheduler) Enqueue(ctx context.Context, period Period) (int, error) {
	since := s.now().AddDate(0, 0, -period.Days())
	ids, err := s.users.UserIDsActiveSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("listing active users: %w", err)
	}

	pushed := 0
	for _, id := range ids {
		if err := s.queue.Push(Job{Period: period, UserID: id}.Encode()); err != nil {
			return pushed, fmt.Errorf("pushing report job for user %d: %w", id, err)
		}
		pushed++
	}

	slog.Info("report jobs enqueued", "period", period, "count", pushed)
	return pushed, nil
}

// WorkOne pops a single job and refreshes its report. Failed jobs are
// pushed back until they reach MaxAttempts and then dead-lettered. It
// reports false when the queue stayed empty.
func (s *Scheduler) WorkOne(ctx context.Context, timeout time.Duration) (bool, error) {
	data, ok, err := s.queue.Pop(timeout)
	if err != nil {
		return false, err
	}

	if !ok {
		return false, nil
	}

	job, err := DecodeJob(data)
	if err != nil {
		slog.Error("dropping malformed report job", "data", data, "error", err)
		s.queue.DeadLetter(data)
		return true, nil
	}

	if _, err := s.reporter.Refresh(ctx, job.Period, job.UserID); err != nil {
		job.Attempts++
		if job.Attempts >= MaxAttempts {
			slog.Warn("report job exceeded max retries", "period", job.Period, "user_id", job.UserID, "attempts", job.Attempts)
			s.queue.DeadLetter(job.Encode())
			return true, nil
		}

		slog.Error("error refreshing report, requeueing", "period", job.Period, "user_id", job.UserID, "error", err)
		s.queue.Push(job.Encode())
		return true, nil
	}

	slog.Info("report refreshed", "period", job.Period, "user_id", job.UserID)
	return true, nil
}

// Run works the queue until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, timeout time.Duration) {
	for ctx.Err() == nil {
		if _, err := s.WorkOne(ctx, timeout); err != nil {
			slog.Error("error popping from report queue", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
		}
	}
}
