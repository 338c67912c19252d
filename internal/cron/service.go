// Package cron runs periodic maintenance jobs on cron expressions.
package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc does one run of a job and returns a short result for the log.
type JobFunc func(ctx context.Context) (string, error)

// JobState records the most recent run of a job.
type JobState struct {
	LastRunAt  time.Time `json:"lastRunAt,omitempty"`
	LastStatus string    `json:"lastStatus,omitempty"`
	LastError  string    `json:"lastError,omitempty"`
	Runs       int       `json:"runs"`
}

// Job is a registered job. Expr uses six fields, seconds first.
type Job struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Expr    string   `json:"expr"`
	Enabled bool     `json:"enabled"`
	State   JobState `json:"state"`
	run     JobFunc
}

type Service struct {
	mu       sync.Mutex
	jobs     []*Job
	cron     *rcron.Cron
	entryMap map[string]rcron.EntryID // job ID -> cron entry ID
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cron:     rcron.New(rcron.WithSeconds()),
		entryMap: make(map[string]rcron.EntryID),
		ctx:      context.Background(),
		logger:   logger.Named("cron"),
	}
}

// Start schedules every enabled job and stops when ctx is done.
func (s *Service) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.ctx = runCtx
	s.cancel = cancel
	for _, job := range s.jobs {
		if job.Enabled {
			if err := s.registerJob(job); err != nil {
				s.mu.Unlock()
				cancel()
				return err
			}
		}
	}
	count := len(s.jobs)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("started", zap.Int("jobs", count))

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
	return nil
}

// AddJob validates expr and registers fn under name.
func (s *Service) AddJob(name, expr string, fn JobFunc) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{ID: uuid.NewString(), Name: name, Expr: expr, Enabled: true, run: fn}
	if err := s.registerJob(job); err != nil {
		return Job{}, err
	}
	s.jobs = append(s.jobs, job)
	return *job, nil
}

func (s *Service) registerJob(job *Job) error {
	if _, ok := s.entryMap[job.ID]; ok {
		return nil
	}
	id, err := s.cron.AddFunc(job.Expr, func() { s.executeJob(job.ID) })
	if err != nil {
		return fmt.Errorf("register job %s (%s): %w", job.Name, job.Expr, err)
	}
	s.entryMap[job.ID] = id
	return nil
}

// RunNow runs the named job synchronously, outside its schedule.
func (s *Service) RunNow(name string) error {
	s.mu.Lock()
	var id string
	for _, job := range s.jobs {
		if job.Name == name {
			id = job.ID
			break
		}
	}
	s.mu.Unlock()
	if id == "" {
		return fmt.Errorf("job %s not found", name)
	}
	return s.executeJob(id)
}

func (s *Service) executeJob(id string) error {
	s.mu.Lock()
	var job *Job
	for _, j := range s.jobs {
		if j.ID == id {
			job = j
			break
		}
	}
	ctx := s.ctx
	s.mu.Unlock()
	if job == nil {
		return fmt.Errorf("job %s not found", id)
	}

	s.logger.Debug("executing job", zap.String("name", job.Name))
	result, err := job.run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	job.State.LastRunAt = time.Now()
	job.State.Runs++
	if err != nil {
		job.State.LastStatus = "error"
		job.State.LastError = err.Error()
		s.logger.Warn("job failed", zap.String("name", job.Name), zap.Error(err))
		return err
	}
	job.State.LastStatus = "ok"
	job.State.LastError = ""
	s.logger.Debug("job finished", zap.String("name", job.Name), zap.String("result", truncate(result, 100)))
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		s.logger.Warn("stop timeout waiting for running jobs")
	}
	s.logger.Info("stopped")
}

func (s *Service) RemoveJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, job := range s.jobs {
		if job.ID == id {
			if entryID, ok := s.entryMap[id]; ok {
				s.cron.Remove(entryID)
				delete(s.entryMap, id)
			}
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Service) EnableJob(id string, enabled bool) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if job.ID != id {
			continue
		}
		job.Enabled = enabled
		if enabled {
			if err := s.registerJob(job); err != nil {
				return Job{}, err
			}
		} else if entryID, ok := s.entryMap[id]; ok {
			s.cron.Remove(entryID)
			delete(s.entryMap, id)
		}
		return *job, nil
	}
	return Job{}, fmt.Errorf("job %s not found", id)
}

func (s *Service) ListJobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Job, len(s.jobs))
	for i, job := range s.jobs {
		result[i] = *job
	}
	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
