package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultRunTimeout bounds a whole run when no timeout is configured.
const DefaultRunTimeout = 10 * time.Minute

// ServiceConfig holds Service settings. Zero values use defaults.
type ServiceConfig struct {
	RunTimeout time.Duration // whole-run bound (default: 10m)
	RunWait    time.Duration // wait for an active run; negative rejects immediately (default: 5s)
}

// Service is the entry point for previews and runs.
// It serializes runs through a RunGuard and remembers the last outcome in memory.
type Service struct {
	processor  *Processor
	guard      *RunGuard
	runTimeout time.Duration

	mu   sync.RWMutex
	last *RunStatus
}

// RunStatus is the in-memory snapshot of the most recent run.
type RunStatus struct {
	Trigger    string     `json:"trigger"`
	FinishedAt time.Time  `json:"finishedAt"`
	Result     *RunResult `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// ServiceStatus reports whether a run is active plus the last completed run.
type ServiceStatus struct {
	Running      bool       `json:"running"`
	RunningSince *time.Time `json:"runningSince,omitempty"`
	Last         *RunStatus `json:"last,omitempty"`
}

// NewService creates a Service around an existing Processor.
func NewService(processor *Processor, cfg ServiceConfig) *Service {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	return &Service{
		processor:  processor,
		guard:      NewRunGuard(cfg.RunWait),
		runTimeout: cfg.RunTimeout,
	}
}

// Execute performs one guarded run.
// Returns ErrRunInProgress if another run holds the guard past the wait time.
func (s *Service) Execute(ctx context.Context) (*RunResult, error) {
	trigger := TriggerFromContext(ctx)
	logger := slog.Default().With("trigger", trigger)
	if ip := IPAddressFromContext(ctx); ip != "" {
		logger = logger.With("ip", ip)
	}

	if err := s.guard.Acquire(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			logger.Warn("run rejected: another run is active")
		}
		return nil, err
	}
	defer s.guard.Release()

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	logger.Info("run started")
	result, err := s.processor.Run(runCtx)
	s.remember(trigger, result, err)
	return result, err
}

// Status returns the current run state and last completed run.
func (s *Service) Status() ServiceStatus {
	var st ServiceStatus
	if active, since := s.guard.Active(); active {
		st.Running = true
		st.RunningSince = &since
	}

	s.mu.RLock()
	if s.last != nil {
		last := *s.last
		st.Last = &last
	}
	s.mu.RUnlock()
	return st
}

// WaitForRuns blocks until the active run completes or ctx is cancelled.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.guard.WaitForDrain(ctx)
}

// Processor returns the underlying processor.
func (s *Service) Processor() *Processor {
	return s.processor
}

func (s *Service) remember(trigger string, result *RunResult, err error) {
	status := &RunStatus{
		Trigger:    trigger,
		FinishedAt: time.Now(),
		Result:     result,
	}
	if err != nil {
		status.Error = err.Error()
	}

	s.mu.Lock()
	s.last = status
	s.mu.Unlock()
}
