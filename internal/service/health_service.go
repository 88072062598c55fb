package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"workbench/internal/generate"
)

// ─────────────────────────────────────────────────────────────
// Health Service — periodic generation backend probe
// ─────────────────────────────────────────────────────────────

const EventGenerateHealth = "generate:health"

// HealthChecker is the part of generate.Client the probe needs.
type HealthChecker interface {
	Health(ctx context.Context) (*generate.Health, error)
}

// BackendStatus is the last observed state of the generation backend.
type BackendStatus struct {
	Online    bool      `json:"online"`
	Version   string    `json:"version,omitempty"`
	Model     string    `json:"model,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// HealthService polls the backend on a cron schedule and emits
// generate:health whenever availability changes.
type HealthService struct {
	client  HealthChecker
	emitter EventEmitter

	mu        sync.Mutex
	status    *BackendStatus
	cronSched *cron.Cron
}

// NewHealthService creates a HealthService.
func NewHealthService(client HealthChecker, emitter EventEmitter) *HealthService {
	return &HealthService{client: client, emitter: emitter}
}

// Check probes the backend once.
func (s *HealthService) Check(ctx context.Context) BackendStatus {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st := BackendStatus{CheckedAt: time.Now()}
	if h, err := s.client.Health(ctx); err != nil {
		st.Error = err.Error()
	} else {
		st.Online = h.Status == "healthy"
		st.Version, st.Model = h.Version, h.Model
		if !st.Online {
			st.Error = fmt.Sprintf("backend reports %q", h.Status)
		}
	}

	s.mu.Lock()
	changed := s.status == nil || s.status.Online != st.Online
	s.status = &st
	s.mu.Unlock()

	if changed {
		if st.Online {
			log.Printf("[Generate] backend online (%s)", st.Model)
		} else {
			log.Printf("[Generate] backend offline: %s", st.Error)
		}
		s.emitter.Emit(ctx, EventGenerateHealth, st)
	}
	return st
}

// Status returns the last probe result, if any.
func (s *HealthService) Status() (BackendStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		return BackendStatus{}, false
	}
	return *s.status, true
}

// Start schedules a probe every interval, replacing any previous schedule.
// A zero interval disables polling.
func (s *HealthService) Start(ctx context.Context, interval time.Duration) error {
	s.Stop()
	if interval <= 0 {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc("@every "+interval.String(), func() { s.Check(ctx) }); err != nil {
		return fmt.Errorf("schedule health check: %w", err)
	}
	c.Start()

	s.mu.Lock()
	s.cronSched = c
	s.mu.Unlock()
	log.Printf("[Generate] health check every %s", interval)
	return nil
}

// Stop cancels the schedule. Safe to call repeatedly.
func (s *HealthService) Stop() {
	s.mu.Lock()
	c := s.cronSched
	s.cronSched = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}
