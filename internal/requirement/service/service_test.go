package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-req/internal/config"
	"github.com/bitfantasy/nimo-req/internal/requirement/repository"
	"github.com/bitfantasy/nimo-req/internal/requirement/sse"
	"github.com/bitfantasy/nimo-req/internal/requirement/testutil"
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Events() []sse.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sse.Event(nil), p.events...)
}

// stepClock advances one second per reading.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func setupServices(t *testing.T, cfg config.RequirementConfig) (*Services, *recordingPublisher, *stepClock) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	pub := &recordingPublisher{}
	svc := NewServices(repository.NewRepositories(db), pub, cfg, nil)
	clock := newStepClock()
	svc.Requirement.clock = clock.Now
	return svc, pub, clock
}
