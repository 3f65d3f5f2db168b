// Package processor implements the geometric task lifecycle manager. It
// exclusively owns the task table and the current metrics snapshot;
// external callers only ever see copies returned from its operations.
package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmss-network/mmss/internal/app/emergence"
	"github.com/mmss-network/mmss/internal/domain"
	"github.com/mmss-network/mmss/internal/infra/metrics"
)

// DefaultExecutionDelay is the fixed simulated cost of one task execution.
const DefaultExecutionDelay = 100 * time.Millisecond

// Store is the persistence gateway contract. Implementations may report
// domain.ErrPersistenceUnsupported; the processor tolerates both that and
// "no data" without failing its own operations.
type Store interface {
	// LoadLatestMetrics returns the most recently persisted snapshot, or
	// (nil, nil) when nothing has been persisted yet.
	LoadLatestMetrics() (*domain.GeometricMetrics, error)
	SaveMetrics(m domain.GeometricMetrics) error
	SaveTask(id uuid.UUID, cmd domain.GeometricTaskCommand, status domain.TaskStatus) error
}

type taskInfo struct {
	command domain.GeometricTaskCommand
	status  domain.TaskStatus
}

// TaskEntry is one row of a task-table listing.
type TaskEntry struct {
	ID     uuid.UUID         `json:"task_id"`
	Name   string            `json:"task_name"`
	Status domain.TaskStatus `json:"status"`
}

// Processor orchestrates submit → execute → observe over the task table
// and the single shared metrics snapshot.
//
// Three pieces of shared mutable state exist — the task table, the metrics
// snapshot, and the emergence engine — each behind its own mutex.
// ExecuteTask acquires them in the fixed order tasks → metrics → engine and
// releases them only after the whole execution (including the simulated
// delay) completes. Consequence: executions are fully serialized
// system-wide, even for unrelated tasks. This global throughput ceiling is
// part of the contract: the rest of the system depends on one snapshot
// being updated atomically per execution.
type Processor struct {
	tasksMu sync.Mutex
	tasks   map[uuid.UUID]*taskInfo

	metricsMu sync.Mutex
	metrics   domain.GeometricMetrics

	engineMu sync.Mutex
	engine   emergence.Engine

	delay time.Duration
	store Store
}

// New creates a processor seeded with the baseline metrics snapshot.
func New(engine emergence.Engine) *Processor {
	return &Processor{
		tasks:   make(map[uuid.UUID]*taskInfo),
		metrics: domain.BaselineMetrics(),
		engine:  engine,
		delay:   DefaultExecutionDelay,
	}
}

// SetStore attaches a persistence gateway. Persistence is best-effort:
// store failures are logged and counted, never surfaced to callers.
func (p *Processor) SetStore(s Store) { p.store = s }

// SetExecutionDelay overrides the simulated execution cost (tests, wiring).
func (p *Processor) SetExecutionDelay(d time.Duration) { p.delay = d }

// RestoreMetrics replaces the current snapshot, used at startup to resume
// from the last persisted state.
func (p *Processor) RestoreMetrics(m domain.GeometricMetrics) {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()
	p.metrics = m.Clone()
	metrics.ObserveSnapshot(p.metrics)
}

// SubmitTask inserts a command as Pending and returns its identifier.
// A fresh random UUID is assigned when the command carries none; a
// caller-supplied identifier that already exists fails with
// domain.ErrDuplicateTaskID and leaves the first submission untouched.
func (p *Processor) SubmitTask(cmd domain.GeometricTaskCommand) (uuid.UUID, error) {
	id := uuid.New()
	if cmd.TaskID != nil {
		id = *cmd.TaskID
	}

	p.tasksMu.Lock()
	defer p.tasksMu.Unlock()

	if _, exists := p.tasks[id]; exists {
		return uuid.Nil, fmt.Errorf("%w: %s", domain.ErrDuplicateTaskID, id)
	}

	p.tasks[id] = &taskInfo{command: cmd, status: domain.StatusPending()}
	metrics.TasksSubmitted.Inc()
	log.Printf("[processor] submitted task %s: %s", id, cmd.TaskName)

	p.persistTask(id, cmd, domain.StatusPending())
	return id, nil
}

// ExecuteTask runs a submitted task to a terminal state. The task table is
// held exclusively for the entire duration, including the simulated delay,
// so no two executions ever overlap in time.
func (p *Processor) ExecuteTask(id uuid.UUID) (domain.TaskExecutionResult, error) {
	p.tasksMu.Lock()
	defer p.tasksMu.Unlock()

	info, ok := p.tasks[id]
	if !ok {
		return domain.TaskExecutionResult{}, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}

	info.status = domain.StatusInProgress()
	started := time.Now()

	// Simulated execution cost.
	time.Sleep(p.delay)

	next, err := p.transformMetrics(info.command)
	if err != nil {
		info.status = domain.StatusFailed(err.Error())
		metrics.TasksFailed.WithLabelValues(string(info.command.GeometricOperator)).Inc()
		p.persistTask(id, info.command, info.status)
		return domain.TaskExecutionResult{}, fmt.Errorf("execute task %s: %w", id, err)
	}

	info.status = domain.StatusCompleted(next)

	metrics.TasksExecuted.WithLabelValues(string(info.command.GeometricOperator)).Inc()
	metrics.ExecutionLatency.Observe(time.Since(started).Seconds())
	metrics.ObserveSnapshot(next)

	p.persistTask(id, info.command, info.status)
	p.persistMetrics(next)

	return domain.TaskExecutionResult{
		TaskID:  id,
		Success: true,
		Metrics: next.Clone(),
		Output:  json.RawMessage(`{"status":"completed"}`),
	}, nil
}

// transformMetrics delegates to the emergence engine against the current
// shared snapshot and installs the result as the new snapshot.
// Lock order: metrics, then engine — the task table is already held.
func (p *Processor) transformMetrics(cmd domain.GeometricTaskCommand) (domain.GeometricMetrics, error) {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()

	p.engineMu.Lock()
	defer p.engineMu.Unlock()

	next, err := p.engine.ApplyOperator(cmd.GeometricOperator, cmd.Parameters, p.metrics.Clone())
	if err != nil {
		return domain.GeometricMetrics{}, err
	}

	p.metrics = next.Clone()
	return next, nil
}

// GetTaskStatus returns a copy of the task's current status.
func (p *Processor) GetTaskStatus(id uuid.UUID) (domain.TaskStatus, error) {
	p.tasksMu.Lock()
	defer p.tasksMu.Unlock()

	info, ok := p.tasks[id]
	if !ok {
		return domain.TaskStatus{}, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	return info.status.Clone(), nil
}

// Metrics returns a copy of the current shared snapshot. Never fails once
// the processor is constructed.
func (p *Processor) Metrics() domain.GeometricMetrics {
	p.metricsMu.Lock()
	defer p.metricsMu.Unlock()
	return p.metrics.Clone()
}

// ListTasks returns a snapshot of all tasks at call time. Map iteration
// order is not stable across calls.
func (p *Processor) ListTasks() []TaskEntry {
	p.tasksMu.Lock()
	defer p.tasksMu.Unlock()

	entries := make([]TaskEntry, 0, len(p.tasks))
	for id, info := range p.tasks {
		entries = append(entries, TaskEntry{
			ID:     id,
			Name:   info.command.TaskName,
			Status: info.status.Clone(),
		})
	}
	return entries
}

// Anchors returns the semantic anchors recorded by the engine, or nil when
// the engine does not track them.
func (p *Processor) Anchors() []domain.SemanticAnchor {
	p.engineMu.Lock()
	defer p.engineMu.Unlock()

	src, ok := p.engine.(emergence.AnchorSource)
	if !ok {
		return nil
	}
	return src.Anchors()
}

// persistTask writes a task row best-effort.
func (p *Processor) persistTask(id uuid.UUID, cmd domain.GeometricTaskCommand, status domain.TaskStatus) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveTask(id, cmd, status); err != nil && !errors.Is(err, domain.ErrPersistenceUnsupported) {
		metrics.PersistFailures.Inc()
		log.Printf("[processor] persist task %s: %v", id, err)
	}
}

// persistMetrics writes the new snapshot best-effort.
func (p *Processor) persistMetrics(m domain.GeometricMetrics) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveMetrics(m); err != nil && !errors.Is(err, domain.ErrPersistenceUnsupported) {
		metrics.PersistFailures.Inc()
		log.Printf("[processor] persist metrics: %v", err)
	}
}
