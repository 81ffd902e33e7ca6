package job

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/ivlev/story2video/internal/notify"
)

var ErrNotFound = errors.New("job not found")

// notifyTimeout bounds one status publish. A broker that stays unreachable
// must not hold up the job or Close.
const notifyTimeout = 5 * time.Second

type Status int

const (
	Pending Status = iota
	Running
	Done
	Error
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Finished reports whether the job will not change any more
func (s Status) Finished() bool {
	return s == Done || s == Error
}

// Output is what a finished render hands back to its job
type Output struct {
	Frames []string
	Video  string
}

// RenderFunc runs one render synchronously and reports progress per frame
type RenderFunc func(ctx context.Context, progress func(done, total int)) (Output, error)

// Job is a snapshot of one background render
type Job struct {
	ID      string    `json:"id"`
	Status  Status    `json:"status"`
	Message string    `json:"message"`
	Frames  []string  `json:"frames,omitempty"`
	Video   string    `json:"video,omitempty"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

type entry struct {
	job  Job
	done chan struct{}
}

// Manager runs renders in the background and keeps their state for polling
type Manager struct {
	mu            sync.RWMutex
	jobs          map[string]*entry
	notifier      notify.Notifier
	notifyTimeout time.Duration
	wg            sync.WaitGroup
}

func NewManager(n notify.Notifier) *Manager {
	if n == nil {
		n = notify.Nop{}
	}
	return &Manager{jobs: make(map[string]*entry), notifier: n, notifyTimeout: notifyTimeout}
}

// Submit starts fn in its own goroutine and returns the job id at once
func (m *Manager) Submit(ctx context.Context, fn RenderFunc) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}

	now := time.Now()
	e := &entry{
		job:  Job{ID: id, Status: Pending, Created: now, Updated: now},
		done: make(chan struct{}),
	}
	m.mu.Lock()
	m.jobs[id] = e
	m.mu.Unlock()
	m.publish(ctx, e.job)

	m.wg.Add(1)
	go m.run(ctx, e, fn)
	return id, nil
}

func (m *Manager) run(ctx context.Context, e *entry, fn RenderFunc) {
	defer m.wg.Done()
	defer close(e.done)

	m.update(ctx, e, func(j *Job) {
		j.Status = Running
	})

	out, err := fn(ctx, func(done, total int) {
		m.update(ctx, e, func(j *Job) {
			j.Message = fmt.Sprintf("Rendered %d frames", done)
		})
	})

	m.update(ctx, e, func(j *Job) {
		if err != nil {
			j.Status = Error
			j.Message = err.Error()
			return
		}
		j.Status = Done
		j.Frames = out.Frames
		j.Video = out.Video
		j.Message = fmt.Sprintf("Done. %d frames", len(out.Frames))
	})
}

// update applies change under the lock and publishes the new state
func (m *Manager) update(ctx context.Context, e *entry, change func(j *Job)) {
	m.mu.Lock()
	change(&e.job)
	e.job.Updated = time.Now()
	snap := e.job.clone()
	m.mu.Unlock()

	// Progress messages are frequent; only status changes and the final
	// message go out.
	if snap.Status != Running || snap.Message == "" {
		m.publish(ctx, snap)
	}
}

func (m *Manager) publish(ctx context.Context, j Job) {
	ev := notify.Event{
		JobID:   j.ID,
		Status:  j.Status.String(),
		Message: j.Message,
		Frames:  len(j.Frames),
		Video:   j.Video,
		Time:    j.Updated,
	}
	// Final states are still published after the caller gives up, within
	// notifyTimeout.
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.notifyTimeout)
	defer cancel()
	if err := m.notifier.Notify(nctx, ev); err != nil {
		log.Printf("[!] Job %s: notify failed: %v", j.ID, err)
	}
}

// Get returns the current state of job id
func (m *Manager) Get(id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.job.clone(), nil
}

// Wait blocks until job id finishes or ctx is done
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	m.mu.RLock()
	e, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	select {
	case <-e.done:
		return m.Get(id)
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// List returns all jobs, oldest first
func (m *Manager) List() []Job {
	m.mu.RLock()
	out := make([]Job, 0, len(m.jobs))
	for _, e := range m.jobs {
		out = append(out, e.job.clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// Close waits for running jobs and closes the notifier
func (m *Manager) Close() {
	m.wg.Wait()
	m.notifier.Close()
}

func (j Job) clone() Job {
	j.Frames = append([]string(nil), j.Frames...)
	return j
}

func newID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("job id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
