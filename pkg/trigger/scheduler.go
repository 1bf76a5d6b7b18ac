package trigger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-notes/inkwell/pkg/logger"
	"github.com/inkwell-notes/inkwell/pkg/schedule"
	"github.com/inkwell-notes/inkwell/pkg/schema"
	"github.com/inkwell-notes/inkwell/pkg/store"

	"github.com/google/uuid"
)

// defaultWake bounds how long the loop sleeps when no schedule is pending,
// so newly created actions are picked up without an explicit reload.
const defaultWake = 60 * time.Second

// Runner executes a single action. Errors are logged by the scheduler, not
// propagated; a failed run does not stop the loop.
type Runner func(ctx context.Context, action *schema.Action) error

type msgKind int

const (
	msgReload msgKind = iota
	msgExecuteNow
	msgShutdown
)

type message struct {
	kind msgKind
	id   uuid.UUID
}

// Scheduler drives scheduled triggers. It sleeps until the earliest next
// run across enabled scheduled actions, executes whatever is due, stamps
// the next run times, and goes back to sleep.
type Scheduler struct {
	store *store.ActionStore
	run   Runner
	now   func() time.Time
	msgs  chan message
	done  chan struct{}
	runs  sync.WaitGroup
}

func NewScheduler(s *store.ActionStore, run Runner) *Scheduler {
	return &Scheduler{
		store: s,
		run:   run,
		now:   time.Now,
		msgs:  make(chan message, 16),
		done:  make(chan struct{}),
	}
}

// SetClock overrides the time source. Test hook.
func (s *Scheduler) SetClock(now func() time.Time) { s.now = now }

// Reload asks the loop to re-read the action set, for example after an
// action was created or its triggers changed.
func (s *Scheduler) Reload() { s.send(message{kind: msgReload}) }

// ExecuteNow runs one action immediately, regardless of its schedule.
func (s *Scheduler) ExecuteNow(id uuid.UUID) { s.send(message{kind: msgExecuteNow, id: id}) }

// Shutdown stops the loop. It returns once the loop has exited and all
// in-flight runs have finished.
func (s *Scheduler) Shutdown() {
	s.send(message{kind: msgShutdown})
	<-s.done
}

func (s *Scheduler) send(m message) {
	select {
	case s.msgs <- m:
	case <-s.done:
	}
}

// Start runs the scheduler loop until Shutdown is called or the context is
// cancelled. It blocks; callers normally run it in a goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.done)
	defer s.runs.Wait()

	logger.Info("scheduler started")
	for {
		actions, err := s.store.Scheduled()
		if err != nil {
			logger.Error(err)
			actions = nil
		}
		s.stampMissing(actions)

		now := s.now()
		wait := defaultWake
		if wake := NextWake(actions, now); !wake.IsZero() {
			if d := wake.Sub(now); d < wait {
				wait = d
			}
		}
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("scheduler stopped", zap.Error(ctx.Err()))
			return

		case m := <-s.msgs:
			timer.Stop()
			switch m.kind {
			case msgShutdown:
				logger.Info("scheduler stopped")
				return
			case msgReload:
				logger.Debug("scheduler reloading actions")
			case msgExecuteNow:
				s.executeByID(ctx, m.id)
			}

		case <-timer.C:
			s.runDue(ctx, actions)
		}
	}
}

// stampMissing persists an initial NextRun for scheduled actions that
// have none, so they become due once that time passes.
func (s *Scheduler) stampMissing(actions []*schema.Action) {
	now := s.now()
	for _, a := range actions {
		if a.NextRun != nil && !a.NextRun.IsZero() {
			continue
		}
		next := schedule.NextRunAny(a, now)
		if next.IsZero() {
			continue
		}
		if err := s.store.SetNextRun(a.ID, next); err != nil {
			logger.Error(err, zap.String("actionId", a.ID.String()))
			continue
		}
		a.NextRun = &next
	}
}

func (s *Scheduler) runDue(ctx context.Context, actions []*schema.Action) {
	now := s.now()
	for _, a := range Due(actions, now) {
		s.advance(a, now)
		s.dispatch(ctx, a)
	}
}

func (s *Scheduler) executeByID(ctx context.Context, id uuid.UUID) {
	a, err := s.store.Get(id)
	if err != nil {
		logger.Error(err, zap.String("actionId", id.String()))
		return
	}
	s.dispatch(ctx, a)
}

// advance stamps the next run before the action is dispatched, even when
// the run will fail, so a broken or slow action cannot re-fire on the
// same stamp or spin the loop.
func (s *Scheduler) advance(a *schema.Action, now time.Time) {
	next := schedule.NextRunAny(a, now)
	if next.IsZero() {
		return
	}
	if err := s.store.SetNextRun(a.ID, next); err != nil {
		logger.Error(err, zap.String("actionId", a.ID.String()))
	}
}

// dispatch runs one action in its own goroutine so a slow run or a delay
// step does not block the loop or other due actions. The engine's
// at-most-one-run-per-action guard handles overlap.
func (s *Scheduler) dispatch(ctx context.Context, a *schema.Action) {
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		logger.Info("running scheduled action",
			zap.String("actionId", a.ID.String()),
			zap.String("name", a.Name))
		if err := s.run(ctx, a); err != nil {
			logger.Error(err,
				zap.String("actionId", a.ID.String()),
				zap.String("name", a.Name))
		}
	}()
}
