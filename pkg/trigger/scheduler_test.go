package trigger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-notes/inkwell/pkg/schema"
	"github.com/inkwell-notes/inkwell/pkg/store"
)

func newSchedulerTest(t *testing.T, run Runner) (*Scheduler, *store.ActionStore) {
	t.Helper()
	s, err := store.NewActionStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return NewScheduler(s, run), s
}

func TestSchedulerRunsDueAction(t *testing.T) {
	ran := make(chan uuid.UUID, 1)
	sched, actions := newSchedulerTest(t, func(ctx context.Context, a *schema.Action) error {
		ran <- a.ID
		return nil
	})

	a := scheduledAction("Due Now", time.Now().Add(-time.Minute))
	if err := actions.Create(a); err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Start(ctx)

	select {
	case id := <-ran:
		if id != a.ID {
			t.Errorf("ran %v, want %v", id, a.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("action never ran")
	}
	sched.Shutdown()

	// A run advances NextRun into the future.
	got, err := actions.Get(a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.NextRun == nil || !got.NextRun.After(time.Now()) {
		t.Errorf("nextRun = %v, want future time", got.NextRun)
	}
}

func TestSchedulerExecuteNow(t *testing.T) {
	ran := make(chan string, 1)
	sched, actions := newSchedulerTest(t, func(ctx context.Context, a *schema.Action) error {
		ran <- a.Name
		return nil
	})

	a := scheduledAction("On Demand", time.Now().Add(24*time.Hour))
	if err := actions.Create(a); err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Start(ctx)

	sched.ExecuteNow(a.ID)
	select {
	case name := <-ran:
		if name != "On Demand" {
			t.Errorf("ran %q", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("action never ran")
	}
	sched.Shutdown()
}

func TestSchedulerStampsInitialNextRun(t *testing.T) {
	ran := make(chan uuid.UUID, 1)
	sched, actions := newSchedulerTest(t, func(ctx context.Context, a *schema.Action) error {
		ran <- a.ID
		return nil
	})

	var mu sync.Mutex
	now := time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC)
	sched.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})

	// Freshly created: daily at 08:00, no stored NextRun yet.
	a := scheduledAction("Morning", time.Time{})
	if err := actions.Create(a); err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Start(ctx)

	want := time.Date(2024, 3, 6, 8, 0, 0, 0, time.UTC)
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := actions.Get(a.ID)
		if err == nil && got.NextRun != nil && got.NextRun.Equal(want) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("initial nextRun never stamped, action = %+v", got)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Once the stamped time passes, the next sweep fires the action.
	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()
	sched.Reload()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("action never became due")
	}
	sched.Shutdown()

	got, err := actions.Get(a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.NextRun == nil || !got.NextRun.After(want) {
		t.Errorf("nextRun = %v, want advanced past %v", got.NextRun, want)
	}
}

func TestSchedulerDispatchesConcurrently(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	sched, actions := newSchedulerTest(t, func(ctx context.Context, a *schema.Action) error {
		started <- a.Name
		if a.Name == "Slow" {
			<-release
		}
		return nil
	})

	for _, name := range []string{"Slow", "Fast"} {
		if err := actions.Create(scheduledAction(name, time.Now().Add(-time.Minute))); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Start(ctx)

	// Both due actions must start even while one of them is stuck.
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case name := <-started:
			seen[name] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("only %v started; a slow run is blocking the loop", seen)
		}
	}
	close(release)
	sched.Shutdown()
}

func TestSchedulerShutdownWaitsForRuns(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})
	sched, actions := newSchedulerTest(t, func(ctx context.Context, a *schema.Action) error {
		<-release
		close(finished)
		return nil
	})

	a := scheduledAction("Pending", time.Now().Add(24*time.Hour))
	if err := actions.Create(a); err != nil {
		t.Fatalf("create: %v", err)
	}

	go sched.Start(context.Background())
	sched.ExecuteNow(a.ID)

	done := make(chan struct{})
	go func() {
		sched.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("shutdown returned while a run was in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown hung after the run finished")
	}
	<-finished
}

func TestSchedulerShutdownWithoutWork(t *testing.T) {
	sched, _ := newSchedulerTest(t, func(ctx context.Context, a *schema.Action) error { return nil })

	go sched.Start(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown hung")
	}
}
