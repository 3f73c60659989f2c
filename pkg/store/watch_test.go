package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tableflip.dev/planner/pkg/entry"
)

type testConfig struct {
	path   string
	driver string
}

func (t testConfig) BasePath() string { return t.path }
func (t testConfig) Driver() string   { return t.driver }

func TestPersistenceWatchEmitsPeriodChanges(t *testing.T) {
	base := t.TempDir()
	p, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("load persistence: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow watcher goroutine to subscribe to directories before storing.
	time.Sleep(50 * time.Millisecond)

	ev := entry.PlannerEvent{ID: "a", ListID: "2024-01-01", Value: "hello world", SortKey: 1, Status: entry.StatusStatic}
	if err := p.Save(ctx, "2024-01-01", []entry.PlannerEvent{ev}); err != nil {
		t.Fatalf("save: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case evt := <-ch:
			if evt.Type == EventInvalidated {
				return
			}
			if evt.Type == EventPeriodChanged {
				if evt.Key != "2024-01-01" {
					t.Fatalf("expected period '2024-01-01', got %q", evt.Key)
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for period change event")
		}
	}
}

func TestMemoryWatchEmitsTemplateChanges(t *testing.T) {
	p := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if err := p.SaveTemplate(ctx, "Monday", nil); err != nil {
		t.Fatalf("save template: %v", err)
	}
	select {
	case evt := <-ch:
		if evt.Type != EventTemplateChanged || evt.Key != "Monday" {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for template event")
	}

	cancel()
	for range ch {
	}
}

func TestEventThrottleCoalesces(t *testing.T) {
	th := newEventThrottle(20 * time.Millisecond)
	defer th.Stop()

	got := make(chan Event, 8)
	send := func(ev Event) { got <- ev }
	for i := 0; i < 5; i++ {
		th.Enqueue(Event{Type: EventPeriodChanged, Key: "2024-01-01"}, send)
	}

	select {
	case ev := <-got:
		if ev.Key != "2024-01-01" {
			t.Fatalf("key = %q", ev.Key)
		}
	case <-time.After(time.Second):
		t.Fatal("no flush")
	}
	select {
	case ev := <-got:
		t.Fatalf("expected a single event, got another %+v", ev)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestWatchTargets(t *testing.T) {
	base := t.TempDir()
	nested := filepath.Join(base, "projects", "src")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	flat, err := watchTargets(base, false)
	if err != nil {
		t.Fatalf("flat targets: %v", err)
	}
	if len(flat) != 1 || flat[0] != base {
		t.Fatalf("expected only %s, got %v", base, flat)
	}

	deep, err := watchTargets(base, true)
	if err != nil {
		t.Fatalf("recursive targets: %v", err)
	}
	if len(deep) != 3 {
		t.Fatalf("expected base and two subdirectories, got %v", deep)
	}
}

func TestSQLiteWatchIgnoresNestedDirectories(t *testing.T) {
	home := t.TempDir()
	nested := filepath.Join(home, "projects")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	p, err := Load(testConfig{path: filepath.Join(home, ".planner.db"), driver: DriverSQLite})
	if err != nil {
		t.Fatalf("load sqlite: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	// Matches the database name, but lives below the watched directory.
	if err := os.WriteFile(filepath.Join(nested, ".planner.db"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event from a nested directory: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}

	ev := entry.PlannerEvent{ID: "a", ListID: "2024-01-01", Value: "hello", SortKey: 1, Status: entry.StatusStatic}
	if err := p.Save(ctx, "2024-01-01", []entry.PlannerEvent{ev}); err != nil {
		t.Fatalf("save: %v", err)
	}
	select {
	case ev := <-ch:
		if ev.Type != EventInvalidated {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for database write")
	}
}
