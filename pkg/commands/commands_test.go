package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tableflip.dev/planner/pkg/store"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("PLANNER_CONFIG_PATH", dir)
	t.Setenv("PLANNER_PATH", filepath.Join(dir, "db"))
	t.Setenv("PLANNER_DRIVER", store.DriverDiskv)
	t.Setenv("PLANNER_TIMEZONE", "UTC")
	return filepath.Join(dir, "db")
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("planner %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestCommandTree(t *testing.T) {
	cmd := New()
	want := []string{"show", "add", "edit", "move", "delete", "confirm", "rollover", "report", "template", "serve", "mcp", "key", "version"}
	for _, name := range want {
		found, _, err := cmd.Find([]string{name})
		if err != nil || found.Name() != name {
			t.Fatalf("missing command %q", name)
		}
	}
	for _, name := range []string{"add", "list", "delete", "import", "export"} {
		if found, _, err := cmd.Find([]string{"template", name}); err != nil || found.Name() != name {
			t.Fatalf("missing template command %q", name)
		}
	}
}

func TestAddEditDeleteConfirm(t *testing.T) {
	path := setupEnv(t)

	run(t, "add", "--on", "2024-1-6", "buy", "milk")
	run(t, "add", "--on", "2024-1-6", "--at", "9:30", "dentist")

	p, err := store.Load(&store.Settings{Path: path, DriverName: store.DriverDiskv})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	events, err := p.Load(context.Background(), "2024-01-06")
	if err != nil || len(events) != 2 {
		t.Fatalf("expected two items, got %+v %v", events, err)
	}
	if events[0].Value != "buy milk" || events[1].TimeConfig == nil {
		t.Fatalf("unexpected items %+v", events)
	}
	milk := events[0].ID

	run(t, "edit", "--on", "2024-1-6", milk, "buy", "oat", "milk")
	run(t, "delete", "--on", "2024-1-6", milk)
	run(t, "confirm", "--on", "2024-1-6")

	// A fresh handle; diskv caches reads per process.
	p, _ = store.Load(&store.Settings{Path: path, DriverName: store.DriverDiskv})
	events, _ = p.Load(context.Background(), "2024-01-06")
	if len(events) != 1 || events[0].Value != "dentist" {
		t.Fatalf("expected only dentist left, got %+v", events)
	}
}

func TestTemplateExportImport(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()

	run(t, "template", "add", "weekdays", "--at", "9:00", "standup")
	file := filepath.Join(dir, "templates.yaml")
	run(t, "template", "export", file)

	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(b), "Weekdays:") || !strings.Contains(string(b), "standup") {
		t.Fatalf("unexpected export:\n%s", b)
	}

	setupEnv(t)
	run(t, "template", "import", file)
	out := run(t, "template", "export")
	if !strings.Contains(out, "standup") {
		t.Fatalf("import lost entries:\n%s", out)
	}
}

func TestVersionShort(t *testing.T) {
	out := run(t, "version", "--short")
	if !strings.Contains(out, "dev") {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestKeyWritesToCommandOutput(t *testing.T) {
	out := run(t, "key")
	for _, want := range []string{"pending delete", "from calendar"} {
		if !strings.Contains(out, want) {
			t.Fatalf("key output missing %q:\n%s", want, out)
		}
	}
}

func TestUpgradeRef(t *testing.T) {
	cmd, _, err := New().Find([]string{"upgrade"})
	if err != nil {
		t.Fatalf("find upgrade: %v", err)
	}
	if f := cmd.Flags().Lookup("ref"); f == nil || f.DefValue != "latest" {
		t.Fatalf("expected --ref defaulting to latest, got %+v", f)
	}
}
