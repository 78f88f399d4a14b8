package updates

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/bootctl/internal/settings"
	"github.com/danmuck/bootctl/internal/testutil/testlog"
	"github.com/danmuck/bootctl/internal/tools"
	"github.com/google/go-cmp/cmp"
)

type memEnv map[string]string

func (m memEnv) Set(scope settings.Scope, key, value string) error {
	m[string(scope)+"/"+key] = value
	return nil
}

func (m memEnv) Get(scope settings.Scope, key string) (string, bool, error) {
	v, ok := m[string(scope)+"/"+key]
	return v, ok, nil
}

type updateFakeRunner struct {
	commands [][]string
	failOn   string
}

func (r *updateFakeRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := append([]string{name}, args...)
	r.commands = append(r.commands, cmd)
	if r.failOn != "" && strings.HasPrefix(strings.Join(cmd, " "), r.failOn) {
		return nil, []byte("network down"), 1, errors.New("exit status 1")
	}
	return nil, nil, 0, nil
}

var fixedNow = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newTestUpdater(runner tools.CommandRunner, env memEnv) *Updater {
	u := NewUpdater(runner, tools.StaticLocator{"scoop": "/s", "npm": "/n", "dotnet": "/d"}, env)
	u.now = func() time.Time { return fixedNow }
	return u
}

func TestRunInsideIntervalSpawnsNothing(t *testing.T) {
	testlog.Start(t)
	env := memEnv{"user/" + StampVar: fixedNow.Add(-time.Hour).Format(time.RFC3339)}
	runner := &updateFakeRunner{}
	sum, err := newTestUpdater(runner, env).Run(context.Background(), Config{Interval: 24 * time.Hour, Managers: []string{"scoop"}}, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !sum.Skipped || len(runner.commands) != 0 {
		t.Fatalf("expected skip without spawns, got %+v %v", sum, runner.commands)
	}
	if !sum.Next.Equal(fixedNow.Add(23 * time.Hour)) {
		t.Fatalf("unexpected next run: %v", sum.Next)
	}
}

func TestRunForceContinuesPastFailures(t *testing.T) {
	testlog.Start(t)
	env := memEnv{"user/" + StampVar: fixedNow.Format(time.RFC3339)}
	runner := &updateFakeRunner{failOn: "scoop update *"}
	cfg := Config{Managers: []string{"scoop", "winget", "npm", "dotnet"}, DotnetTools: []string{"dotnet-ef"}}

	sum, err := newTestUpdater(runner, env).Run(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := [][]string{
		{"scoop", "update"},
		{"scoop", "update", "*"},
		{"npm", "update", "-g"},
		{"dotnet", "tool", "update", "-g", "dotnet-ef"},
	}
	if diff := cmp.Diff(want, runner.commands); diff != "" {
		t.Fatalf("unexpected commands (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"winget"}, sum.Missing); diff != "" {
		t.Fatalf("unexpected missing managers (-want +got):\n%s", diff)
	}
	if len(sum.Failed) != 1 || sum.Err() == nil {
		t.Fatalf("expected one failure, got %v", sum.Failed)
	}
	if diff := cmp.Diff([]string{"npm", "dotnet"}, sum.Ran); diff != "" {
		t.Fatalf("failed manager must not count as ran (-want +got):\n%s", diff)
	}
	if env["user/"+StampVar] != fixedNow.Format(time.RFC3339) {
		t.Fatalf("expected stamp to be recorded, got %q", env["user/"+StampVar])
	}
}

func TestRunDueWhenStampMissingOrStale(t *testing.T) {
	testlog.Start(t)
	env := memEnv{}
	runner := &updateFakeRunner{}
	u := newTestUpdater(runner, env)
	if _, err := u.Run(context.Background(), Config{Managers: []string{"npm"}}, false); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(runner.commands) != 1 {
		t.Fatalf("expected npm refresh, got %v", runner.commands)
	}

	env["user/"+StampVar] = "yesterday-ish"
	due, _, err := u.Due(Config{})
	if err != nil || !due {
		t.Fatalf("expected garbage stamp to be due, got due=%v err=%v", due, err)
	}
}

func TestRunRejectsUnknownManager(t *testing.T) {
	testlog.Start(t)
	_, err := newTestUpdater(&updateFakeRunner{}, memEnv{}).Run(context.Background(), Config{Managers: []string{"pacman"}}, true)
	if !errors.Is(err, ErrUnknownManager) {
		t.Fatalf("expected ErrUnknownManager, got %v", err)
	}
}

func TestRunKeepsStampWhenEveryManagerFails(t *testing.T) {
	testlog.Start(t)
	stale := fixedNow.Add(-30 * 24 * time.Hour).Format(time.RFC3339)
	env := memEnv{"user/" + StampVar: stale}
	runner := &updateFakeRunner{failOn: "scoop"}

	sum, err := newTestUpdater(runner, env).Run(context.Background(), Config{Managers: []string{"scoop"}}, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sum.Ran) != 0 || len(sum.Failed) != 2 {
		t.Fatalf("expected both scoop commands to fail, got ran=%v failed=%v", sum.Ran, sum.Failed)
	}
	if env["user/"+StampVar] != stale {
		t.Fatalf("expected stamp to stay %q, got %q", stale, env["user/"+StampVar])
	}
}
