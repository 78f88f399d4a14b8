package ops

import (
	"context"
	"errors"
	"testing"

	"github.com/danmuck/bootctl/internal/testutil/testlog"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeGate struct {
	elevated  bool
	delegated [][]string
}

func (g *fakeGate) IsElevated() bool { return g.elevated }

func (g *fakeGate) Delegate(op string, args ...string) error {
	g.delegated = append(g.delegated, append([]string{op}, args...))
	return nil
}

func countingOp(name string, privileged bool, calls *int) Func {
	return Func{
		Meta: Spec{Name: name, Description: name + " op", Privileged: privileged},
		Fn: func(ctx context.Context, args []string) error {
			*calls++
			return nil
		},
	}
}

func TestRegisterResolveAndDuplicate(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var calls int
	if err := r.Register(countingOp("apply", false, &calls)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(countingOp("apply", false, &calls)); !errors.Is(err, ErrOperationExists) {
		t.Fatalf("expected ErrOperationExists, got %v", err)
	}
	if _, ok := r.Resolve("apply"); !ok {
		t.Fatalf("expected apply to resolve")
	}
	if _, ok := r.Resolve("missing"); ok {
		t.Fatalf("expected missing op to return ok=false")
	}
}

func TestRegisterValidation(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	if err := r.Register(nil); !errors.Is(err, ErrOperationNil) {
		t.Fatalf("expected ErrOperationNil, got %v", err)
	}
	if err := r.Register(Func{Meta: Spec{Name: "x"}}); !errors.Is(err, ErrOperationNil) {
		t.Fatalf("expected ErrOperationNil for nil func, got %v", err)
	}
	var calls int
	for _, name := range []string{"", "Apply", "-apply", "apply-", "admin--apply", "apply:x"} {
		if err := r.Register(countingOp(name, false, &calls)); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("expected ErrInvalidName for %q, got %v", name, err)
		}
	}
}

func TestListSorted(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var calls int
	for _, name := range []string{"update", "apply", "install"} {
		_ = r.Register(countingOp(name, false, &calls))
	}
	got := []string{}
	for _, spec := range r.List() {
		got = append(got, spec.Name)
	}
	if diff := cmp.Diff([]string{"apply", "install", "update"}, got); diff != "" {
		t.Fatalf("list not sorted (-want +got):\n%s", diff)
	}
}

func TestDispatchUnknown(t *testing.T) {
	testlog.Start(t)
	d := NewDispatcher(NewRegistry(), nil)
	if err := d.Dispatch(context.Background(), "nope", nil); !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestDispatchPrivilegedElevatesOnce(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var calls int
	_ = r.Register(countingOp("admin-apply", true, &calls))
	gate := &fakeGate{}
	d := NewDispatcher(r, gate)

	if err := d.Dispatch(context.Background(), "admin-apply", []string{"--x"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no in-process run, got %d", calls)
	}
	if diff := cmp.Diff([][]string{{"admin-apply", "--x"}}, gate.delegated); diff != "" {
		t.Fatalf("unexpected delegation (-want +got):\n%s", diff)
	}
}

func TestDispatchSameEntryWhenElevated(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	var calls int
	_ = r.Register(countingOp("admin-apply", true, &calls))
	_ = r.Register(countingOp("apply", false, &calls))
	gate := &fakeGate{elevated: true}
	d := NewDispatcher(r, gate)

	for _, name := range []string{"admin-apply", "apply"} {
		if err := d.Dispatch(context.Background(), name, nil); err != nil {
			t.Fatalf("dispatch %s: %v", name, err)
		}
	}
	if calls != 2 || len(gate.delegated) != 0 {
		t.Fatalf("expected in-process runs only, calls=%d delegated=%v", calls, gate.delegated)
	}
}

func TestDispatchWrapsOperationError(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("boom")
	r := NewRegistry()
	_ = r.Register(Func{Meta: Spec{Name: "link"}, Fn: func(context.Context, []string) error { return boom }})
	err := NewDispatcher(r, nil).Dispatch(context.Background(), "link", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}
