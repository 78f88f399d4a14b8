package ops

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrOperationExists  = errors.New("ops: operation already exists")
	ErrOperationNil     = errors.New("ops: operation is nil")
	ErrInvalidName      = errors.New("ops: invalid operation name")
	ErrUnknownOperation = errors.New("ops: unknown operation")
)

// Spec describes one dispatchable operation.
type Spec struct {
	Name        string
	Description string
	// Privileged operations always run in an elevated process.
	Privileged bool
	Idempotent bool
}

// Operation is the dispatch boundary.
type Operation interface {
	Spec() Spec
	Run(ctx context.Context, args []string) error
}

// Func adapts a function into an Operation.
type Func struct {
	Meta Spec
	Fn   func(ctx context.Context, args []string) error
}

func (f Func) Spec() Spec { return f.Meta }

func (f Func) Run(ctx context.Context, args []string) error {
	return f.Fn(ctx, args)
}

// Registry stores operations by name.
type Registry struct {
	items map[string]Operation
}

func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Operation)}
}

func (r *Registry) Register(op Operation) error {
	if op == nil {
		return ErrOperationNil
	}
	if f, ok := op.(Func); ok && f.Fn == nil {
		return ErrOperationNil
	}
	name := op.Spec().Name
	if !isValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, ok := r.items[name]; ok {
		return fmt.Errorf("%w: %s", ErrOperationExists, name)
	}
	r.items[name] = op
	return nil
}

func (r *Registry) Resolve(name string) (Operation, bool) {
	op, ok := r.items[strings.TrimSpace(name)]
	return op, ok
}

// List returns specs sorted by name.
func (r *Registry) List() []Spec {
	list := make([]Spec, 0, len(r.items))
	for _, op := range r.items {
		list = append(list, op.Spec())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '-'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if isSep && (i == 0 || i == len(name)-1 || name[i-1] == '-') {
			return false
		}
	}
	return true
}
