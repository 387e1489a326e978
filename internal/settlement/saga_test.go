package settlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSagaExecuteRunsStepsInOrder(t *testing.T) {
	var order []string
	step := func(name string) Step {
		return Step{
			Name: name,
			Run: func(ctx context.Context) error {
				order = append(order, name)
				return nil
			},
		}
	}

	saga := NewSaga(discard(), step("first"), step("second"), step("third"))
	if err := saga.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("ran %d steps, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestSagaExecuteCompensatesInReverse(t *testing.T) {
	var events []string
	boom := errors.New("boom")

	step := func(name string, fail bool) Step {
		return Step{
			Name: name,
			Run: func(ctx context.Context) error {
				if fail {
					return boom
				}
				events = append(events, "run:"+name)
				return nil
			},
			Compensate: func(ctx context.Context) error {
				events = append(events, "undo:"+name)
				return nil
			},
		}
	}

	saga := NewSaga(discard(),
		step("redeem", false),
		step("claim", false),
		step("insert", true),
	)

	err := saga.Execute(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Execute() error = %v, want %v", err, boom)
	}

	want := []string{"run:redeem", "run:claim", "undo:claim", "undo:redeem"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestSagaExecuteContinuesPastFailedCompensation(t *testing.T) {
	var undone []string

	saga := NewSaga(discard(),
		Step{
			Name: "first",
			Run:  func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error {
				undone = append(undone, "first")
				return nil
			},
		},
		Step{
			Name: "second",
			Run:  func(ctx context.Context) error { return nil },
			Compensate: func(ctx context.Context) error {
				return errors.New("compensation broke")
			},
		},
		Step{
			Name: "third",
			Run:  func(ctx context.Context) error { return errors.New("fail") },
		},
	)

	if err := saga.Execute(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(undone) != 1 || undone[0] != "first" {
		t.Errorf("first step compensation should still run, got %v", undone)
	}
}

func TestSagaExecuteSkipsNilCompensation(t *testing.T) {
	saga := NewSaga(discard(),
		Step{Name: "no_undo", Run: func(ctx context.Context) error { return nil }},
		Step{Name: "fail", Run: func(ctx context.Context) error { return errors.New("fail") }},
	)
	if err := saga.Execute(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
