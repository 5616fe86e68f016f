package pipeline

import (
	"errors"
	"strings"
	"testing"
)

func TestAttemptSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Attempt("flaky op", 5, 0, func() error {
		calls++
		if calls < 4 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if calls != 4 {
		t.Errorf("op ran %d times, want 4", calls)
	}
}

func TestAttemptFirstTrySuccess(t *testing.T) {
	calls := 0
	if err := Attempt("op", 5, 0, func() error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("Attempt returned error: %v", err)
	}
	if calls != 1 {
		t.Errorf("op ran %d times, want 1", calls)
	}
}

func TestAttemptExhaustsRetries(t *testing.T) {
	cause := errors.New("backend down")
	calls := 0
	err := Attempt("video generation", 2, 0, func() error {
		calls++
		return cause
	})
	if err == nil {
		t.Fatal("Attempt succeeded, want error")
	}
	if calls != 3 {
		t.Errorf("op ran %d times, want 3", calls)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error %v does not wrap the last cause", err)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error %q does not report the attempt count", err)
	}
	if !strings.Contains(err.Error(), "video generation") {
		t.Errorf("error %q does not carry the label", err)
	}
}

func TestAttemptZeroRetriesRunsOnce(t *testing.T) {
	calls := 0
	err := Attempt("op", 0, 0, func() error {
		calls++
		return errors.New("nope")
	})
	if err == nil {
		t.Fatal("Attempt succeeded, want error")
	}
	if calls != 1 {
		t.Errorf("op ran %d times, want 1", calls)
	}
}
