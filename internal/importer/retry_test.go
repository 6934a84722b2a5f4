package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"testing/synctest"
	"time"
)

func TestRetryWithBackoff_SuccessOnFirstAttempt(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		callCount := 0

		err := retryWithBackoff(context.Background(), "read", func() error {
			callCount++
			return nil
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if callCount != 1 {
			t.Errorf("callCount = %d, want 1", callCount)
		}
	})
}

func TestRetryWithBackoff_SuccessAfterRetries(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		callCount := 0

		err := retryWithBackoff(context.Background(), "read", func() error {
			callCount++
			if callCount < 3 {
				return errors.New("resource busy")
			}
			return nil
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if callCount != 3 {
			t.Errorf("callCount = %d, want 3", callCount)
		}
	})
}

func TestRetryWithBackoff_ExhaustsRetriesWithBackoff(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var callTimes []time.Time

		err := retryWithBackoff(context.Background(), "read", func() error {
			callTimes = append(callTimes, time.Now())
			return errors.New("temporary failure")
		})

		if err == nil {
			t.Fatal("expected error after exhausting retries")
		}
		if len(callTimes) != 1+maxRetries {
			t.Fatalf("calls = %d, want %d", len(callTimes), 1+maxRetries)
		}

		want := initialBackoff
		for i := 1; i < len(callTimes); i++ {
			if d := callTimes[i].Sub(callTimes[i-1]); d < want {
				t.Errorf("retry %d delay = %v, want >= %v", i, d, want)
			}
			want = min(want*2, maxBackoff)
		}
	})
}

func TestRetryWithBackoff_ContextTimeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		// Times out during the second backoff wait.
		ctx, cancel := context.WithTimeout(context.Background(), 700*time.Millisecond)
		defer cancel()

		callCount := 0
		err := retryWithBackoff(ctx, "read", func() error {
			callCount++
			return errors.New("temporary failure")
		})

		if err == nil {
			t.Fatal("expected error after context timeout")
		}
		if callCount != 2 {
			t.Errorf("callCount = %d, want 2", callCount)
		}
	})
}

func TestRetryWithBackoff_PermanentErrorNotRetried(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		callCount := 0

		err := retryWithBackoff(context.Background(), "read", func() error {
			callCount++
			return fmt.Errorf("open x.mp3: %w", fs.ErrPermission)
		})

		if !errors.Is(err, fs.ErrPermission) {
			t.Fatalf("err = %v, want wrapped ErrPermission", err)
		}
		if callCount != 1 {
			t.Errorf("callCount = %d, want 1", callCount)
		}
	})
}

func TestIsRetryableError_Categories(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"file locked", errors.New("file is locked"), true},
		{"resource busy", errors.New("resource busy"), true},
		{"in use", errors.New("file in use"), true},
		{"timeout", errors.New("operation timeout"), true},
		{"i/o error", errors.New("i/o error"), true},
		{"temporary", errors.New("temporary failure"), true},
		{"not exist", fmt.Errorf("open: %w", fs.ErrNotExist), false},
		{"permission", fmt.Errorf("open: %w", fs.ErrPermission), false},
		{"invalid", errors.New("invalid argument"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}
