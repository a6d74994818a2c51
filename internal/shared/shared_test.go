package shared

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "crates-sync.log")

	logger, closer, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	logger.Info("sync run started", "page_size", 50)
	if err := closer.Close(); err != nil {
		t.Fatalf("failed to close log file: %v", err)
	}

	logger, closer, err = NewFileLogger(path)
	if err != nil {
		t.Fatalf("reopening log file: %v", err)
	}
	logger.Info("sync run finished")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "sync run started") || !strings.Contains(got, "sync run finished") {
		t.Errorf("expected both lines to be appended, got:\n%s", got)
	}
}

func TestMarshalJSON(t *testing.T) {
	tc := []struct {
		name   string
		pretty bool
		want   string
	}{
		{name: "compact", pretty: false, want: `{"id":7}`},
		{name: "pretty", pretty: true, want: "{\n  \"id\": 7\n}"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalJSON(map[string]int{"id": 7}, tt.pretty)
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("MarshalJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a uuid, got %q", a)
	}
}

func TestSleepWithContext(t *testing.T) {
	t.Run("zero duration returns at once", func(t *testing.T) {
		if err := SleepWithContext(context.Background(), 0); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("cancelled context stops the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := SleepWithContext(ctx, time.Hour)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if time.Since(start) > time.Second {
			t.Error("sleep did not return on cancel")
		}
	})

	t.Run("short sleep completes", func(t *testing.T) {
		if err := (SystemClock{}).Sleep(context.Background(), time.Millisecond); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}
