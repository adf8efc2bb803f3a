package logger

import (
	"context"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "unknown"}
	for _, level := range levels {
		log := New(level)
		if log == nil {
			t.Errorf("New(%s) should return a logger", level)
		}
	}
}

func TestNewWithConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "json format stdout",
			config: Config{Level: "info", Format: "json", Output: "stdout"},
		},
		{
			name:   "text format stderr",
			config: Config{Level: "debug", Format: "text", Output: "stderr"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := NewWithConfig(tt.config)
			if log == nil {
				t.Error("expected a non-nil logger")
			}
		})
	}
}

func TestNewWithConfig_FileOutput(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "test.log")

	log := NewWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logPath,
	})
	if log == nil {
		t.Fatal("expected a non-nil logger")
	}
	log.Info("test message")
}

func TestNewWithConfig_FileOutputInvalidDir(t *testing.T) {
	log := NewWithConfig(Config{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: "/nonexistent/deeply/nested/dir/test.log",
	})
	if log == nil {
		t.Error("expected a non-nil logger even with an invalid path")
	}
}

func TestWithContextFromContext(t *testing.T) {
	log := New("info")
	ctx := WithContext(context.Background(), log, "key1", "value1")

	got := FromContext(ctx)
	if got == nil {
		t.Fatal("expected FromContext to recover a logger")
	}
	got.Info("annotated message")
}

func TestFromContext_NoneAttached(t *testing.T) {
	got := FromContext(context.Background())
	if got == nil {
		t.Error("expected a fallback logger when none is attached")
	}
}

func TestWithRequestID(t *testing.T) {
	log := New("info")
	got := WithRequestID(log, "req-123")
	if got == nil {
		t.Error("WithRequestID should return a logger")
	}
}

func TestWithService(t *testing.T) {
	log := New("info")
	got := WithService(log, "test-service")
	if got == nil {
		t.Error("WithService should return a logger")
	}
}
