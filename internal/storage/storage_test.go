package storage

import (
	"log/slog"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vexlab/svr-debug/internal/config"
)

func TestNewSinks_Empty(t *testing.T) {
	sinks, err := NewSinks(config.StorageConfig{}, slog.Default(), zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sinks) != 0 {
		t.Errorf("expected no sinks, got %d", len(sinks))
	}
}

func TestNewSinks_Memory(t *testing.T) {
	cfg := config.StorageConfig{
		Types:  []string{"memory"},
		Memory: config.MemoryConfig{OutputDir: t.TempDir()},
	}

	sinks, err := NewSinks(cfg, slog.Default(), zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sinks) != 1 {
		t.Fatalf("expected 1 sink, got %d", len(sinks))
	}
	if _, ok := sinks[0].(Exportable); !ok {
		t.Error("memory sink should be Exportable")
	}
}

func TestNewSinks_Unknown(t *testing.T) {
	_, err := NewSinks(config.StorageConfig{Types: []string{"carrier-pigeon"}}, slog.Default(), zerolog.Nop())
	if err == nil {
		t.Error("expected error for unknown sink type")
	}
}
