package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"madrassa/internal/config"
	applog "madrassa/internal/log"
)

func TestFactory_CreateBackend(t *testing.T) {
	f := NewFactory(applog.Discard())
	ctx := context.Background()

	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "sqlite", config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "m.db")}},
		{name: "unknown", config: Config{Type: "sheets"}, wantErr: ErrUnsupportedBackend},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer res.Cleanup()

			if err := res.Backend.Ping(ctx); err != nil {
				t.Fatalf("ping: %v", err)
			}
			cfg, err := res.Backend.GetConfig(ctx)
			if err != nil {
				t.Fatalf("get config: %v", err)
			}
			if cfg.MonthlyDueDate != 10 {
				t.Fatalf("expected default due date 10, got %d", cfg.MonthlyDueDate)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "memory", MemorySeedFile: "seed.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != MemoryBackend || cfg.SeedFile != "seed.json" {
		t.Fatalf("unexpected backend config %+v", cfg)
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sqlite"}); err == nil {
		t.Fatalf("expected error for sqlite without path")
	}
}
