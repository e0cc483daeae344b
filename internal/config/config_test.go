package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "labinsight" {
		t.Errorf("expected app name labinsight, got %s", cfg.App.Name)
	}
	if cfg.Server.Address() != "0.0.0.0:8080" {
		t.Errorf("expected default address 0.0.0.0:8080, got %s", cfg.Server.Address())
	}
	if cfg.Reference.Source != ReferenceSourceCSV {
		t.Errorf("expected csv reference source, got %s", cfg.Reference.Source)
	}
	if cfg.Extraction.Workers != 1 {
		t.Errorf("expected sequential extraction by default, got %d workers", cfg.Extraction.Workers)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("expected 30s shutdown timeout, got %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.JWT.Enabled {
		t.Error("expected auth to be disabled by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("EXTRACTION_WORKERS", "4")
	t.Setenv("REFERENCE_SOURCE", " Postgres ")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("expected port 9191, got %d", cfg.Server.Port)
	}
	if cfg.Extraction.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Extraction.Workers)
	}
	if cfg.Reference.Source != ReferenceSourcePostgres {
		t.Errorf("expected postgres source, got %q", cfg.Reference.Source)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("expected 3s read timeout, got %s", cfg.Server.ReadTimeout)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "auth without secret",
			env:     map[string]string{"AUTH_ENABLED": "true"},
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "short secret in production",
			env:     map[string]string{"AUTH_ENABLED": "true", "JWT_SECRET": "short", "APP_ENV": "production", "REFERENCE_SOURCE": "csv"},
			wantErr: "at least 32 characters",
		},
		{
			name:    "unknown reference source",
			env:     map[string]string{"REFERENCE_SOURCE": "s3"},
			wantErr: "is not one of csv, postgres",
		},
		{
			name:    "empty csv path",
			env:     map[string]string{"REFERENCE_CSV_PATH": " "},
			wantErr: "REFERENCE_CSV_PATH is required",
		},
		{
			name:    "audit without key",
			env:     map[string]string{"AUDIT_ENABLED": "true"},
			wantErr: "AUDIT_PSEUDONYM_KEY",
		},
		{
			name:    "zero workers",
			env:     map[string]string{"EXTRACTION_WORKERS": "0"},
			wantErr: "EXTRACTION_WORKERS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("expected configuration error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, Name: "labs", User: "u", Password: "p", SSLMode: "disable"}
	want := "host=db user=u password=p dbname=labs port=5433 sslmode=disable TimeZone=UTC"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
