package loader

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/wasm-loader/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loader.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Config
	}{
		{
			name: "empty file",
			body: "",
			want: DefaultConfig(),
		},
		{
			name: "overrides",
			body: "path: build/app.wasm\nmode: strict\nentry_point: run\nmemory_limit_pages: 16\nwasi: true\n",
			want: Config{
				Path:             "build/app.wasm",
				EntryPoint:       "run",
				Mode:             ModeStrict,
				MemoryLimitPages: 16,
				WASI:             true,
			},
		},
		{
			name: "blank strings keep defaults",
			body: "path: \"\"\nentry_point: \"\"\n",
			want: DefaultConfig(),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LoadConfig(writeConfig(t, tc.body))
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if got != tc.want {
				t.Errorf("LoadConfig = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		kind errors.Kind
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			kind: errors.KindFileAccess,
		},
		{
			name: "unknown field",
			path: func(t *testing.T) string { return writeConfig(t, "paht: x.wasm\n") },
			kind: errors.KindInvalidInput,
		},
		{
			name: "bad mode",
			path: func(t *testing.T) string { return writeConfig(t, "mode: loud\n") },
			kind: errors.KindInvalidInput,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig(tc.path(t))
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("err = %v, want *errors.Error", err)
			}
			if e.Phase != errors.PhaseConfig || e.Kind != tc.kind {
				t.Errorf("err = [%s] %s, want [config] %s", e.Phase, e.Kind, tc.kind)
			}
			if cfg != DefaultConfig() {
				t.Errorf("cfg = %+v, want defaults on error", cfg)
			}
		})
	}
}

func TestConfig_EngineConfigAndOptions(t *testing.T) {
	cfg := Config{Path: "a.wasm", EntryPoint: "start", MemoryLimitPages: 2, WASI: true}

	ec := cfg.EngineConfig()
	if ec.MemoryLimitPages != 2 || !ec.EnableWASI {
		t.Errorf("EngineConfig = %+v", ec)
	}

	l := New(nil, cfg.Options()...)
	if l.Path() != "a.wasm" || l.entry != "start" {
		t.Errorf("loader path=%q entry=%q", l.Path(), l.entry)
	}
}
