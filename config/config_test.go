package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func TestDefaults(t *testing.T) {
	t.Setenv("COMPONENT_RUNTIME_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	want := &Config{
		Sources: SourcesConfig{Dir: "components", Extensions: []string{".jsx", ".tsx", ".js"}},
		Log:     LogConfig{Level: "info", Format: "console"},
		Mount:   MountConfig{Namespace: "/"},
		Runtime: RuntimeConfig{InboxWarn: 256, ScriptTimeout: 5 * time.Second},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "runtime.yaml")
	data := `
sources:
  dir: /srv/components
  extensions: [jsx]
storage:
  path: /tmp/values.db
log:
  level: debug
compiler:
  renderer_version: "2.1"
`
	if err := os.WriteFile(file, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COMPONENT_RUNTIME_LOG_LEVEL", "warn")
	t.Setenv("COMPONENT_RUNTIME_MOUNT_SOCKET_URL", "http://localhost:3000/socket.io/")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("storage", "", "")
	if err := fs.Parse([]string{"--storage", "flag.db"}); err != nil {
		t.Fatal(err)
	}
	l := NewLoader()
	if err := l.BindFlag("storage.path", fs.Lookup("storage")); err != nil {
		t.Fatal(err)
	}
	if err := l.BindFlag("missing", fs.Lookup("missing")); err == nil {
		t.Error("binding a missing flag succeeded")
	}

	cfg, err := l.Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Sources.Dir != "/srv/components" {
		t.Errorf("sources.dir = %q", cfg.Sources.Dir)
	}
	if diff := cmp.Diff([]string{".jsx"}, cfg.Sources.Extensions); diff != "" {
		t.Errorf("extensions mismatch (-want +got):\n%s", diff)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("env should override file: log.level = %q", cfg.Log.Level)
	}
	if cfg.Storage.Path != "flag.db" {
		t.Errorf("flag should override file: storage.path = %q", cfg.Storage.Path)
	}
	if cfg.Mount.SocketURL != "http://localhost:3000/socket.io/" {
		t.Errorf("mount.socket_url = %q", cfg.Mount.SocketURL)
	}
	if cfg.Compiler.RendererVersion != "2.1" {
		t.Errorf("compiler.renderer_version = %q", cfg.Compiler.RendererVersion)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{Log: LogConfig{Format: "json"}}, true},
		{"bad format", Config{Log: LogConfig{Format: "xml"}}, false},
		{"negative inbox", Config{Log: LogConfig{Format: "console"}, Runtime: RuntimeConfig{InboxWarn: -1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestMissingFileIsIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Errorf("missing file: %v", err)
	}
}
