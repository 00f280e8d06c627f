package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/querysync/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEncodeCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bare string", []string{"encode", `"central"`}, "central"},
		{"number", []string{"encode", "30"}, "30"},
		{"null", []string{"encode", "null"}, "(absent)"},
		{"month", []string{"encode", `"2024-03"`}, "2024-03"},
		{"entity", []string{"encode", `{"id":7,"name":"Central","address":"Main St"}`}, `{"id":7,"name":"Central"}`},
		{"attrs", []string{"encode", "--attrs", "id,address", `{"id":7,"name":"Central","address":"Main St"}`}, `{"id":7,"address":"Main St"}`},
		{"param", []string{"encode", "--param", "search", `"a b"`}, "search=a+b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeCmd(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"central", "string\t\"central\""},
		{"30", "int64\t30"},
		{"2024-03", "urlcodec.Month\t\"2024-03\""},
		{"%5B1%2C2%5D", "[]interface {}\t[1,2]"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			out, err := run(t, "decode", tt.arg)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got := strings.TrimSpace(out); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := run(t, "decode", `{"id":`); err == nil {
		t.Error("malformed JSON decoded without error")
	}
}

func TestDemoCmd(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.ConfigFileName)
	if err := os.WriteFile(cfgPath, []byte(`{"search": {"debounce": "10ms"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfgPath, "demo", "--search", "north", "--back", "--metrics")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, want := range []string{
		"typed \"north\" -> /libraries?search=north",
		"[North] District Library",
		"back -> /libraries",
		"navigations: 1",
		"querysync_navigation_flushes_total 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDemoItem(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, config.ConfigFileName)
	if err := config.New().SaveTo(cfgPath); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfgPath, "demo", "--item", "1620003")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out, "Full name: North District Library") {
		t.Errorf("output = %s", out)
	}

	if _, err := run(t, "--config", cfgPath, "demo", "--item", "42"); err == nil {
		t.Error("unknown library id did not fail")
	}
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()

	if _, err := run(t, "config", "init", dir); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !config.Exists(dir) {
		t.Fatal("querysync.json not written")
	}
	if _, err := run(t, "config", "init", dir); err == nil {
		t.Error("config init overwrote an existing file without --force")
	}
	if _, err := run(t, "config", "init", "--force", dir); err != nil {
		t.Errorf("config init --force error = %v", err)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q, want %q", out, version)
	}
}

func TestInvalidLogLevel(t *testing.T) {
	if _, err := run(t, "--log-level", "loud", "version"); err == nil {
		t.Error("invalid --log-level accepted")
	}
}
