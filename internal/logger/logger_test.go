package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func restoreLog(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })
}

func TestInitWritesToOutput(t *testing.T) {
	restoreLog(t)
	path := filepath.Join(t.TempDir(), "prism.log")
	t.Setenv("PRISM_LOG", "production")
	t.Setenv("PRISM_LOG_OUTPUT", path)

	if err := Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Log.Info("hello")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("expected a JSON entry, got %q", data)
	}
}

func TestInitReportsBuildError(t *testing.T) {
	restoreLog(t)
	before := Log
	t.Setenv("PRISM_LOG_OUTPUT", filepath.Join(t.TempDir(), "missing", "prism.log"))

	if err := Init(); err == nil {
		t.Fatal("expected an error for an unwritable output path")
	}
	if Log != before {
		t.Error("failed Init should keep the previous logger")
	}
}
