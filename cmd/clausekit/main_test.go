package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/clausekit/internal/export"
	"github.com/hyperjump/clausekit/internal/models"
	"github.com/hyperjump/clausekit/internal/render"
	"github.com/hyperjump/clausekit/internal/storage"
	"go.uber.org/zap"
)

func TestLoadConfig_prefersCwdConfigForDefaultPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 7070\n"), 0600); err != nil {
		t.Fatal(err)
	}
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
	if filepath.Base(resolved) != "config.yaml" || filepath.Dir(resolved) == filepath.Dir(defaultConfigPath) {
		t.Errorf("resolved path: got %s", resolved)
	}
}

func TestLoadConfig_explicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 6060\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 6060 || resolved != path {
		t.Errorf("got port %d from %s", cfg.Server.Port, resolved)
	}
}

func TestReadContent(t *testing.T) {
	got, err := readContent([]string{"Payment", "terms"}, strings.NewReader("ignored"))
	if err != nil || got != "Payment terms" {
		t.Errorf("args: got %q, %v", got, err)
	}
	got, err = readContent(nil, strings.NewReader("line one\nline two\n"))
	if err != nil || got != "line one\nline two" {
		t.Errorf("stdin: got %q, %v", got, err)
	}
}

func TestReadPassword(t *testing.T) {
	if got, _ := readPassword([]string{"s3cret"}, strings.NewReader("")); got != "s3cret" {
		t.Errorf("arg: got %q", got)
	}
	if got, _ := readPassword(nil, strings.NewReader("from-stdin\r\nrest")); got != "from-stdin" {
		t.Errorf("stdin: got %q", got)
	}
	if _, err := readPassword(nil, strings.NewReader("")); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestWriteResult(t *testing.T) {
	exporter := export.NewCoordinator(storage.NewMemoryStore(), render.NewRenderer(), zap.NewNop())
	res, err := exporter.Export(models.ExportRequest{Format: "pdf", Content: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), res.Filename)
	if err := writeResult(path, res); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Error("written file is not a PDF")
	}
}
