package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaz1409/work-location-tracker/config"
)

func TestResolveConfigEditPath(t *testing.T) {
	t.Parallel()

	got, err := resolveConfigEditPath("./custom.yaml", "/home/x/.worktrack.yaml")
	if err != nil {
		t.Fatalf("resolve with flag: %v", err)
	}
	if got != "./custom.yaml" {
		t.Fatalf("expected flag to win, got %q", got)
	}

	got, err = resolveConfigEditPath("", "/home/x/.worktrack.yaml")
	if err != nil {
		t.Fatalf("resolve with active file: %v", err)
	}
	if got != "/home/x/.worktrack.yaml" {
		t.Fatalf("expected active config file, got %q", got)
	}

	got, err = resolveConfigEditPath("", "")
	if err != nil {
		t.Fatalf("resolve fallback: %v", err)
	}
	if !strings.HasSuffix(got, ".worktrack.yaml") {
		t.Fatalf("expected home fallback path, got %q", got)
	}
}

func TestEnsureConfigFileWithTemplate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", ".worktrack.yaml")

	created, err := ensureConfigFileWithTemplate(path)
	if err != nil {
		t.Fatalf("ensure config file: %v", err)
	}
	if !created {
		t.Fatal("expected file to be created")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read created config: %v", err)
	}
	if string(content) != config.ExampleYAML() {
		t.Fatal("expected example template content")
	}

	created, err = ensureConfigFileWithTemplate(path)
	if err != nil {
		t.Fatalf("ensure existing config file: %v", err)
	}
	if created {
		t.Fatal("expected existing file to be left alone")
	}
}

func TestResolveEditorValue(t *testing.T) {
	t.Parallel()

	if got := resolveEditorValue("code --wait", "vim"); got != "code --wait" {
		t.Fatalf("expected VISUAL to win, got %q", got)
	}
	if got := resolveEditorValue("", "vim"); got != "vim" {
		t.Fatalf("expected EDITOR fallback, got %q", got)
	}
	if got := resolveEditorValue("  ", ""); got != "vi" {
		t.Fatalf("expected vi fallback, got %q", got)
	}
}

func TestBuildEditorCommand(t *testing.T) {
	t.Parallel()

	cmd, err := buildEditorCommand("code --wait", "/tmp/.worktrack.yaml")
	if err != nil {
		t.Fatalf("build editor command: %v", err)
	}
	if len(cmd.Args) != 3 || cmd.Args[1] != "--wait" || cmd.Args[2] != "/tmp/.worktrack.yaml" {
		t.Fatalf("unexpected editor args: %v", cmd.Args)
	}

	if _, err := buildEditorCommand("   ", "/tmp/.worktrack.yaml"); err == nil {
		t.Fatal("expected error for empty editor value")
	}
}
