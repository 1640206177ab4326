package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfirmDeletePrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "confirmed", input: "Y\n", want: true},
		{name: "confirmed without newline", input: "Y", want: true},
		{name: "lowercase is rejected", input: "y\n", want: false},
		{name: "anything else is rejected", input: "yes\n", want: false},
		{name: "empty input is rejected", input: "\n", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var prompt bytes.Buffer
			got, err := confirmDeletePrompt(strings.NewReader(tc.input), &prompt, "./worktrack.db")
			if err != nil {
				t.Fatalf("confirm prompt: %v", err)
			}
			if got != tc.want {
				t.Fatalf("input %q: expected %t, got %t", tc.input, tc.want, got)
			}
			if !strings.Contains(prompt.String(), "worktrack.db") {
				t.Fatalf("expected prompt to name the database file, got %q", prompt.String())
			}
		})
	}
}

func TestConfirmDeletePrompt_NilInput(t *testing.T) {
	t.Parallel()

	if _, err := confirmDeletePrompt(nil, nil, "./worktrack.db"); err == nil {
		t.Fatal("expected error for nil input")
	}
}

func TestRemoveDatabaseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "worktrack.db")
	if err := os.WriteFile(path, []byte("not really a db"), 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	if err := removeDatabaseFile(path); err != nil {
		t.Fatalf("remove database file: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected file to be gone")
	}

	if err := removeDatabaseFile(path); err == nil {
		t.Fatal("expected error for missing file")
	}
	if err := removeDatabaseFile(dir); err == nil {
		t.Fatal("expected error for directory path")
	}
}
