package config

import (
	"strings"
	"testing"
)

func TestValidateYAMLContent_Valid(t *testing.T) {
	t.Parallel()

	content := []byte(`
server:
  port: 9090

database:
  path: ./team.db

report:
  recipients:
    - lead@example.com
  smtp:
    host: smtp.example.com
    port: 587
    from: tracker@example.com
`)
	cfg, err := ValidateYAMLContent(content)
	if err != nil {
		t.Fatalf("validate config: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "./team.db" {
		t.Fatalf("expected database path, got %q", cfg.Database.Path)
	}
	if len(cfg.Report.Recipients) != 1 || cfg.Report.Recipients[0] != "lead@example.com" {
		t.Fatalf("unexpected recipients: %v", cfg.Report.Recipients)
	}
}

func TestValidateYAMLContent_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := ValidateYAMLContent([]byte(`{}`))
	if err != nil {
		t.Fatalf("validate empty config: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "./worktrack.db" {
		t.Fatalf("expected default database path, got %q", cfg.Database.Path)
	}
	if len(cfg.Report.Recipients) != 0 {
		t.Fatalf("expected reporting disabled by default, got %v", cfg.Report.Recipients)
	}
}

func TestValidateYAMLContent_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		wantText string
	}{
		{
			name: "port out of range",
			content: `
server:
  port: 123456
`,
			wantText: "validation failed",
		},
		{
			name: "bad recipient address",
			content: `
report:
  recipients:
    - not-an-email
`,
			wantText: "validation failed",
		},
		{
			name: "recipients without smtp host",
			content: `
report:
  recipients:
    - lead@example.com
  smtp:
    host: ""
    port: 587
    from: tracker@example.com
`,
			wantText: "report.smtp.host",
		},
		{
			name: "recipients without smtp from",
			content: `
report:
  recipients:
    - lead@example.com
  smtp:
    host: smtp.example.com
    port: 587
    from: ""
`,
			wantText: "report.smtp.from",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ValidateYAMLContent([]byte(tc.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantText) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantText, err)
			}
		})
	}
}

func TestExampleYAMLIsValid(t *testing.T) {
	t.Parallel()

	if _, err := ValidateYAMLContent([]byte(ExampleYAML())); err != nil {
		t.Fatalf("example config must validate: %v", err)
	}
}
