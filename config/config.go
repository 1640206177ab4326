package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyServerPort       = "server.port"
	KeyDatabasePath     = "database.path"
	KeyReportRecipients = "report.recipients"
	KeyReportSMTPHost   = "report.smtp.host"
	KeyReportSMTPPort   = "report.smtp.port"
	KeyReportSMTPFrom   = "report.smtp.from"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Report   ReportConfig   `mapstructure:"report"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"gte=1,lte=65535"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type ReportConfig struct {
	Recipients []string   `mapstructure:"recipients" validate:"dive,email"`
	SMTP       SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# worktrack configuration
server:
  port: 8080

database:
  path: "./worktrack.db"

report:
  recipients: []
  smtp:
    host: ""
    port: 587
    username: ""
    password: ""
    from: ""
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateReport(cfg.Report); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerPort, 8080)
	v.SetDefault(KeyDatabasePath, "./worktrack.db")
	v.SetDefault(KeyReportRecipients, []string{})
	v.SetDefault(KeyReportSMTPHost, "")
	v.SetDefault(KeyReportSMTPPort, 587)
	v.SetDefault(KeyReportSMTPFrom, "")
}

// validateReport requires a usable SMTP setup once recipients are configured;
// an empty recipient list disables reporting and skips the checks.
func validateReport(cfg ReportConfig) error {
	if len(cfg.Recipients) == 0 {
		return nil
	}
	if strings.TrimSpace(cfg.SMTP.Host) == "" {
		return fmt.Errorf("validation failed: report.smtp.host is required when recipients are set")
	}
	if cfg.SMTP.Port <= 0 {
		return fmt.Errorf("validation failed: report.smtp.port is required when recipients are set")
	}
	if strings.TrimSpace(cfg.SMTP.From) == "" {
		return fmt.Errorf("validation failed: report.smtp.from is required when recipients are set")
	}
	return nil
}
