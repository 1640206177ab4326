package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaz1409/work-location-tracker/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values.`,
	Example: `
  # Show active configuration
  worktrack config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
			fmt.Println("Configuration:")
			fmt.Printf("server.port: %d\n", cfg.Server.Port)
			fmt.Printf("database.path: %s\n", cfg.Database.Path)
			fmt.Printf("report.recipients: %s\n", strings.Join(cfg.Report.Recipients, ", "))
			fmt.Printf("report.smtp.host: %s\n", cfg.Report.SMTP.Host)
			fmt.Printf("report.smtp.port: %d\n", cfg.Report.SMTP.Port)
			fmt.Printf("report.smtp.username: %s\n", cfg.Report.SMTP.Username)
			fmt.Printf("report.smtp.from: %s\n", cfg.Report.SMTP.From)
		}
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
