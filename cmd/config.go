package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage worktrack configuration file values.",
	Long: `Create, edit, display, and delete the worktrack configuration file.

The configuration stores application-wide values:
- server.port
- database.path
- report.recipients
- report.smtp.host / port / username / password / from`,
	Example: `
  # Create default config in $HOME/.worktrack.yaml
  worktrack config create

  # Show active config and source file
  worktrack config show

  # Open active config in editor (creates example if missing)
  worktrack config edit

  # Delete active config file
  worktrack config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
