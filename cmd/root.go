/*
Copyright © 2026 shaz1409

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shaz1409/work-location-tracker/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "worktrack",
	Short: "Track and report where the team works each day.",
	Long: `
**********************************************
*            WORK LOCATION TRACKER           *
**********************************************

worktrack records one work location per person per day in a local SQLite
database, serves a team dashboard and JSON API, and mails a weekly office
attendance report.

Each person is identified by their typed name; "Riad", "riad" and " RIAD "
are the same person, and resubmitting a week overwrites only the days sent.
`,
	Example: `
  # Create configuration file
  worktrack config create

  # Bring the database schema and identity index up to date
  worktrack migrate --db ./worktrack.db

  # Start the team web server
  worktrack serve --port 8080 --db ./worktrack.db

  # Preview last week's attendance report without sending it
  worktrack report --dry-run

  # Export raw entries
  worktrack export --mode raw --output ./entries.csv

  # Export per-person attendance summary for a range
  worktrack export --mode attendance --from 2026-08-01 --to 2026-08-31 --output ./attendance.xlsx
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.worktrack.yaml, then ./.worktrack.yaml)")

	rootCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if !requiresConfig(cmd) {
			return nil
		}

		_, err := config.LoadAndValidate()
		return err
	}
}

func requiresConfig(cmd *cobra.Command) bool {
	return cmd != nil && (cmd.Name() == "serve" || cmd.Name() == "report")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".worktrack" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".worktrack")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: worktrack config create")
	}
}
