// Package cmd provides the CLI commands for opticost.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"opticost/internal/config"
	"opticost/internal/logging"
)

// Version is set at build time with -ldflags "-X opticost/cmd/cli/cmd.Version=..."
var Version = "0.1.0"

var (
	cfgFile string
	envFile string
	verbose bool
	quiet   bool
	noColor bool

	// sheet overrides
	variablesSheet string
	transportSheet string
	catalogSheet   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "opticost",
	Short: "Quote carport installation jobs",
	Long: `opticost turns an installation job description into an itemized cost
quote: crew labour and travel, equipment, material transport and a final
sell price with margin.

Rate sheets (variables, transport prices, model catalog) are read from
local CSV/XLSX files or published CSV URLs named in the config file.

Examples:
  opticost quote job.hcl
  opticost quote job.hcl --format xlsx --out quote.xlsx
  opticost quote job.hcl --logistics modena.json --var spots=14
  opticost rates`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.opticost/config.json)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with secrets such as the logistics API key")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "print only the quote")
	flags.BoolVar(&noColor, "no-color", false, "disable colored output")
	flags.StringVar(&variablesSheet, "variables", "", "variables sheet (overrides config)")
	flags.StringVar(&transportSheet, "transport", "", "transport price sheet (overrides config)")
	flags.StringVar(&catalogSheet, "catalog", "", "model catalog sheet (overrides config)")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(ratesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig(cmd *cobra.Command, args []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if variablesSheet != "" {
		cfg.Sources.Variables = variablesSheet
	}
	if transportSheet != "" {
		cfg.Sources.Transport = transportSheet
	}
	if catalogSheet != "" {
		cfg.Sources.Catalog = catalogSheet
	}
	if noColor {
		cfg.Output.NoColor = true
	}
	config.Set(cfg)

	// Initialize logging
	logCfg := cfg.Logging
	switch {
	case verbose:
		logCfg.Level = "debug"
	case quiet:
		logCfg.Level = "error"
	}
	if err := logging.Initialize(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	return nil
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "opticost version %s\n", Version)
	},
}
