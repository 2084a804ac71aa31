// main.go - Entry point for the KKMT storefront server and admin CLI

package main // Declares the package name

import ( // Import required packages
	"fmt" // Error wrapping
	"os"  // Exit codes

	"github.com/spf13/cobra" // Command line interface
	"go.uber.org/zap"        // Structured logging
	"gorm.io/gorm"           // Database handle

	"kkmt-store/config"   // Project config management
	"kkmt-store/database" // Database connection and setup
	"kkmt-store/logging"  // Logger construction
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Loaded once per invocation
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd runs the server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   "kkmt",
	Short: "KKMT motorcycle parts storefront",
	Long: `kkmt serves the Kuya Kardz Motorcycle Trading storefront and its admin
back-office, and carries the maintenance commands for its database.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// STEP 1: Load configuration (.env, YAML file, environment)
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		// STEP 2: Build the logger
		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// openDB connects to the configured database
func openDB() (*gorm.DB, error) {
	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("DB connection error: %w", err)
	}
	return db, nil
}

func main() { // Main function, program entry point
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
