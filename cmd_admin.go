// cmd_admin.go - Database maintenance commands

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kkmt-store/auth"
	"kkmt-store/database"
	"kkmt-store/models"
)

var (
	// mark-featured flags
	featuredCount int

	// create-admin flags
	adminEmail    string
	adminPassword string
	adminName     string
)

// migrateCmd creates or updates every table
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Auto-migrate the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema migrated", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

// seedCmd loads the demo taxonomy and products
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo categories and products",
	Long: `Upserts the demo category tree and four demo products by SKU.
Running it again refreshes the same rows instead of adding new ones.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		return database.Seed(cmd.Context(), db, logger)
	},
}

// markFeaturedCmd replaces the featured set with the newest products
var markFeaturedCmd = &cobra.Command{
	Use:   "mark-featured",
	Short: "Feature the newest active products",
	Long: `Clears every featured flag, then features the newest active products.

Examples:
  kkmt mark-featured             # Feature the 4 newest products
  kkmt mark-featured --count 8   # Feature the 8 newest products`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if featuredCount < 1 {
			return errors.New("--count must be at least 1")
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		picks, err := models.NewProductsRepository(db).MarkFeatured(cmd.Context(), featuredCount)
		if err != nil {
			return fmt.Errorf("mark featured: %w", err)
		}
		if len(picks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No active products to feature.")
			return nil
		}
		for _, p := range picks {
			fmt.Fprintf(cmd.OutOrStdout(), "Featured #%d %s\n", p.ID, p.Name)
		}
		return nil
	},
}

// createAdminCmd creates an administrator or promotes an existing account
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create or promote an administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		email := models.NormalizeEmail(adminEmail)
		if email == "" || adminPassword == "" {
			return errors.New("--email and --password are required")
		}
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		hash, err := auth.HashPassword(adminPassword)
		if err != nil {
			return err
		}
		user, created, err := models.NewUsersRepository(db).UpsertAdmin(cmd.Context(), adminName, email, hash)
		if err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s\n", user.Email)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Promoted %s to admin and reset the password\n", user.Email)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, seedCmd, markFeaturedCmd, createAdminCmd)

	markFeaturedCmd.Flags().IntVar(&featuredCount, "count", 4, "Number of products to feature")

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email (required)")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (required)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "Display name")
}
