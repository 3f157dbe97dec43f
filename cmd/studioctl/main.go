// Command studioctl runs operator tasks against the studio database.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/techtribe/studio-api/internal/auth"
	"github.com/techtribe/studio-api/internal/catalogue"
	"github.com/techtribe/studio-api/internal/config"
	"github.com/techtribe/studio-api/internal/db"
	"github.com/techtribe/studio-api/internal/logging"
)

var (
	cfg config.Config
	log *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "studioctl",
	Short:         "Operator tools for the TechTribe studio backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		cfg = config.Load()
		if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
			cfg.DBDSN = dsn
		}
		log = logging.New(cfg.LogLevel, cfg.LogFormat)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update all tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openDB(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrated")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default catalogue when it is empty",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := openDB()
		if err != nil {
			return err
		}
		svc := catalogue.NewService(catalogue.NewRepo(gdb), cfg.StoreTimeout, log)
		n, inserted, err := svc.Seed(cmd.Context())
		if err != nil {
			return err
		}
		if inserted {
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d items\n", n)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "catalogue already has %d items, nothing to do\n", n)
		}
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Provision an admin account without the shared admin secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("STUDIOCTL_PASSWORD")
		}

		gdb, err := openDB()
		if err != nil {
			return err
		}
		svc := auth.NewService(auth.NewRepo(gdb), auth.Options{
			JWTSecret:   cfg.JWTSecret,
			Issuer:      cfg.JWTIssuer,
			TokenTTL:    cfg.TokenTTL,
			AdminSecret: cfg.AdminSecret,
			Timeout:     cfg.StoreTimeout,
		}, log)
		u, err := svc.CreateAdmin(cmd.Context(), name, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Email, u.ID)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("dsn", "", "database DSN, overrides DB_DSN")

	createAdminCmd.Flags().String("name", "", "display name")
	createAdminCmd.Flags().String("email", "", "login email")
	createAdminCmd.Flags().String("password", "", "password, or set STUDIOCTL_PASSWORD")
	_ = createAdminCmd.MarkFlagRequired("name")
	_ = createAdminCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(migrateCmd, seedCmd, createAdminCmd)
}

func openDB() (*gorm.DB, error) {
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
