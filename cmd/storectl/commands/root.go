package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ejg/cestas/internal/config"
	"github.com/ejg/cestas/internal/logger"
	"github.com/ejg/cestas/internal/repository/mysql"
)

var (
	configDir string
	dsn       string
)

var rootCmd = &cobra.Command{
	Use:   "storectl",
	Short: "Operator tasks for the EJG Cestas Básicas store",
	Long: `storectl runs maintenance tasks directly against the store database:
schema migration, category seeding and admin role management.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", config.Dir(), "Directory holding config.yaml")
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", "", "MySQL DSN (overrides config)")

	rootCmd.AddCommand(migrateCmd, seedCategoriesCmd, promoteCmd, demoteCmd)
}

// openDB loads config, installs the logger and connects. Connecting migrates
// the schema.
func openDB() (*gorm.DB, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	cfg.Log.Development = true
	if _, err := logger.Init(&cfg.Log); err != nil {
		return nil, err
	}
	if dsn != "" {
		cfg.MySQL.DSN = dsn
	}
	db, err := mysql.Open(mysql.Dialector(&cfg.MySQL))
	if err != nil {
		zap.L().Error("connect", zap.Error(err))
		return nil, err
	}
	return db, nil
}
