package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ejg/cestas/internal/config"
	"github.com/ejg/cestas/internal/datamodels/user"
	"github.com/ejg/cestas/internal/repository/mysql"
	"github.com/ejg/cestas/internal/service"
)

var defaultCategories = []string{"Cestas Básicas", "Cestas Especiais", "Produtos Avulsos"}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := openDB(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var seedCategoriesCmd = &cobra.Command{
	Use:   "seed-categories [name...]",
	Short: "Create categories that do not exist yet",
	Long: `Create the given categories, skipping names already present.
Without arguments the default store categories are seeded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		names := args
		if len(names) == 0 {
			names = defaultCategories
		}
		created, err := mysql.SeedCategories(cmd.Context(), mysql.NewCategoryRepository(db), names)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d categories created\n", created)
		return nil
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], user.RoleAdmin)
	},
}

var demoteCmd = &cobra.Command{
	Use:   "demote <email>",
	Short: "Revoke the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], user.RoleCustomer)
	},
}

func setRole(cmd *cobra.Command, email string, role user.Role) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	users := service.NewUserService(mysql.NewUserRepository(db), &config.JWTConfig{}, nil)
	u, err := users.SetRoleByEmail(cmd.Context(), email, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
	return nil
}
