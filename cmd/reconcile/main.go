// The reconcile tool repairs drift between product image records and
// the files under the uploads root. Dry-run by default; --apply writes.
//
// Exit code is non-zero only when the database or the uploads root is
// unreachable. Individual product failures are reported in the outcome
// table and never change the exit code: re-running the batch is the
// retry mechanism.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LukasBrandt/ShopCore/app/repository"
	"github.com/LukasBrandt/ShopCore/internal/pkg/config"
	"github.com/LukasBrandt/ShopCore/internal/pkg/database"
	"github.com/LukasBrandt/ShopCore/internal/pkg/env"
	"github.com/LukasBrandt/ShopCore/internal/pkg/reconcile"
	"github.com/LukasBrandt/ShopCore/internal/pkg/storage"
)

var applyChanges bool

var rootCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile product image records against the uploads directory",
	Long: `Compares every product's image records against the files actually
present in its uploads directory, prunes records whose file is gone and
promotes one file per product to the canonical slot (sort_order = 0).

Without --apply the tool prints what a real run would do, classified
identically, and changes nothing.`,
	RunE:          runReconcile,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.Flags().BoolVar(&applyChanges, "apply", false, "Perform filesystem copies and database writes")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	env.SetupEnvFile()

	if _, err := config.Load(); err != nil {
		return err
	}

	// Resource acquisition failures abort the whole batch before any
	// entity is processed.
	if err := database.Connect(); err != nil {
		return fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := storage.Setup(); err != nil {
		return fmt.Errorf("cannot open uploads root: %w", err)
	}

	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalFactory().GetRepositories()

	engine := reconcile.NewEngine(repos.Product, repos.ProductImage, storage.Default(), !applyChanges)
	report, err := engine.Run()
	if err != nil {
		return err
	}

	report.Print(cmd.OutOrStdout())
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
