package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ledger/internal/config"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentCLI)
	applog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ledger-import",
	Short: "Import transactions into the ledger from CSV files",
	Long: `ledger-import loads transaction batches from CSV files straight into
the ledger database, resolving categories the same way the API does.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Use --help for available commands")
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a CSV file of transactions",
	Long:  `Import a CSV file of transactions. The source file is removed after a successful import.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		cfg := config.Load()
		importer := services.NewImportService(repo, repo, nil, cfg.UploadDir)

		transactions, err := importer.ImportPath(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("import %s: %w", args[0], err)
		}

		fmt.Printf("Imported %d transactions from %s\n", len(transactions), args[0])
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the current income, outcome, and total balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		balance, err := repo.Balance(cmd.Context())
		if err != nil {
			return fmt.Errorf("compute balance: %w", err)
		}

		fmt.Printf("income:  %s\n", balance.Income.DecimalString())
		fmt.Printf("outcome: %s\n", balance.Outcome.DecimalString())
		fmt.Printf("total:   %s\n", balance.Total.DecimalString())
		return nil
	},
}

func openRepository() (*storage.SQLiteRepository, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.SQLiteDBPath, err)
	}
	return repo, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(balanceCmd)
}
