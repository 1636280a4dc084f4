package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ukaddresskit/ukaddresskit/internal/config"
	"github.com/ukaddresskit/ukaddresskit/internal/db"
	"github.com/ukaddresskit/ukaddresskit/internal/models"
	"github.com/ukaddresskit/ukaddresskit/internal/parser"
	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
)

var dbConn *db.Connection

func main() {
	config.LoadEnv()

	var err error
	dbConn, err = db.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	rootCmd := &cobra.Command{
		Use:   "bulk-parser",
		Short: "Bulk address structuring against Postgres",
		Long:  `Reads raw addresses from a source table, structures them with the address pipeline and writes the fields back.`,
	}

	rootCmd.AddCommand(createPingCmd())
	rootCmd.AddCommand(createRunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			if err := dbConn.DB.Ping(); err != nil {
				log.Fatalf("Database ping failed: %v", err)
			}
			fmt.Println("Database connection successful!")
		},
	}
}

// createRunCmd creates the run subcommand
func createRunCmd() *cobra.Command {
	var source, target, model string
	var workers, limit int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Structure every raw address in the source table",
		Run: func(cmd *cobra.Command, args []string) {
			tables, err := refdata.Load()
			if err != nil {
				log.Fatalf("Failed to load reference tables: %v", err)
			}
			manager, err := models.NewManager()
			if err != nil {
				log.Fatalf("Failed to locate model cache: %v", err)
			}
			tg, err := manager.Open(model)
			if err != nil {
				log.Fatalf("Failed to open tagging model: %v", err)
			}

			bulk := &db.BulkParser{
				Conn:    dbConn,
				Parser:  parser.New(tables, tg),
				Workers: workers,
			}
			stats, err := bulk.Run(context.Background(), source, target, limit)
			if err != nil {
				log.Fatalf("Bulk parse failed: %v", err)
			}
			fmt.Printf("Read %d, parsed %d, failed %d in %v\n",
				stats.Read, stats.Parsed, stats.Failed, stats.Elapsed)
		},
	}

	cmd.Flags().StringVar(&source, "source", "raw_addresses", "source table holding (id, raw_address)")
	cmd.Flags().StringVar(&target, "target", "structured_addresses", "target table for structured rows")
	cmd.Flags().StringVar(&model, "model", "", "path to a tagging model file")
	cmd.Flags().IntVar(&workers, "workers", 8, "parse concurrency")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to process (0 = all)")
	return cmd
}
