// Package main provides the FreshCart CLI entrypoint.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/freshcart/freshcart/internal/cache"
	"github.com/freshcart/freshcart/internal/catalog"
	"github.com/freshcart/freshcart/internal/config"
	"github.com/freshcart/freshcart/internal/observability"
	"github.com/freshcart/freshcart/internal/pricing"
	"github.com/freshcart/freshcart/internal/storage"
	"github.com/freshcart/freshcart/internal/suggest"
	"github.com/freshcart/freshcart/internal/voice"
)

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	noColor    bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "freshcart-cli",
	Short: "FreshCart CLI for catalog administration and command testing",
	Long: `FreshCart CLI provides commands for managing the grocery catalog.

Use this tool to:
- Add and list catalog products
- Define discounts
- Try voice commands against a local cart
- Browse current deals

All commands support --json for automation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}

		logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      logFormat,
			ServiceName: "freshcart-cli",
		})

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newProductCmd())
	rootCmd.AddCommand(newDiscountCmd())
	rootCmd.AddCommand(newSayCmd())
	rootCmd.AddCommand(newDealsCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// stores bundles the repositories and services the CLI commands share.
type stores struct {
	db       *sql.DB
	catalog  *storage.CatalogRepository
	carts    *storage.CartRepository
	resolver *catalog.Resolver
	service  *catalog.Service
	pricer   *pricing.Resolver
	suggest  *suggest.Service
	voice    *voice.Dispatcher
}

func (s *stores) Close() error {
	return s.db.Close()
}

// openStores connects to the configured database and wires up the service
// stack the same way the API server does.
func openStores() (*stores, error) {
	driver := cfg.Database.Driver
	if driver == "sqlite" {
		driver = "sqlite3"
	}

	db, err := sql.Open(driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	catalogRepo := storage.NewCatalogRepository(db)
	categoryRepo := storage.NewCategoryRepository(db)
	discountRepo := storage.NewDiscountRepository(db)
	orderRepo := storage.NewOrderRepository(db)
	cartRepo := storage.NewCartRepository(db)

	resolver := catalog.NewResolver(catalogRepo, catalog.ResolverConfig{
		CandidateLimit: cfg.Resolver.CandidateLimit,
		DisplayLimit:   cfg.Resolver.DisplayLimit,
	})
	linker := catalog.NewLinker(catalogRepo, cfg.Substitutes.MinTokenLength)
	service := catalog.NewService(catalogRepo, categoryRepo, linker, logger)
	pricer := pricing.NewResolver(discountRepo, cache.NewMemoryClient(cfg.Cache.MaxEntries), logger, pricing.Config{
		CacheResults: cfg.Pricing.CacheResults,
		CacheTTL:     cfg.Pricing.CacheTTL,
		MaxBatch:     cfg.Pricing.MaxBatch,
	})
	suggestService := suggest.NewService(catalogRepo, orderRepo, discountRepo, pricer, logger)
	dispatcher := voice.NewDispatcher(resolver, cartRepo, pricer, logger, voice.DispatcherConfig{
		MaxQuantity: cfg.Voice.MaxQuantity,
	})

	return &stores{
		db:       db,
		catalog:  catalogRepo,
		carts:    cartRepo,
		resolver: resolver,
		service:  service,
		pricer:   pricer,
		suggest:  suggestService,
		voice:    dispatcher,
	}, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("freshcart-cli v1.0.0")
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStores()
			if err != nil {
				return err
			}
			defer s.Close()

			ui := NewUI(outputJSON, noColor)
			if err := storage.Migrate(cmd.Context(), s.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			ui.Success("Schema is up to date")
			return nil
		},
	}
}
