package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tokocart/internal/app"
	"tokocart/internal/config"
	"tokocart/internal/consolidation"
	"tokocart/internal/repositories"
	"tokocart/internal/services"
	"tokocart/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v = viper.New()

	autoMergeDryRun bool
)

var rootCmd = &cobra.Command{
	Use:          "tokocart",
	Short:        "Cart consolidation service for multi-cart orders",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the auto-merge queue consumer",
	RunE:  runServe,
}

var autoMergeCmd = &cobra.Command{
	Use:   "automerge <order-id>",
	Short: "Run one auto-merge pass over an order",
	Long: `Scores every pair of carts in the order and merges pairs whose
confidence is above AUTOMERGE_THRESHOLD. With --dry-run the pairs are
printed and nothing is saved.`,
	Args: cobra.ExactArgs(1),
	RunE: runAutoMerge,
}

func init() {
	v.AutomaticEnv()
	config.SetDefaults(v)

	autoMergeCmd.Flags().Int("threshold", consolidation.DefaultAutoMergeThreshold, "confidence a pair must exceed to merge (0-100)")
	autoMergeCmd.Flags().String("strategy", string(consolidation.StrategyByProduct), "merge strategy: byProduct, byTime or manual")
	autoMergeCmd.Flags().BoolVar(&autoMergeDryRun, "dry-run", false, "print the pairs that would merge without saving")
	_ = v.BindPFlag("AUTOMERGE_THRESHOLD", autoMergeCmd.Flags().Lookup("threshold"))
	_ = v.BindPFlag("AUTOMERGE_STRATEGY", autoMergeCmd.Flags().Lookup("strategy"))

	rootCmd.AddCommand(serveCmd, autoMergeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	app.SeedProducts(repositories.NewGORMProductRepository(db))

	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQEnabled {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		defer mqClient.Close()
		publisher = mqClient
	}

	a := app.New(cfg, db, publisher)

	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for auto-merge requests...")
			if err := mqClient.Consume(rabbitmq.DefaultAutoMergeQueue, app.AutoMergeConsumer(a.Carts)); err != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", err)
			}
		}()
	}

	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := a.Fiber.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	if err := a.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
	return nil
}

func runAutoMerge(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	a := app.New(cfg, db, nil)
	return autoMergeOrder(cmd.Context(), cmd, a.Carts, cfg.AutoMerge, args[0], autoMergeDryRun)
}

func autoMergeOrder(ctx context.Context, cmd *cobra.Command, carts *services.CartService, policy consolidation.Config, orderID string, dryRun bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if dryRun {
		current, err := carts.ListCarts(ctx, orderID)
		if err != nil {
			return err
		}
		result := consolidation.AutoMerge(current, policy, consolidation.Now(app.AutoMergeActor))
		for _, p := range result.Merged {
			fmt.Fprintf(out, "would merge %q into %q (%d%%, %s)\n", p.CartA.Name, p.CartB.Name, p.Confidence(), p.Reason)
		}
		fmt.Fprintf(out, "%d carts -> %d carts\n", len(current), len(result.Carts))
		return nil
	}

	summary, err := carts.AutoMerge(ctx, orderID, app.AutoMergeActor)
	if err != nil {
		return fmt.Errorf("%s: %w", consolidation.Describe(err), err)
	}
	for _, s := range summary.Merged {
		fmt.Fprintf(out, "merged %q into %q (%d%%, %s)\n", s.SourceName, s.TargetName, s.Confidence, s.Reason)
	}
	fmt.Fprintf(out, "order %s now has %d carts, total %.2f\n", orderID, len(summary.Order.Carts), summary.Order.TotalAmount)
	return nil
}
