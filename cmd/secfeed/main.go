package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"secfeed/internal/config"
	"secfeed/internal/discover"
	"secfeed/internal/extract"
	"secfeed/internal/fetcher"
	"secfeed/internal/pipeline"
	"secfeed/internal/server"
	"secfeed/internal/store"
	"secfeed/internal/target"
	"secfeed/internal/worker"
)

var (
	logger     *zap.Logger
	redisAddr  string
	badgerPath string

	directURL string
	aiPrompt  string
)

var rootCmd = &cobra.Command{
	Use:   "secfeed",
	Short: "secfeed - security news extraction pipeline",
}

// buildService wires the full pipeline. badgerPath="" gives queue-only
// client mode.
func buildService(cfg *config.Config, st *store.HybridStore) *pipeline.Service {
	f := fetcher.New(cfg.FetchTimeout, cfg.RequestDelay, logger)
	listingFetcher := fetcher.New(cfg.FetchTimeout, cfg.ListingDelay, logger)

	engine := discover.New(listingFetcher, cfg.DiscoveryQuota, logger)
	heuristic := extract.NewHeuristic(f, engine, cfg.MaxPageFetches, cfg.MaxArticles, logger)
	specialized := extract.NewSpecialized(f, logger)

	strategies := []extract.Strategy{specialized}
	if cfg.OpenAIKey != "" {
		ai := extract.NewAI(f, extract.NewOpenAIClient(cfg.OpenAIBase, cfg.OpenAIKey, cfg.OpenAIModel), logger)
		if cfg.AIFirst {
			strategies = append(strategies, ai, heuristic)
		} else {
			strategies = append(strategies, heuristic, ai)
		}
	} else {
		strategies = append(strategies, heuristic)
	}

	cascade := extract.NewCascade(logger, strategies...)
	persister := store.NewPersister(st, logger)
	registry := target.NewRegistry()

	return pipeline.New(registry, cascade, persister, logger)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the crawl worker and HTTP API",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			logger.Info("shutting down")
			cancel()
		}()

		cfg, err := config.Load()
		if err != nil {
			logger.Fatal("failed to load config", zap.Error(err))
		}
		applyFlags(cfg)

		st, err := store.NewHybridStore(cfg.RedisAddr, cfg.BadgerPath, cfg.RecencyWindow)
		if err != nil {
			logger.Fatal("failed to init store", zap.Error(err))
		}
		defer st.Close()

		svc := buildService(cfg, st)

		w := worker.New(st, svc, logger)
		go w.Start(ctx)

		srv := server.New(svc, st, cfg.RecencyWindow, logger)
		go func() {
			if err := srv.Start(cfg.HTTPAddr); err != nil {
				logger.Error("http server stopped", zap.Error(err))
				cancel()
			}
		}()

		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
		logger.Info("goodbye")
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl [target-id]",
	Short: "Run extraction for a target once and print the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			logger.Fatal("failed to load config", zap.Error(err))
		}
		applyFlags(cfg)

		st, err := store.NewHybridStore(cfg.RedisAddr, cfg.BadgerPath, cfg.RecencyWindow)
		if err != nil {
			logger.Fatal("failed to init store", zap.Error(err))
		}
		defer st.Close()

		svc := buildService(cfg, st)

		result, err := svc.Run(cmd.Context(), pipeline.Request{
			TargetID:  args[0],
			DirectURL: directURL,
			Prompt:    aiPrompt,
		})
		if err != nil {
			logger.Fatal("extraction failed", zap.Error(err))
		}

		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
	},
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [target-id]",
	Short: "Queue a crawl for the worker to pick up",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			logger.Fatal("failed to load config", zap.Error(err))
		}
		applyFlags(cfg)

		// Client mode: no Badger lock needed just to push a job.
		st, err := store.NewHybridStore(cfg.RedisAddr, "", cfg.RecencyWindow)
		if err != nil {
			logger.Fatal("failed to init store", zap.Error(err))
		}
		defer st.Close()

		if err := st.EnqueueCrawl(cmd.Context(), args[0]); err != nil {
			logger.Fatal("failed to enqueue crawl", zap.Error(err))
		}
		logger.Info("crawl queued", zap.String("target", args[0]))
	},
}

func applyFlags(cfg *config.Config) {
	if redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}
	if badgerPath != "" {
		cfg.BadgerPath = badgerPath
	}
}

func main() {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Address of Redis server (overrides env)")
	rootCmd.PersistentFlags().StringVar(&badgerPath, "badger", "", "Path to BadgerDB data directory (overrides env)")
	crawlCmd.Flags().StringVar(&directURL, "url", "", "Extract a single page instead of running discovery")
	crawlCmd.Flags().StringVar(&aiPrompt, "prompt", "", "Custom instruction for the AI extractor")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(enqueueCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
