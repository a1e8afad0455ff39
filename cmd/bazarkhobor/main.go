// Command bazarkhobor runs one role of the news pipeline: the producer that
// crawls and publishes raw batches, the consumer that normalizes and stores
// them, the notifier that mails digests, or the HTTP facade.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Adda-Baaj/bazar-khobor/internal/config"
	"github.com/Adda-Baaj/bazar-khobor/internal/digest"
	"github.com/Adda-Baaj/bazar-khobor/internal/journal"
	"github.com/Adda-Baaj/bazar-khobor/internal/llm"
	"github.com/Adda-Baaj/bazar-khobor/internal/logger"
	"github.com/Adda-Baaj/bazar-khobor/internal/mailer"
	"github.com/Adda-Baaj/bazar-khobor/internal/normalizer"
	"github.com/Adda-Baaj/bazar-khobor/internal/notifier"
	"github.com/Adda-Baaj/bazar-khobor/internal/producer"
	"github.com/Adda-Baaj/bazar-khobor/internal/server"
	"github.com/Adda-Baaj/bazar-khobor/internal/store"
	"github.com/Adda-Baaj/bazar-khobor/internal/vectorstore"
	"github.com/Adda-Baaj/bazar-khobor/pkg/extractor"
	"github.com/Adda-Baaj/bazar-khobor/pkg/publishers"
	"github.com/Adda-Baaj/bazar-khobor/pkg/queue"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "bazarkhobor",
		Short:         "News crawl, normalization and digest pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file")

	root.AddCommand(
		newProduceCommand(&configPath),
		newConsumeCommand(&configPath),
		newNotifyCommand(&configPath),
		newServeCommand(&configPath),
	)
	return root
}

func loadRuntime(configPath string) (config.Config, logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newProduceCommand(configPath *string) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "produce",
		Short: "Crawl configured sources and publish raw batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			registry, err := publishers.LoadRegistry(cfg.Producer.PublishersFile)
			if err != nil {
				return err
			}
			pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), registry.Enabled(), log)
			if err != nil {
				return err
			}
			if len(pubs) == 0 {
				return fmt.Errorf("no enabled publishers in %s", cfg.Producer.PublishersFile)
			}

			fetchers := extractor.DefaultRegistry(extractor.DefaultHTTPClient())
			p := producer.New(cfg.Producer.Sources, fetchers, pubs, cfg.Producer.Interval, log)

			if once {
				p.RunCycle(ctx)
				return nil
			}
			return p.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single crawl cycle and exit")
	return cmd
}

func newConsumeCommand(configPath *string) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Drain raw batches, normalize them and persist articles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			receiver, err := queue.NewSQSReceiver(ctx, queue.SQSConfig{
				QueueURL:        cfg.Consumer.Queue.URL,
				Region:          cfg.Consumer.Queue.Region,
				AccessKeyID:     cfg.Consumer.Queue.AccessKey,
				SecretAccessKey: cfg.Consumer.Queue.SecretKey,
				WaitTimeSeconds: cfg.Consumer.Queue.WaitTimeSeconds,
			})
			if err != nil {
				return err
			}

			model, err := llm.NewClient(ctx, llm.Config{
				APIKey:         cfg.Gemini.APIKey,
				Model:          cfg.Gemini.Model,
				EmbeddingModel: cfg.Gemini.EmbeddingModel,
			})
			if err != nil {
				return err
			}
			defer model.Close()

			mongo, err := store.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
			if err != nil {
				return err
			}
			defer mongo.Close(context.Background())

			vectors, err := vectorstore.NewPgVector(ctx, cfg.Vector.DSN, model)
			if err != nil {
				return err
			}
			defer vectors.Close()

			jnl, err := journal.Open(cfg.Consumer.Journal)
			if err != nil {
				return err
			}
			defer jnl.Close()

			c := normalizer.New(receiver, model, mongo, vectors, jnl, cfg.Consumer.IdleWait, log)

			if once {
				for {
					processed, err := c.Drain(ctx)
					if err != nil {
						return err
					}
					if !processed {
						return nil
					}
				}
			}
			return c.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "drain the queue until empty and exit")
	return cmd
}

func newNotifyCommand(configPath *string) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Match stored articles to user preferences and send digests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			mongo, err := store.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
			if err != nil {
				return err
			}
			defer mongo.Close(context.Background())

			renderer, err := digest.NewRenderer()
			if err != nil {
				return err
			}

			sender := mailer.NewNovu(cfg.Novu.APIKey, cfg.Novu.Endpoint, cfg.Novu.Workflow)

			n := notifier.New(mongo, mongo, renderer, sender, cfg.Notifier.DocumentWindow, cfg.Notifier.Interval, log)

			if once {
				return n.RunCycle(ctx)
			}
			return n.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single digest cycle and exit")
	return cmd
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat and preference HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			model, err := llm.NewClient(ctx, llm.Config{
				APIKey:         cfg.Gemini.APIKey,
				Model:          cfg.Gemini.Model,
				EmbeddingModel: cfg.Gemini.EmbeddingModel,
			})
			if err != nil {
				return err
			}
			defer model.Close()

			mongo, err := store.NewMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
			if err != nil {
				return err
			}
			defer mongo.Close(context.Background())

			vectors, err := vectorstore.NewPgVector(ctx, cfg.Vector.DSN, model)
			if err != nil {
				return err
			}
			defer vectors.Close()

			srv := &http.Server{
				Addr:    cfg.Server.Addr,
				Handler: server.New(model, vectors, mongo, mongo, log).Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				log.InfoObj("http server listening", "server_start", map[string]any{
					"addr": cfg.Server.Addr,
				})
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return srv.Shutdown(context.Background())
			}
		},
	}
}
