package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayaka-io/animatch/ai"
	"github.com/ayaka-io/animatch/ingest"
	"github.com/ayaka-io/animatch/internal/profile"
	"github.com/ayaka-io/animatch/internal/version"
	"github.com/ayaka-io/animatch/recommend"
	"github.com/ayaka-io/animatch/server"
	"github.com/ayaka-io/animatch/store"
	"github.com/ayaka-io/animatch/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "animatch",
	Short: "Anime recommendation backend combining vector similarity search with popularity re-ranking.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Ignore a missing .env; env vars may come from the process.
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := loadProfile()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", "error", err)
			return
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		defer storeInstance.Close()
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate", "error", err)
			return
		}

		engine, err := newEngine(instanceProfile, storeInstance)
		if err != nil {
			slog.Error("failed to create recommendation engine", "error", err)
			return
		}

		s := server.NewServer(instanceProfile, engine)

		c := make(chan os.Signal, 1)
		// SIGTERM is the graceful-shutdown signal used by most process
		// managers (systemd, kubernetes).
		signal.Notify(c, terminationSignals...)
		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		if err := s.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
			return
		}
		<-ctx.Done()
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Generate embeddings for the anime corpus and store them in the vector index.",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := loadProfile()

		ctx := context.Background()
		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return err
		}
		defer dbDriver.Close()
		if err := dbDriver.Migrate(ctx); err != nil {
			return err
		}

		aiConfig := ai.NewConfigFromProfile(instanceProfile)
		embedder, err := ai.NewEmbeddingService(&aiConfig.Embedding)
		if err != nil {
			return err
		}

		ingester := ingest.New(dbDriver, embedder, aiConfig.Embedding.Model, ingest.Options{
			Concurrency:       viper.GetInt("concurrency"),
			RequestsPerSecond: viper.GetFloat64("rps"),
		})
		processed, err := ingester.Run(ctx)
		slog.Info("ingestion done", "processed", processed)
		return err
	},
}

// loadProfile assembles the instance profile from flags and environment.
func loadProfile() *profile.Profile {
	instanceProfile := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		panic(err)
	}

	if instanceProfile.Mode == "prod" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}
	slog.Info("profile loaded", "profile", instanceProfile.String())
	return instanceProfile
}

// newEngine wires the recommendation pipeline with its collaborators.
// Without an LLM API key the query interpreter always falls back to the
// keyword heuristic, which keeps the pipeline usable in dev.
func newEngine(p *profile.Profile, s *store.Store) (*recommend.Engine, error) {
	aiConfig := ai.NewConfigFromProfile(p)

	embedder, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, err
	}

	var llm recommend.Completer
	if aiConfig.Enabled {
		llm, err = ai.NewLLMService(&aiConfig.LLM)
		if err != nil {
			return nil, err
		}
	} else {
		slog.Warn("LLM API key not configured, query interpretation uses the keyword fallback")
		llm = unavailableLLM{}
	}

	return recommend.NewEngine(s, s, embedder, llm, recommend.Options{
		FallbackTotalDocs: p.FallbackTotalDocs,
	}), nil
}

// unavailableLLM always fails, which routes the interpreter into its
// deterministic fallback branch.
type unavailableLLM struct{}

func (unavailableLLM) Complete(context.Context, string) (string, error) {
	return "", errors.New("llm not configured")
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "postgres")
	viper.SetDefault("port", 18080)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 18080, "port of server")
	rootCmd.PersistentFlags().String("driver", "postgres", "database driver (postgres, sqlite)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name (aka. DSN)")

	ingestCmd.Flags().Int("concurrency", 4, "number of concurrent embedding calls")
	ingestCmd.Flags().Float64("rps", 5, "embedding API requests per second")

	for _, flag := range []string{"mode", "addr", "port", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	for _, flag := range []string{"concurrency", "rps"} {
		if err := viper.BindPFlag(flag, ingestCmd.Flags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
