package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	billingmod "github.com/manatomanato/line-uranai-bot/modules/billing"
	"github.com/manatomanato/line-uranai-bot/modules/relay"
	"github.com/manatomanato/line-uranai-bot/pkg/billing"
	"github.com/manatomanato/line-uranai-bot/pkg/config"
	"github.com/manatomanato/line-uranai-bot/pkg/fortune"
	"github.com/manatomanato/line-uranai-bot/pkg/httpserver"
	"github.com/manatomanato/line-uranai-bot/pkg/line"
	"github.com/manatomanato/line-uranai-bot/pkg/logger"
	"github.com/manatomanato/line-uranai-bot/pkg/mongo"
	"github.com/manatomanato/line-uranai-bot/pkg/subscription"
)

const rootPage = "🚀 LINE占いBotが正常に動作しています！"

type appConfig struct {
	// BaseURL is the public URL of this service; it is embedded in payment
	// prompts and checkout redirect URLs.
	BaseURL string `env:"BASE_URL,required"`
}

func main() {
	var (
		appCfg    appConfig
		logCfg    logger.Config
		srvCfg    httpserver.Config
		subCfg    subscription.Config
		lineCfg   line.Config
		openaiCfg fortune.Config
		stripeCfg billing.StripeConfig
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&logCfg)
	config.MustLoad(&srvCfg)
	config.MustLoad(&subCfg)
	config.MustLoad(&lineCfg)
	config.MustLoad(&openaiCfg)
	config.MustLoad(&stripeCfg)

	log := logger.NewFromConfig(logCfg, logger.WithService("line-uranai-bot"))
	slog.SetDefault(log)

	ctx := context.Background()

	store, readiness := buildStore(ctx, subCfg, log)
	gate := subscription.NewService(store, subCfg.FreeMessageLimit, log)

	provider, err := billing.NewStripeProvider(stripeCfg)
	if err != nil {
		log.Error("failed to initialize stripe provider", logger.Error(err))
		os.Exit(1)
	}

	teller := fortune.NewClient(openaiCfg, log)
	pusher := line.NewClient(lineCfg)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, rootPage)
	})
	r.Get("/health", httpserver.HealthCheckHandler(log, readiness...))

	relay.New(gate, teller, pusher, appCfg.BaseURL, log).Register(r)
	billingmod.New(provider, store, appCfg.BaseURL, log).Register(r)

	srv := httpserver.NewFromConfig(srvCfg, httpserver.WithLogger(log))
	if err := srv.Run(ctx, r); err != nil {
		log.Error("http server exited", logger.Error(err))
		os.Exit(1)
	}
}

// requestLogger logs one line per completed request at debug level, with
// the status and duration captured via chi's WrapResponseWriter.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.DebugContext(r.Context(), "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)))
		})
	}
}

// buildStore selects the subscriber-store backend. The mongo backend also
// contributes a readiness check for /health; the file backend needs none.
func buildStore(ctx context.Context, cfg subscription.Config, log *slog.Logger) (subscription.Store, []func(context.Context) error) {
	switch cfg.Driver {
	case "mongo":
		var mongoCfg mongo.Config
		config.MustLoad(&mongoCfg)

		db, err := mongo.NewWithDatabase(ctx, mongoCfg)
		if err != nil {
			log.Error("failed to connect to mongo", logger.Error(err))
			os.Exit(1)
		}
		log.Info("using mongo subscriber store",
			slog.String("database", mongoCfg.Database),
			slog.String("collection", cfg.Collection))
		return subscription.NewMongoStore(db, cfg.Collection),
			[]func(context.Context) error{mongo.Healthcheck(db.Client())}

	case "file":
		fallthrough
	default:
		log.Info("using file subscriber store", slog.String("path", cfg.FilePath))
		return subscription.NewFileStore(cfg.FilePath), nil
	}
}
