package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"growth-calculator/config"
	"growth-calculator/internal/cache"
	"growth-calculator/internal/cagr"
	"growth-calculator/internal/fetcher"
	"growth-calculator/internal/index"
	"growth-calculator/internal/metrics"
	"growth-calculator/internal/telegram"
	"growth-calculator/internal/types"
	"growth-calculator/internal/web"
	"growth-calculator/lib/translation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func init() {
	config.InitConfig()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func setupLogging() {
	log.SetLevel(log.WarnLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting growth calculator...")
}

// app holds the CAGR pipeline: cache, sources, worker pool, resolver and aggregator.
type app struct {
	store      *cache.Store
	pool       *fetcher.Pool
	resolver   *cagr.Resolver
	aggregator *index.Aggregator
	spec       types.IndexSpec
	metrics    *metrics.Metrics
}

func newApp(reg prometheus.Registerer) (*app, error) {
	spec, err := index.LoadSpec(config.GetString("indices_file"))
	if err != nil {
		return nil, err
	}

	m := metrics.New(reg)
	store := cache.Open(config.GetString("cache_file"))

	router := &fetcher.Router{
		Stocks:  fetcher.NewYahoo(config.GetString("yahoo_base_url"), &http.Client{Timeout: config.GetDuration("fetch_timeout")}),
		Crypto:  fetcher.NewCoinpaprika(config.GetString("api_pro_key")),
		Metrics: m,
	}
	pool := fetcher.NewPool(router, config.GetInt("fetch_workers"), config.GetDuration("fetch_timeout"))

	resolver := cagr.NewResolver(store, pool,
		cagr.WithPeriod(config.GetInt("period_years")),
		cagr.WithExpiration(config.GetDuration("cache_ttl")),
		cagr.WithMetrics(m),
	)

	return &app{
		store:      store,
		pool:       pool,
		resolver:   resolver,
		aggregator: index.NewAggregator(resolver, index.DefaultConcurrency),
		spec:       spec,
		metrics:    m,
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}

func serve(ctx context.Context) error {
	translation.Configure(config.GetString("locales_dir"), config.GetString("lang"))

	a, err := newApp(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	index.StartRefresher(ctx, a.aggregator, a.spec, config.GetDuration("refresh_interval"))

	go func() {
		if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
			log.Errorf("Failed to start metrics and health server: %v", err)
		}
	}()

	if token := config.GetString("telegram_bot_token"); token != "" {
		bot, err := telegram.NewBot(telegram.BotConfig{
			Token:          token,
			Debug:          config.GetBool("debug"),
			UpdatesTimeout: 60,
			PeriodYears:    a.resolver.PeriodYears(),
		}, a.aggregator, a.spec)
		if err != nil {
			return errors.Wrap(err, "failed to create bot")
		}

		updates, err := bot.GetUpdatesChannel()
		if err != nil {
			return errors.Wrap(err, "failed to get updates channel")
		}
		defer bot.StopReceivingUpdates()

		go handleUpdates(ctx, bot, updates, a.metrics)
	}

	srv, err := web.NewServer(web.Config{
		Indices:     a.aggregator,
		Records:     a.store,
		Spec:        a.spec,
		PeriodYears: a.resolver.PeriodYears(),
		Metrics:     a.metrics,
	})
	if err != nil {
		return err
	}

	err = web.ListenAndServe(ctx, fmt.Sprintf(":%d", config.GetInt("port")), srv.Handler())
	log.Info("Shutting down...")
	return err
}

func handleUpdates(ctx context.Context, bot *telegram.Bot, updates tgbotapi.UpdatesChannel, m *metrics.Metrics) {
	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			log.Debug("Received non-message or non-command")
			continue
		}

		handleCommand(ctx, bot, update, m)
	}
}

func handleCommand(ctx context.Context, bot *telegram.Bot, update tgbotapi.Update, m *metrics.Metrics) {
	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	if err := bot.HandleUpdate(ctx, update); err != nil {
		log.Errorf("Failed to send message: %v", err)
		return
	}
	m.BotCommand(update.Message.Command())
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
