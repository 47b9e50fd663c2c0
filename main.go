package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"plantpulse/internal/aggregation"
	aggregationhttp "plantpulse/internal/aggregation/interfaces"
	archiveapp "plantpulse/internal/archive/application"
	archive "plantpulse/internal/archive/domain"
	archivememory "plantpulse/internal/archive/infrastructure/memory"
	archivepostgres "plantpulse/internal/archive/infrastructure/postgres"
	archivehttp "plantpulse/internal/archive/interfaces"
	"plantpulse/internal/audit"
	"plantpulse/internal/auth"
	eosrapp "plantpulse/internal/eosr/application"
	eosr "plantpulse/internal/eosr/domain"
	eosrgitlog "plantpulse/internal/eosr/infrastructure/gitlog"
	eosrmemory "plantpulse/internal/eosr/infrastructure/memory"
	eosrhttp "plantpulse/internal/eosr/interfaces"
	eosrnotify "plantpulse/internal/eosr/notify"
	"plantpulse/internal/observability/metrics"
	"plantpulse/internal/plantday"
	"plantpulse/internal/status"
	statushttp "plantpulse/internal/status/interfaces"
	submission "plantpulse/internal/submission/domain"
	submissiongitlog "plantpulse/internal/submission/infrastructure/gitlog"
	submissionmemory "plantpulse/internal/submission/infrastructure/memory"
	submissionhttp "plantpulse/internal/submission/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	aggCfg, err := aggregation.LoadConfig(cfg.AggConfigFile)
	if err != nil {
		logger.Fatalf("aggregation config error: %v", err)
	}
	aggCfg.Timezone = getenvDefault("PLANT_TZ", aggCfg.Timezone)
	aggCfg.Boundary = getenvDefault("PLANT_DAY_START", aggCfg.Boundary)
	aggCfg.CapPerDay = getenvIntDefault("CAP_PER_DAY", aggCfg.CapPerDay)
	aggCfg.GoalPerShiftPerDay = getenvIntDefault("GOAL_PER_SHIFT", aggCfg.GoalPerShiftPerDay)
	aggCfg.CapScope = aggregation.CapScope(getenvDefault("CAP_SCOPE", string(aggCfg.CapScope)))
	aggCfg.DenominatorPerArea = getenvBoolDefault("DENOMINATOR_PER_AREA", aggCfg.DenominatorPerArea)
	aggCfg.WindowMinutes = getenvIntDefault("WINDOW_MINUTES", aggCfg.WindowMinutes)
	aggCfg.ToleranceMinutes = getenvIntDefault("TOLERANCE_MINUTES", aggCfg.ToleranceMinutes)
	if err := aggCfg.Validate(); err != nil {
		logger.Fatalf("aggregation config error: %v", err)
	}
	resolver, err := plantday.NewResolver(aggCfg.Timezone, aggCfg.Boundary)
	if err != nil {
		logger.Fatalf("resolver error: %v", err)
	}

	// The archive and audit log live in Postgres; without a database the
	// service still runs with in-memory stores for local work.
	var db *sql.DB
	var archiveStore archive.Store
	var auditLogger audit.Logger = audit.NopLogger{}
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		archiveStore = archivepostgres.NewStore(db)
		auditLogger = audit.NewRepository(db)
	} else {
		logger.Printf("no DATABASE_URL, using in-memory archive store")
		archiveStore = archivememory.NewStore()
	}
	metrics.Init(db, logger)

	var eventSource submission.EventSource
	var eosrStore eosr.Store
	if cfg.GitAPIBase != "" {
		eventSource, err = submissiongitlog.NewClient(cfg.GitAPIBase, cfg.GitRawBase, cfg.GitBranch, cfg.GitToken, cfg.DataDir)
		if err != nil {
			logger.Fatalf("gitlog client error: %v", err)
		}
		eosrStore, err = eosrgitlog.NewStore(cfg.GitAPIBase, cfg.GitRawBase, cfg.GitBranch, cfg.GitToken, cfg.EOSRDataDir)
		if err != nil {
			logger.Fatalf("eosr store error: %v", err)
		}
	} else {
		logger.Printf("no GITLOG_API_BASE, using in-memory event source")
		eventSource = submissionmemory.NewEventSource()
		eosrStore = eosrmemory.NewStore()
	}

	aggregator, err := aggregation.NewAggregator(eventSource, resolver, aggCfg, logger)
	if err != nil {
		logger.Fatalf("aggregator error: %v", err)
	}
	statusService, err := status.NewService(aggregator, status.SystemClock{})
	if err != nil {
		logger.Fatalf("status service error: %v", err)
	}
	finalizeService, err := archiveapp.NewFinalizeService(archiveStore, aggregator, eventSource, archiveapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("finalize service error: %v", err)
	}

	var notifier eosrnotify.Notifier = eosrnotify.NopNotifier{}
	if cfg.MailAPIKey != "" {
		notifier, err = eosrnotify.NewMailNotifier(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom, cfg.MailTo)
		if err != nil {
			logger.Fatalf("mail notifier error: %v", err)
		}
	}
	eosrService, err := eosrapp.NewService(eosrStore, notifier, resolver, eosrapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("eosr service error: %v", err)
	}

	ingestHandler, err := submissionhttp.NewIngestHandler(eventSource, submissionhttp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	historyHandler, err := submissionhttp.NewHistoryHandler(eventSource, resolver, submissionhttp.SystemClock{})
	if err != nil {
		logger.Fatalf("history handler error: %v", err)
	}
	areasHandler, err := submissionhttp.NewAreasHandler(eventSource)
	if err != nil {
		logger.Fatalf("areas handler error: %v", err)
	}
	summaryHandler, err := statushttp.NewSummaryHandler(statusService)
	if err != nil {
		logger.Fatalf("summary handler error: %v", err)
	}
	leaderboardHandler, err := aggregationhttp.NewLeaderboardHandler(aggregator, eventSource, aggregationhttp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("leaderboard handler error: %v", err)
	}
	archiveHandler, err := archivehttp.NewArchiveHandler(finalizeService, auditLogger)
	if err != nil {
		logger.Fatalf("archive handler error: %v", err)
	}
	exportHandler, err := archivehttp.NewExportHandler(archiveStore, finalizeService, auditLogger)
	if err != nil {
		logger.Fatalf("export handler error: %v", err)
	}
	eosrHandler, err := eosrhttp.NewHandler(eosrService)
	if err != nil {
		logger.Fatalf("eosr handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/ingest"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestKeyMiddleware(cfg.IngestKey)

	mux := http.NewServeMux()
	mux.Handle("/ingest", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/api/v1/summary", summaryHandler)
	mux.Handle("/api/v1/leaderboard", leaderboardHandler)
	mux.Handle("/api/v1/areas", areasHandler)
	mux.Handle("/api/v1/history", historyHandler)
	mux.Handle("/api/v1/archive", archiveHandler)
	mux.Handle("/api/v1/exports/", exportHandler)
	mux.Handle("/api/v1/eosr", eosrHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	HTTPAddr      string
	DatabaseURL   string
	AggConfigFile string

	GitAPIBase  string
	GitRawBase  string
	GitBranch   string
	GitToken    string
	DataDir     string
	EOSRDataDir string

	JWTSecret string
	IngestKey string

	MailAPIURL string
	MailAPIKey string
	MailFrom   string
	MailTo     string
}

func loadConfig() config {
	cfg := config{
		HTTPAddr:      getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:   getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		AggConfigFile: getenvDefault("AGG_CONFIG_FILE", ""),
		GitAPIBase:    getenvDefault("GITLOG_API_BASE", ""),
		GitRawBase:    getenvDefault("GITLOG_RAW_BASE", ""),
		GitBranch:     getenvDefault("GITHUB_BRANCH", "main"),
		GitToken:      getenvDefault("GITHUB_TOKEN", ""),
		DataDir:       getenvDefault("GITHUB_DATA_DIR", "data"),
		EOSRDataDir:   getenvDefault("EOSR_DATA_DIR", "data-eosr"),
		JWTSecret:     getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestKey:     getenvDefault("INGEST_KEY", ""),
		MailAPIURL:    getenvDefault("MAIL_API_URL", "https://api.sendgrid.com/v3/mail/send"),
		MailAPIKey:    getenvDefault("SENDGRID_API_KEY", ""),
		MailFrom:      getenvDefault("FROM_EMAIL", "no-reply@example.com"),
		MailTo:        getenvDefault("EOSR_TO", ""),
	}
	if repo := os.Getenv("GITHUB_REPO"); repo != "" && cfg.GitAPIBase == "" {
		cfg.GitAPIBase = "https://api.github.com/repos/" + repo + "/contents"
		cfg.GitRawBase = "https://raw.githubusercontent.com/" + repo
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
