package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limitmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/mosehq/backend-mose/internal/app"
	"github.com/mosehq/backend-mose/internal/auth"
	"github.com/mosehq/backend-mose/internal/cart"
	"github.com/mosehq/backend-mose/internal/catalog"
	"github.com/mosehq/backend-mose/internal/checkout"
	"github.com/mosehq/backend-mose/internal/common"
	"github.com/mosehq/backend-mose/internal/config"
	"github.com/mosehq/backend-mose/internal/contact"
	"github.com/mosehq/backend-mose/internal/events"
	"github.com/mosehq/backend-mose/internal/health"
	"github.com/mosehq/backend-mose/internal/notify"
	"github.com/mosehq/backend-mose/internal/obs"
	"github.com/mosehq/backend-mose/internal/order"
	"github.com/mosehq/backend-mose/internal/payment"
	"github.com/mosehq/backend-mose/internal/ratelimit"
	"github.com/mosehq/backend-mose/internal/resilience"
	"github.com/mosehq/backend-mose/internal/security"
	"github.com/mosehq/backend-mose/internal/seller"
	"github.com/mosehq/backend-mose/internal/wishlist"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "mose")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "mose-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "mose-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	if envBool("RUN_MIGRATIONS", true) {
		migrationsPath := envOrDefault("MIGRATIONS_PATH", "file://migrations")
		m, err := migrate.New(migrationsPath, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("open migrations")
		}
		if err := app.RunMigrations(m); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn().AnErr("source", srcErr).AnErr("db", dbErr).Msg("close migrations")
		}
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	var mailer common.EmailSender = common.NopEmailSender{}
	if cfg.EmailEnabled && cfg.ResendAPIKey != "" {
		mailer = &notify.ResendSender{
			APIKey:  cfg.ResendAPIKey,
			From:    cfg.EmailFrom,
			BaseURL: cfg.ResendBaseURL,
			HTTP: resilience.HTTPClient{
				Client:      &http.Client{},
				Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("resend").WithLogger(logger),
				BaseBackoff: cfg.RetryBase,
				MaxAttempts: cfg.RetryMaxAttempts,
				Timeout:     cfg.OutboundTimeout,
			},
			Logger:  logger,
			Timeout: cfg.OutboundTimeout,
		}
	}

	bus := &events.Bus{
		Store: events.PGStore{Pool: pool},
		Notifiers: []events.Notifier{
			notify.EmailNotifier{
				Mail:    mailer,
				Enabled: cfg.EmailEnabled,
				From:    cfg.EmailFrom,
			},
		},
	}

	catalogSvc := catalog.NewService(
		catalog.PGStore{Pool: pool},
		catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
		logger,
		cfg.CatalogDefaultLimit,
		cfg.CatalogMaxLimit,
	)
	catalogHandler := catalog.Handler{Svc: catalogSvc}

	authSvc, err := auth.NewService(auth.Config{
		Store:           auth.PGStore{Pool: pool},
		Secret:          cfg.JWTSecret,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Issuer:          cfg.JWTIssuer,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{
		Service:           authSvc,
		Sender:            mailer,
		ResetBaseURL:      cfg.PublicBaseURL,
		RefreshCookieName: cfg.RefreshCookieName,
		CookieSecure:      cfg.CookieSecure,
	}
	authMW := auth.Middleware{Service: authSvc}

	authLimiter, err := app.NewAuthRateLimiter(redisClient, limiter.Rate{
		Period: cfg.AuthRateWindow,
		Limit:  int64(cfg.AuthRateMax),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth rate limiter")
	}
	authLimit := limitmw.NewMiddleware(authLimiter)

	cartSvc := cart.NewService(cart.RedisStore{
		Client: redisClient,
		Prefix: cfg.CartKeyPrefix,
		TTL:    cfg.CartTTL,
	}, logger)
	cartHandler := &cart.Handler{
		Svc:          cartSvc,
		CookieSecure: cfg.CookieSecure,
		CookieMaxAge: cfg.CartTTL,
	}

	wishlistHandler := &wishlist.Handler{Svc: &wishlist.Service{Store: wishlist.PGStore{Pool: pool}}}
	sellerHandler := &seller.Handler{Svc: &seller.Service{Store: seller.PGStore{Pool: pool}}}

	orderStore := order.PGStore{Pool: pool}
	orderHandler := order.Handler{Store: orderStore}

	paymentStore := payment.PGStore{Pool: pool}
	paystack := payment.Paystack{
		SecretKey: cfg.PaystackSecretKey,
		BaseURL:   cfg.PaystackBaseURL,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{},
			Breaker:     resilience.NewBreaker(5, 0.5, 30*time.Second).WithTarget("paystack").WithLogger(logger),
			BaseBackoff: cfg.RetryBase,
			MaxAttempts: cfg.RetryMaxAttempts,
			Timeout:     cfg.OutboundTimeout,
		},
	}
	webhookHandler := &payment.WebhookHandler{
		Provider: paystack,
		Payments: paymentStore,
		Orders:   orderStore,
		Cart:     cartSvc,
		Bus:      bus,
		Logger:   logger,
	}

	checkoutSvc := &checkout.Service{
		Cart:        cartSvc,
		Orders:      orderStore,
		Payments:    paymentStore,
		Provider:    paystack,
		Lock:        checkout.SessionLock{R: redisClient, TTL: cfg.CheckoutLockTTL},
		Bus:         bus,
		Logger:      logger,
		TaxBps:      cfg.TaxRateBPS,
		CallbackURL: cfg.CheckoutCallbackURL,
	}
	checkoutHandler := checkout.Handler{Svc: checkoutSvc}

	contactSvc := contact.NewService(contact.PGStore{Pool: pool}, bus, logger)
	contactHandler := contact.Handler{Svc: contactSvc}
	contactLimit := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "mose-rl:"},
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP,
			Window: cfg.ContactRateWindow,
			Max:    cfg.ContactRateMax,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, nil, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.CookieSecure}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", cart.SessionHeader},
		ExposedHeaders:   []string{cart.SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api", func(v chi.Router) {
		v.Use(authMW.Authenticate)

		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{slug}", catalogHandler.ProductDetail)

		v.Route("/auth", func(a chi.Router) {
			a.Group(func(limited chi.Router) {
				limited.Use(authLimit.Handler)
				limited.Post("/register", authHandler.Register)
				limited.Post("/login", authHandler.Login)
				limited.Post("/forgot-password", authHandler.ForgotPassword)
				limited.Post("/reset-password", authHandler.ResetPassword)
			})
			a.Post("/refresh", authHandler.Refresh)
			a.Post("/logout", authHandler.Logout)

			a.Group(func(protected chi.Router) {
				protected.Use(authMW.RequireAuth)
				protected.Get("/me", authHandler.Me)
			})
		})

		v.Route("/cart", func(c chi.Router) {
			c.Get("/", cartHandler.Get)
			c.Delete("/", cartHandler.Clear)
			c.Post("/items", cartHandler.AddItem)
			c.Patch("/items/{productId}", cartHandler.UpdateItem)
			c.Delete("/items/{productId}", cartHandler.RemoveItem)
		})

		v.Route("/wishlist", func(wl chi.Router) {
			wl.Use(authMW.RequireAuth)
			wl.Get("/", wishlistHandler.List)
			wl.Post("/toggle", wishlistHandler.Toggle)
			wl.Get("/{productID}", wishlistHandler.Check)
		})

		v.Get("/sellers/{slug}", sellerHandler.Profile)
		v.With(authMW.RequireAuth).Post("/sellers/{sellerID}/follow", sellerHandler.ToggleFollow)

		v.Post("/checkout", checkoutHandler.Start)

		v.Group(func(authR chi.Router) {
			authR.Use(authMW.RequireAuth)
			authR.Get("/orders", orderHandler.ListMine)
			authR.Get("/orders/{orderID}", orderHandler.Get)
		})

		v.Post("/payments/webhook", webhookHandler.Handle)

		v.With(contactLimit.Middleware).Post("/contact", contactHandler.SubmitMessage)
		v.With(contactLimit.Middleware).Post("/testimonials", contactHandler.SubmitTestimonial)
		v.Get("/testimonials", contactHandler.ListTestimonials)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()
	health.SetReady(true)

	select {
	case <-shutdownCtx.Done():
		health.SetReady(false)
		logger.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
