package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/ecommerce-store/internal/domain/admin"
	"github.com/xenking/ecommerce-store/internal/domain/cart"
	"github.com/xenking/ecommerce-store/internal/domain/item"
	"github.com/xenking/ecommerce-store/internal/domain/order"
	"github.com/xenking/ecommerce-store/internal/handler"
	"github.com/xenking/ecommerce-store/internal/storage/memory"
	"github.com/xenking/ecommerce-store/pkg/health"
	"github.com/xenking/ecommerce-store/pkg/httpmiddleware"
)

const serviceName = "store-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.Int("coupon.nth_order", cfg.Coupon.NthOrder),
		zap.Int("coupon.discount_percentage", cfg.Coupon.DiscountPercentage),
	)

	srv, err := newServer(ctx, cfg, m)
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           srv.handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.health.Run(gctx, cfg.Health.Interval)
	})
	if srv.limiter != nil {
		g.Go(func() error {
			return srv.limiter.Run(gctx)
		})
	}
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		srv.health.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	srv.health.SetReady(true)
	return g.Wait()
}

type server struct {
	handler http.Handler
	health  *health.Health
	limiter *httpmiddleware.Limiter
}

// newServer seeds the stores and builds the HTTP handler chain.
func newServer(ctx context.Context, cfg *Config, m httpmiddleware.TelemetryProvider) (*server, error) {
	lg := zctx.From(ctx)

	catalog := memory.DefaultCatalog()
	if cfg.CatalogFile != "" {
		loaded, err := memory.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			return nil, errors.Wrap(err, "load catalog")
		}
		catalog = loaded
	}

	// Stores.
	items := memory.NewItemStore()
	carts := memory.NewCartStore()
	coupons := memory.NewCouponStore()
	orders := memory.NewOrderStore()

	if err := memory.Seed(ctx, items, catalog); err != nil {
		return nil, errors.Wrap(err, "seed catalog")
	}
	lg.Info("Catalog seeded", zap.Int("items", items.Count(ctx)))

	// Domain services.
	orderService, err := order.NewService(carts, items, coupons, orders,
		order.Config{
			NthOrder:           cfg.Coupon.NthOrder,
			DiscountPercentage: cfg.Coupon.DiscountPercentage,
		},
		order.WithMeterProvider(m.MeterProvider()),
		order.WithTracerProvider(m.TracerProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}
	h := handler.NewHandler(handler.Services{
		Items:  item.NewService(items),
		Carts:  cart.NewService(carts, items),
		Orders: orderService,
		Admin:  admin.NewService(orders, coupons),
	})

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(cfg.Health.MaxGoroutines))
	healthSvc.AddReadinessCheck("catalog", time.Second, health.MinCountCheck("catalog", 1, items.Count))

	// Router: health endpoints + API routes on one server.
	r := h.Routes()
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	routeFinder := httpmiddleware.MakeRouteFinder(r)

	srv := &server{health: healthSvc}
	var rateLimit httpmiddleware.Middleware = func(next http.Handler) http.Handler { return next }
	if cfg.RateLimit.Max > 0 && cfg.RateLimit.Window > 0 {
		srv.limiter = httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Skip:   isHealthEndpoint,
		})
		rateLimit = srv.limiter.Middleware()
	}

	srv.handler = httpmiddleware.Wrap(r,
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader, "Retry-After"},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		rateLimit,
		httpmiddleware.Instrument(serviceName, routeFinder, m),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
	)
	return srv, nil
}

func isHealthEndpoint(r *http.Request) bool {
	return r.URL.Path == "/livez" || r.URL.Path == "/readyz"
}
