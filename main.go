package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appaccount "github.com/Zhima-Mochi/bookmarket/internal/application/account"
	appcatalog "github.com/Zhima-Mochi/bookmarket/internal/application/catalog"
	"github.com/Zhima-Mochi/bookmarket/internal/application/notification"
	apporder "github.com/Zhima-Mochi/bookmarket/internal/application/order"
	apppayment "github.com/Zhima-Mochi/bookmarket/internal/application/payment"
	appstatistics "github.com/Zhima-Mochi/bookmarket/internal/application/statistics"
	appwishlist "github.com/Zhima-Mochi/bookmarket/internal/application/wishlist"
	"github.com/Zhima-Mochi/bookmarket/internal/config"
	"github.com/Zhima-Mochi/bookmarket/internal/domain/identity"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/firebase"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/id"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/jwtauth"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/mailer"
	obsprovider "github.com/Zhima-Mochi/bookmarket/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/secrets"
	"github.com/Zhima-Mochi/bookmarket/internal/infrastructure/stripe"
	"github.com/Zhima-Mochi/bookmarket/internal/observability"
	"github.com/Zhima-Mochi/bookmarket/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/bookmarket/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/bookmarket/internal/presentation/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := newServeCmd()
	root := &cobra.Command{
		Use:          "bookmarket",
		Short:        "Bookstore marketplace API",
		SilenceUsage: true,
		// serve is the default command
		RunE: serveCmd.RunE,
	}
	root.Flags().AddFlagSet(serveCmd.Flags())
	root.AddCommand(serveCmd, newSetRoleCmd(), newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var port, store string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(port, store)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&store, "store", "", "store driver: memory, firestore or mongo (overrides STORE_DRIVER)")
	return cmd
}

func newSetRoleCmd() *cobra.Command {
	var store string
	cmd := &cobra.Command{
		Use:   "set-role <email> <customer|librarian|admin>",
		Short: "Set an account's role directly in the store",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig("", store)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = st.close(context.Background()) }()

			accounts := appaccount.NewService(st.accounts, st.sellerRequests, nil, nil)
			if err := accounts.UpdateRole(ctx, args[0], args[1]); err != nil {
				return err
			}
			cmd.Printf("%s is now %s\n", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "store driver (overrides STORE_DRIVER)")
	return cmd
}

// newTokenCmd issues development tokens for the jwt auth provider.
func newTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Issue a bearer token for the jwt auth provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := jwtauth.New(getenvDefault("JWT_SECRET", ""))
			if err != nil {
				return err
			}
			tok, err := v.Issue(args[0], ttl)
			if err != nil {
				return err
			}
			cmd.Println(tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

// loadConfig applies flag values over the environment.
func loadConfig(port, store string) (config.Config, error) {
	return config.Load(map[string]string{
		"PORT":         port,
		"STORE_DRIVER": store,
	})
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)
	appLogger := zaplogger.Wrap(baseLogger)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	counters, histograms := prometrics.Instruments(prometrics.New("", "", prometheus.DefaultRegisterer))
	tel := obsprovider.New(oteltrace.New(cfg.ServiceName), appLogger, counters, histograms)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			systemLogger.Error("store_close_error", zap.Error(err))
		}
	}()
	systemLogger.Info("store_opened", zap.String("driver", cfg.StoreDriver))

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	var gcpOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		gcpOpts = append(gcpOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	stripeKey, err := secrets.Resolve(ctx, cfg.StripeSecretKey, cfg.GCPProjectID, cfg.StripeSecretName, gcpOpts...)
	if err != nil {
		return fmt.Errorf("resolve stripe key: %w", err)
	}
	gateway, err := stripe.New(stripeKey)
	if err != nil {
		return err
	}

	// In-memory event bus; the receipt worker is its only subscriber.
	bus := outbox.NewBus(appLogger, outbox.Options{})
	var receipts notification.Mailer = mailer.NewLog(appLogger)
	if cfg.SendGridAPIKey != "" {
		sg, err := mailer.NewSendGrid(cfg.SendGridAPIKey, cfg.ReceiptFromEmail)
		if err != nil {
			return err
		}
		receipts = sg
	}
	notification.New(workerpresentation.Subscriber(bus, appLogger), receipts, tel).Start()
	bus.Start(ctx)

	handler := newHandler(cfg, st, verifier, gateway, bus, appLogger, tel)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
	return nil
}

func newHandler(
	cfg config.Config,
	st *stores,
	verifier identity.Verifier,
	gateway *stripe.Gateway,
	bus *outbox.Bus,
	logger observability.Logger,
	tel observability.Observability,
) *httppresentation.Handler {
	ids := id.NewUUIDGenerator()
	accounts := appaccount.NewService(st.accounts, st.sellerRequests, nil, tel)

	return httppresentation.NewHandler(httppresentation.Services{
		CreateOrder: apporder.NewCreateOrderUseCase(st.orders, st.books, ids, nil, tel),
		Checkout: apppayment.NewInitiateCheckoutUseCase(gateway, st.orders, apppayment.CheckoutConfig{
			Currency:     cfg.StripeCurrency,
			ClientDomain: cfg.ClientDomain,
		}, tel),
		Confirm:    apppayment.NewConfirmPaymentUseCase(st.orders, st.books, gateway, bus, nil, tel),
		Orders:     apporder.NewService(st.orders, tel),
		Catalog:    appcatalog.NewService(st.books, ids, nil, tel),
		Accounts:   accounts,
		Wishlists:  appwishlist.NewService(st.wishlists, st.books, ids, nil, tel),
		Statistics: appstatistics.NewService(st.orders, st.books, st.accounts, tel),
	}, verifier, accounts, httppresentation.Options{AllowedOrigins: cfg.AllowedOrigins}, logger, tel)
}

func newVerifier(ctx context.Context, cfg config.Config) (identity.Verifier, error) {
	switch cfg.AuthProvider {
	case config.AuthFirebase:
		v, err := firebase.New(ctx, cfg.GCPProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		v, err := jwtauth.New(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
