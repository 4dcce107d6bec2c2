package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/controller"
	admingrpc "github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/grpc"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/middleware"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/app/service"
	"github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/config"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/v1"
)

const (
	healthCheckInterval = 15 * time.Second
	shutdownTimeout     = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC admin servers",
	Long:  `Start both HTTP (Echo) and gRPC servers exposing the admin email listing and fix operations.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := configureLogging(cfg); err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	hygieneService := service.NewEmailHygieneService(newIdentityRepository(db, cfg), service.Options{
		CrossTableGuard:    cfg.Reconcile.CrossTableGuard,
		IsolateRowFailures: cfg.Reconcile.IsolateRowFailures,
	})
	sessionService := service.NewSessionService(cfg.Session.Secret, cfg.Session.AdminRole)

	grpcServer, grpcLis, err := newGRPCServer(cfg, hygieneService, sessionService)
	if err != nil {
		return err
	}
	e := newHTTPServer(hygieneService, sessionService)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	go admingrpc.WatchStoreHealth(ctx, healthServer, db, healthCheckInterval)

	errCh := make(chan error, 2)
	go func() {
		logrus.WithField("addr", grpcLis.Addr().String()).Info("Starting gRPC server")
		if err := grpcServer.Serve(grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logrus.Info("Shutting down")
	case err = <-errCh:
		logrus.WithError(err).Error("Server stopped unexpectedly")
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
		logrus.WithError(shutdownErr).Warn("HTTP server shutdown failed")
	}
	grpcServer.GracefulStop()

	return err
}

func newHTTPServer(hygieneService *service.EmailHygieneService, sessionService *service.SessionService) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())

	hygieneController := controller.NewEmailHygieneController(hygieneService)
	authMiddleware := middleware.NewAuthMiddleware(sessionService)

	admin := e.Group("/api/admin", authMiddleware.RequireAuth, authMiddleware.RequireAdmin)
	admin.GET("/fix-invalid-emails", hygieneController.ListInvalidEmails)
	admin.POST("/fix-invalid-emails", hygieneController.FixEmail)

	return e
}

func newGRPCServer(cfg *config.Config, hygieneService *service.EmailHygieneService, sessionService *service.SessionService) (*grpc.Server, net.Listener, error) {
	grpcAddr := net.JoinHostPort(cfg.GRPCHost, cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen on gRPC port: %w", err)
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(admingrpc.AdminAuthUnaryInterceptor(sessionService)))
	admingrpc.RegisterEmailHygieneServer(grpcServer, admingrpc.NewAdminServer(hygieneService))

	return grpcServer, lis, nil
}
