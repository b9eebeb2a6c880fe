package httpfx

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/yurykabanov/backup-server/pkg/http/middleware"
)

const (
	ConfigServerAddress      = "server.address"
	ConfigServerPort         = "port"
	ConfigServerTimeoutRead  = "server.timeout.read"
	ConfigServerTimeoutWrite = "server.timeout.write"
	ConfigServerLogRequests  = "server.log.requests"
	ConfigServerStaticDir    = "server.static_dir"
)

type HttpServerConfig struct {
	Address           string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	EnableRequestsLog bool
	StaticDir         string
}

func HttpServerConfigProvider(v *viper.Viper) (*HttpServerConfig, error) {
	address := v.GetString(ConfigServerAddress)

	if port := v.GetString(ConfigServerPort); port != "" {
		host, _, err := net.SplitHostPort(address)
		if err != nil {
			return nil, errors.Wrapf(err, "Invalid server address %q", address)
		}
		address = net.JoinHostPort(host, port)
	}

	return &HttpServerConfig{
		Address:           address,
		ReadTimeout:       v.GetDuration(ConfigServerTimeoutRead),
		WriteTimeout:      v.GetDuration(ConfigServerTimeoutWrite),
		EnableRequestsLog: v.GetBool(ConfigServerLogRequests),
		StaticDir:         v.GetString(ConfigServerStaticDir),
	}, nil
}

// Handler wraps the router with the middleware chain shared by all routes.
func Handler(config *HttpServerConfig, logger logrus.FieldLogger, router http.Handler) http.Handler {
	h := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIdHeader},
		ExposedHeaders: []string{"Content-Disposition", middleware.RequestIdHeader},
		MaxAge:         300,
	})(router)

	if config.EnableRequestsLog {
		h = middleware.WithRequestLogging(h, logger)
	}

	return middleware.WithRequestId(h, middleware.DefaultRequestIdProvider)
}

func HttpServer(
	config *HttpServerConfig,
	logger *logrus.Logger,
	defaultLogger *log.Logger,
	router *mux.Router,
) (*http.Server, error) {
	return &http.Server{
		Addr:         config.Address,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		ErrorLog:     defaultLogger,
		Handler:      Handler(config, logger, router),
	}, nil
}

func HttpRouter() (*mux.Router, error) {
	return mux.NewRouter(), nil
}

func Listener(config *HttpServerConfig) (net.Listener, error) {
	return net.Listen("tcp", config.Address)
}

func RunServer(lc fx.Lifecycle, logger *logrus.Logger, listener net.Listener, server *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.WithField("address", listener.Addr().String()).Info("MongoDB Backup Server is listening")

			go func() {
				err := server.Serve(listener)
				if err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("HTTP server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
