// Package main provides the portal-shell binary: a minimal portal front
// end built on authflow.
//
// It serves the login form against the e-banking backend, keeps the token
// record in Redis (miniredis when no address is given) and guards pages with
// the session's roles.
//
// Endpoints:
//
//	POST /login      form username, password, captcha
//	POST /logout     ends the session
//	GET  /accounts   any authenticated session
//	GET  /approvals  CHECKER or SUPER_USER
//	GET  /metrics    Prometheus exposition
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authflow"
	"github.com/MrEthical07/authflow/metrics/export/prometheus"
	"github.com/MrEthical07/authflow/middleware"
	"github.com/MrEthical07/authflow/permission"
)

const (
	Version = "0.1.0"
	appName = "portal-shell"
)

type options struct {
	configPath    string
	appConfigPath string
	redisAddr     string
	listen        string
	logLevel      string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Portal front end for the e-banking authentication journeys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "authflow config file (YAML)")
	cmd.Flags().StringVar(&opts.appConfigPath, "app-config", "", "runtime config.json to watch")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address; miniredis is used when empty")
	cmd.Flags().StringVar(&opts.listen, "listen", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})

	return cmd
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(parent context.Context, opts options) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := newLogger(opts.logLevel)
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Configuration
	cfg := authflow.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := authflow.LoadConfigFile(opts.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if opts.appConfigPath != "" {
		app, err := authflow.LoadAppConfig(opts.appConfigPath)
		if err != nil {
			return fmt.Errorf("load app config: %w", err)
		}
		cfg.App = app
	}

	// Token storage
	addr := opts.redisAddr
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	client, err := authflow.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(logger).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		WithNavigator(authflow.NavigatorFunc(func(path string) {
			logger.Info("navigate", slog.String("path", path))
		})).
		Build()
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}
	defer client.Close()

	if opts.appConfigPath != "" {
		go watchAppConfig(ctx, client, opts.appConfigPath, logger)
	}

	srv := &http.Server{Addr: opts.listen, Handler: newMux(client, cfg.API.LoginPath)}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Info("listening", slog.String("addr", opts.listen))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// watchAppConfig applies every reloaded app config to client until ctx is
// done.
func watchAppConfig(ctx context.Context, client *authflow.Client, path string, logger *slog.Logger) {
	err := authflow.WatchAppConfig(ctx, path, logger, func(app authflow.AppConfig) {
		if err := client.SetAppConfig(app); err != nil {
			logger.Warn("app config rejected", slog.String("error", err.Error()))
			return
		}
		logger.Info("app config applied", slog.Bool("feature_flag", app.FeatureFlag))
	})
	if err != nil {
		logger.Warn("app config watch stopped", slog.String("error", err.Error()))
	}
}

func newMux(client *authflow.Client, loginPath string) *http.ServeMux {
	approvers := permission.DefaultRegistry().MustCompile(permission.RoleSuperUser, permission.RoleChecker)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", loginHandler(client))
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		_ = client.Logout(r.Context())
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
	})
	mux.Handle("GET /accounts", middleware.RequireAuth(client, loginPath)(profileHandler(client)))
	mux.Handle("GET /approvals", middleware.RequireRoles(client, loginPath, approvers)(profileHandler(client)))
	mux.Handle("GET /metrics", prometheus.NewPrometheusExporter(client).Handler())
	return mux
}

// ---------------------------------------------------------------------------
// handlers
// ---------------------------------------------------------------------------

func loginHandler(client *authflow.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		login := client.NewLogin()
		if !login.Submit(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"), r.PostForm.Get("captcha")) {
			http.Error(w, "username and password are required", http.StatusBadRequest)
			return
		}
		if out := login.Failure(); out != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"code":    string(out.Code),
				"title":   out.Title,
				"message": out.Message,
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"roles": client.RolesFromToken()})
	}
}

func profileHandler(client *authflow.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := client.EnsureFresh(r.Context()); err != nil {
			http.Error(w, "session expired", http.StatusUnauthorized)
			return
		}
		user, err := client.Me(r.Context())
		if err != nil {
			http.Error(w, "profile unavailable", http.StatusBadGateway)
			return
		}
		roles, _ := middleware.RolesFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"username": user.Username,
			"company":  user.CompanyName,
			"roles":    roles,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
