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
	"time"

	"abramcp/internal/abra"
	"abramcp/internal/audit"
	"abramcp/internal/config"
	"abramcp/internal/gateway"
	"abramcp/internal/metrics"
	"abramcp/internal/tool"

	"github.com/spf13/cobra"
)

var (
	version    = "0.2.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "abramcp",
		Short: "MCP gateway for the Abra Gen ERP API",
		Long: "abramcp exposes the Abra Gen business-object store to MCP clients " +
			"as a set of typed query tools (firms, invoices, products, free-form queries).",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ~/.abramcp/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(callCmd())
	root.AddCommand(auditCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfigPath() string {
	if configPath != "" {
		return config.ExpandPath(configPath)
	}
	return config.DefaultConfigPath()
}

// loadConfig reads the config file when one exists, otherwise falls back to
// the ABRA_* environment.
func loadConfig() (*config.Config, error) {
	path := resolveConfigPath()
	if _, err := os.Stat(path); err != nil {
		if configPath != "" {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return config.FromEnv()
	}
	return config.Load(path)
}

func buildLogger(cfg *config.Config) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.General.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %s", cfg.General.LogLevel)
	}

	out := os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("cannot open log file: %w", err)
		}
		out = f
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), nil
}

// buildGateway wires client, catalog, audit and metrics together. The
// returned cleanup releases the transport and the audit store and must run
// on every exit path.
func buildGateway(cfg *config.Config, log *slog.Logger) (*gateway.Gateway, func(), error) {
	client := abra.NewClient(abra.ClientConfig{
		Host:       cfg.Abra.Host,
		Database:   cfg.Abra.Database,
		Username:   cfg.Abra.Username,
		Password:   cfg.Abra.Password,
		Timeout:    cfg.Abra.Timeout(),
		MaxRetries: cfg.Abra.MaxRetries,
		Logger:     log,
	})

	var opts []gateway.Option
	var auditStore *audit.Store
	if cfg.Audit.Enabled {
		var err error
		auditStore, err = audit.Open(cfg.Audit.DBPath, log)
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("open audit store: %w", err)
		}
		if cfg.Audit.RetentionDays > 0 {
			retention := time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour
			if n, err := auditStore.Purge(context.Background(), retention); err != nil {
				log.Warn("audit purge failed", "error", err)
			} else if n > 0 {
				log.Info("purged expired audit entries", "count", n)
			}
		}
		opts = append(opts, gateway.WithAudit(auditStore))
	}

	if cfg.Metrics.Enabled {
		opts = append(opts, gateway.WithMetrics(metrics.NewCollector()))
	}

	g := gateway.New(tool.NewCatalog(client, log), log, opts...)

	cleanup := func() {
		if auditStore != nil {
			if err := auditStore.Close(); err != nil {
				log.Warn("closing audit store", "error", err)
			}
		}
		client.Close()
	}
	return g, cleanup, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			fmt.Printf("Wrote %s. Fill in abra.username and abra.password (or set ABRA_USERNAME/ABRA_PASSWORD).\n", cfgPath)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var httpAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tool catalog to MCP clients",
		Long: `Starts the MCP server. By default it speaks the stdio transport for use
as a subprocess of an MCP host; with --http (or server.transport=http in the
config) it serves streamable HTTP with /metrics and /healthz.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			g, cleanup, err := buildGateway(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			transport := cfg.Server.Transport
			if httpAddr != "" {
				transport = "http"
			}

			switch transport {
			case "http":
				addr := httpAddr
				if addr == "" {
					addr = cfg.Server.Addr()
				}
				return serveHTTP(ctx, g, addr, log)
			default:
				if err := g.ServeStdio(ctx, version); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				log.Info("server stopped")
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio (e.g. 127.0.0.1:8421)")
	return cmd
}

func serveHTTP(ctx context.Context, g *gateway.Gateway, addr string, log *slog.Logger) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: g.HTTPHandler(version),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving MCP over HTTP", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	log.Info("server stopped")
	return nil
}

func callCmd() *cobra.Command {
	var rawArgs []string
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke one tool directly and print the result",
		Long: `Dispatches a single tool call without an MCP client, for debugging.
Arguments are passed as repeated --arg key=value flags; values that parse as
JSON are passed typed, everything else as a string.

Example:
  abramcp call abra_list_firms --arg search=acme --arg limit=10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			toolArgs, err := parseToolArgs(rawArgs)
			if err != nil {
				return err
			}

			g, cleanup, err := buildGateway(cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			text, isErr := g.Dispatch(ctx, args[0], toolArgs)
			fmt.Println(text)
			if isErr {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&rawArgs, "arg", nil, "tool argument as key=value (repeatable)")
	return cmd
}

// parseToolArgs converts --arg key=value pairs into a tool argument map,
// keeping JSON-typed values typed.
func parseToolArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --arg %q, expected key=value", pair)
		}
		var typed any
		if err := json.Unmarshal([]byte(value), &typed); err == nil {
			args[key] = typed
		} else {
			args[key] = value
		}
	}
	return args, nil
}

func auditCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent tool invocations from the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Audit.Enabled {
				return fmt.Errorf("audit log is disabled (set audit.enabled in %s)", resolveConfigPath())
			}
			store, err := audit.Open(cfg.Audit.DBPath, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			recent, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, inv := range recent {
				status := "ok"
				if !inv.OK {
					status = "error"
				}
				fmt.Printf("%s  %-20s %-5s %6dms  %s\n",
					inv.At.Format(time.RFC3339), inv.Tool, status,
					inv.Duration.Milliseconds(), inv.Detail)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("abramcp %s\n", version)
		},
	}
}
