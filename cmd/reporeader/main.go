package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/localrivet/reporeader"
	"github.com/localrivet/reporeader/internal/config"
	"github.com/localrivet/reporeader/internal/errortypes"
	"github.com/localrivet/reporeader/internal/logger"
	"github.com/localrivet/reporeader/internal/server"
	"github.com/localrivet/reporeader/internal/summarizer"
	"github.com/localrivet/reporeader/internal/telemetry"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "reporeader",
		Usage:   "Summarize GitHub repositories and source files",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   config.DefaultConfigFilename,
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			summarizeCommand(),
			usageCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// loadService builds the service from the --config flag. MCP mode keeps
// stdout free for the protocol, so its logs go to stderr.
func loadService(c *cli.Context, toStderr bool) (*reporeader.Service, *slog.Logger, error) {
	cfg, err := config.LoadConfigWithPath(c.String("config"))
	if err != nil {
		return nil, nil, errortypes.ConfigError(err, "failed to load configuration")
	}

	lc := reporeader.LoggerConfig(cfg)
	if toStderr {
		lc.Output = os.Stderr
	}
	log, err := logger.New(lc)
	if err != nil {
		return nil, nil, errortypes.ConfigError(err, "failed to build logger")
	}
	slog.SetDefault(log)

	svc, err := reporeader.NewService(c.Context, reporeader.ServiceOptions{
		Config: cfg,
		Logger: log,
	})
	if err != nil {
		errortypes.LogError(log, err)
		return nil, nil, err
	}
	return svc, log, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.addr",
			},
		},
		Action: func(c *cli.Context) error {
			svc, log, err := loadService(c, false)
			if err != nil {
				return err
			}
			defer svc.Close()

			cfg := svc.Config()
			addr := cfg.Server.Addr
			if a := c.String("addr"); a != "" {
				addr = a
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector())
			if err := telemetry.Register(registry, svc.Metrics()); err != nil {
				return errortypes.InternalError(err, "failed to register metrics")
			}

			httpServer := server.NewHTTPServer(svc, server.HTTPOptions{
				Addr:         addr,
				Mode:         cfg.Server.Mode,
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
				Logger:       logger.Component(log, "http"),
				Gatherer:     registry,
			})
			if err := httpServer.Initialize(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- httpServer.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Info("Received shutdown signal")
			}
			return httpServer.Stop()
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the MCP tools over stdio",
		Action: func(c *cli.Context) error {
			svc, log, err := loadService(c, true)
			if err != nil {
				return err
			}

			toolServer := server.NewMCPToolServer(svc, logger.Component(log, "mcp"))
			if err := toolServer.Initialize(); err != nil {
				_ = svc.Close()
				return err
			}

			setupSignalHandler(toolServer, svc, log)

			err = toolServer.Start()
			if closeErr := svc.Close(); err == nil {
				err = closeErr
			}
			return err
		},
	}
}

// setupSignalHandler stops the tool server and closes the ledger on SIGINT/SIGTERM.
func setupSignalHandler(toolServer server.ToolServer, svc *reporeader.Service, log *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-c
		log.Info("Received signal, shutting down", "signal", sig.String())
		if err := toolServer.Stop(); err != nil {
			log.Error("Error stopping tool server", "error", err)
		}
		if err := svc.Close(); err != nil {
			log.Error("Error closing usage ledger", "error", err)
		}
		os.Exit(0)
	}()
}

func summarizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize source files",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON, including usage",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Print the metrics report to stderr when done",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("summarize needs at least one FILE", 2)
			}

			svc, _, err := loadService(c, true)
			if err != nil {
				return err
			}
			defer svc.Close()

			type fileResult struct {
				File string `json:"file"`
				summarizer.Result
			}
			var results []fileResult

			for _, path := range c.Args().Slice() {
				data, err := os.ReadFile(path)
				if err != nil {
					return errortypes.ValidationError(err, "cannot read "+path)
				}
				res := svc.Summarize(c.Context, summarizer.Request{
					Filename: filepath.Base(path),
					Content:  string(data),
				})
				results = append(results, fileResult{File: path, Result: res})
			}
			if err := svc.Components().Ledger.Err(); errortypes.IsPersistenceError(err) {
				fmt.Fprintf(os.Stderr, "warning: usage was not saved: %v\n", err)
			}
			if c.Bool("metrics") {
				defer fmt.Fprint(os.Stderr, svc.Metrics().GetReport())
			}

			if c.Bool("json") {
				return printJSON(results)
			}
			for _, r := range results {
				fmt.Printf("%s [%s]\n  %s\n", r.File, r.Usage.Method, r.Text)
			}
			return nil
		},
	}
}

func usageCommand() *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Print the usage ledger summary",
		Action: func(c *cli.Context) error {
			svc, _, err := loadService(c, true)
			if err != nil {
				return err
			}
			defer svc.Close()
			return printJSON(svc.UsageSummary())
		},
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errortypes.InternalError(err, "failed to encode output")
	}
	fmt.Println(string(out))
	return nil
}
