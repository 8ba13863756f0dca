// Package servecmder provides the serve command that runs the HTTP and MCP API.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/tracememory/api"
	"github.com/papercomputeco/tracememory/pkg/config"
	"github.com/papercomputeco/tracememory/pkg/logger"
	"github.com/papercomputeco/tracememory/pkg/start"
)

type ServeCommander struct {
	listen         string
	memoryProvider string
	llmProvider    string
	model          string
	ollamaHost     string
	minRating      float64
	firstName      string
	lastName       string
	storageDir     string
	redisURL       string
	kafkaBrokers   string
	logFile        string
	debug          bool

	cfg    *config.Config
	logger *slog.Logger
}

const serveLongDesc string = `Run the TraceMemory API server.

The server holds a single copilot session. When user.first_name is
configured the session is initialized at startup; otherwise POST
/v1/session starts it. The MCP endpoint is served at /mcp.

Examples:
  tracememory serve
  tracememory serve --listen :9000 --memory-provider local
  tracememory serve --first-name Ada --last-name Lovelace --log-file serve.log`

const serveShortDesc string = "Run the TraceMemory API server"

var serveFlags = []string{
	config.FlagListen,
	config.FlagMemoryProvider,
	config.FlagLLMProvider,
	config.FlagModel,
	config.FlagOllamaHost,
	config.FlagMinRating,
	config.FlagFirstName,
	config.FlagLastName,
	config.FlagStorageDir,
	config.FlagRedisURL,
	config.FlagKafkaBrokers,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = config.LoadForCommand(cmd, serveFlags)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagMemoryProvider, &cmder.memoryProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagLLMProvider, &cmder.llmProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, config.Flags, config.FlagOllamaHost, &cmder.ollamaHost)
	config.AddFloat64Flag(cmd, config.Flags, config.FlagMinRating, &cmder.minRating)
	config.AddStringFlag(cmd, config.Flags, config.FlagFirstName, &cmder.firstName)
	config.AddStringFlag(cmd, config.Flags, config.FlagLastName, &cmder.lastName)
	config.AddStringFlag(cmd, config.Flags, config.FlagStorageDir, &cmder.storageDir)
	config.AddStringFlag(cmd, config.Flags, config.FlagRedisURL, &cmder.redisURL)
	config.AddStringFlag(cmd, config.Flags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

func (c *ServeCommander) newLogger() (*slog.Logger, func(), error) {
	console := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(os.Stderr))
	if c.logFile == "" {
		return console, func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	file := logger.New(logger.WithDebug(c.debug), logger.WithJSON(true), logger.WithWriter(f))
	return logger.Multi(console, file), func() { _ = f.Close() }, nil
}

func (c *ServeCommander) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		closeLog func()
		err      error
	)
	c.logger, closeLog, err = c.newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	built, err := start.Build(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	sess := built.Session
	defer func() {
		if err := sess.Close(); err != nil {
			c.logger.Warn("closing session", "error", err)
		}
	}()

	for _, w := range built.Warnings {
		c.logger.Warn(w)
	}

	if c.cfg.User.FirstName != "" {
		if err := sess.Init(ctx, c.cfg.User.FirstName, c.cfg.User.LastName); err != nil {
			return fmt.Errorf("initializing session: %w", err)
		}
		info, _ := sess.Info()
		c.logger.Info("session ready",
			"user_id", info.UserID,
			"session_id", info.SessionID,
		)
	}

	server, err := api.NewServer(api.Config{ListenAddr: c.cfg.API.Listen}, sess, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	// Channel to capture errors from the server goroutine
	errChan := make(chan error, 1)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
