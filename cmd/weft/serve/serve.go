// Package servecmder provides the serve command for running the mock server.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/weftworks/weft/mock"
	"github.com/weftworks/weft/mock/record"
	"github.com/weftworks/weft/pkg/config"
	"github.com/weftworks/weft/pkg/logger"
)

type ServeCommander struct {
	listen       string
	fixtures     string
	noFallback   bool
	recordDriver string
	sqlitePath   string
	logLevel     string
	logFormat    string
	logFile      string
	debug        bool

	logger *slog.Logger
}

const serveLongDesc string = `Run the weft mock server.

Endpoints come from the TOML fixture file given with --fixtures; the file is
watched and reloaded when it changes. Every handled exchange is recorded and
can be inspected at GET /__weft/requests.

Examples:
  weft serve --fixtures fixtures.toml
  weft serve -l :8080 --record-driver sqlite --sqlite ./weft.db`

const serveShortDesc string = "Run the weft mock server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagListen,
				config.FlagFixtures,
				config.FlagNoFallback,
				config.FlagRecordDriver,
				config.FlagSQLite,
				config.FlagLogLevel,
				config.FlagLogFormat,
				config.FlagLogFile,
			})

			cfg := config.FromViper(v)
			cmder.listen = cfg.Mock.Listen
			cmder.fixtures = cfg.Mock.Fixtures
			cmder.noFallback = cfg.Mock.NoFallback
			cmder.recordDriver = cfg.Record.Driver
			cmder.sqlitePath = cfg.Record.SQLitePath
			cmder.logLevel = cfg.Log.Level
			cmder.logFormat = cfg.Log.Format
			cmder.logFile = cfg.Log.File
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagFixtures, &cmder.fixtures)
	config.AddBoolFlag(cmd, config.Flags, config.FlagNoFallback, &cmder.noFallback)
	config.AddStringFlag(cmd, config.Flags, config.FlagRecordDriver, &cmder.recordDriver)
	config.AddStringFlag(cmd, config.Flags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogLevel, &cmder.logLevel)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFormat, &cmder.logFormat)
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFile, &cmder.logFile)

	return cmd
}

func (c *ServeCommander) run() error {
	log, closeLog, err := c.newLogger()
	if err != nil {
		return err
	}
	defer closeLog()
	c.logger = log

	store, err := c.newStore()
	if err != nil {
		return err
	}

	server := mock.New(mock.Config{
		Listen:     c.listen,
		NoFallback: c.noFallback,
		Store:      store,
		Logger:     c.logger,
	})

	if c.fixtures != "" {
		watcher, err := server.WatchFixtures(c.fixtures)
		if err != nil {
			return fmt.Errorf("loading fixtures: %w", err)
		}
		defer watcher.Close()
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("mock server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Close()
	}
}

// newLogger builds the configured logger, optionally teeing a JSON copy to a
// file. The returned closer releases the file handle.
func (c *ServeCommander) newLogger() (*slog.Logger, func(), error) {
	opts := []logger.Option{logger.WithLevel(c.logLevel)}

	if c.debug {
		opts = append(opts, logger.WithDebug(true))
	}

	switch c.logFormat {
	case "json":
		opts = append(opts, logger.WithJSON(true))
	case "text":
		// slog's default text handler
	default:
		opts = append(opts, logger.WithPretty(true))
	}

	log := logger.New(opts...)
	closeLog := func() {}

	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		fileLog := logger.New(logger.WithJSON(true), logger.WithWriter(f))
		log = logger.Multi(log, fileLog)
		closeLog = func() { _ = f.Close() }
	}

	return log, closeLog, nil
}

// newStore builds the exchange store named by record.driver.
func (c *ServeCommander) newStore() (record.Store, error) {
	switch c.recordDriver {
	case "sqlite":
		path := c.sqlitePath
		if path == "" {
			path = ":memory:"
		}
		store, err := record.NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite store: %w", err)
		}
		c.logger.Info("using sqlite exchange store", "path", path)
		return store, nil
	case "", "memory":
		c.logger.Info("using in-memory exchange store")
		return record.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown record driver %q", c.recordDriver)
	}
}
