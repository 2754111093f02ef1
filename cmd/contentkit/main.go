// Command contentkit manages the collections and records of a contentkit
// database from the command line.
//
// Global flags come before the command:
//
//	contentkit -dsn "file:content.db?_pragma=foreign_keys(1)" migrate
//	contentkit apply -watch schema.yaml
//	contentkit record create posts '{"title": "Hello"}'
//	contentkit export -format msgpack > content.msgpack
//
// Settings are read from contentkit.yaml when present, from
// CONTENTKIT_DIALECT and CONTENTKIT_DSN, and from flags, the latter
// winning.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/syssam/contentkit/dialect"
	"github.com/syssam/contentkit/dialect/sql"
	"github.com/syssam/contentkit/engine"
	"github.com/syssam/contentkit/store/sqlstore"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "contentkit: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	configPath := flag.String("config", "contentkit.yaml", "Configuration file")
	dialectName := flag.String("dialect", "", "Database dialect (sqlite, postgres, mysql)")
	dsn := flag.String("dsn", "", "Data source name")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	debugSQL := flag.Bool("debug-sql", false, "Log every statement at debug level")
	stats := flag.Bool("stats", false, "Log query statistics on exit")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("missing command")
	}
	cmd := lookup(flag.Arg(0))
	if cmd == nil {
		return fmt.Errorf("unknown command %q", flag.Arg(0))
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	cfg, err := loadConfig(*configPath, set["config"])
	if err != nil {
		return err
	}
	if set["dialect"] {
		cfg.Dialect = *dialectName
	}
	if set["dsn"] {
		cfg.DSN = *dsn
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if set["debug-sql"] {
		cfg.DebugSQL = *debugSQL
	}
	if set["stats"] {
		cfg.Stats = *stats
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	ll := &slog.LevelVar{}
	level, _ := parseLevel(cfg.LogLevel)
	ll.Set(level)
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	a, err := openApp(cfg, logger, os.Stdout)
	if err != nil {
		return err
	}
	defer a.close()
	return cmd.run(ctx, a, flag.Args()[1:])
}

// app holds what the commands share.
type app struct {
	cfg    Config
	logger *slog.Logger
	drv    *sql.Driver
	stats  *sql.StatsDriver
	eng    *engine.Engine
	out    io.Writer
}

func openApp(cfg Config, logger *slog.Logger, out io.Writer) (*app, error) {
	drv, err := sql.Open(cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Dialect, err)
	}
	stats := sql.NewStatsDriver(drv,
		sql.WithSlowThreshold(cfg.SlowQueryThreshold),
		sql.WithSlowQueryLog(logger),
	)
	var d dialect.Driver = stats
	if cfg.DebugSQL {
		d = sql.NewDebugDriver(d, sql.DebugWithLogger(logger))
	}
	eng := engine.New(sqlstore.New(d),
		engine.WithLogger(logger),
		engine.PublishOnCreate(cfg.publishOnCreate()),
	)
	return &app{cfg: cfg, logger: logger, drv: drv, stats: stats, eng: eng, out: out}, nil
}

func (a *app) close() {
	if a.cfg.Stats {
		s := a.stats.QueryStats().Stats()
		a.logger.Info("query stats",
			"queries", s.TotalQueries,
			"execs", s.TotalExecs,
			"slow", s.SlowQueries,
			"errors", s.Errors,
			"avg", s.AvgQueryDuration(),
		)
	}
	if err := a.drv.Close(); err != nil {
		a.logger.Warn("close database", "error", err)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: contentkit [flags] <command> [args]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-40s %s\n", c.name+" "+c.args, c.help)
	}
	fmt.Fprintf(out, "\nflags:\n")
	flag.PrintDefaults()
}
