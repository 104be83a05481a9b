// focusdesk is the command-line front end. It works directly on the
// configured store, so it needs no running server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"focusdesk/internal/app"
	"focusdesk/pkg/config"
)

// cli carries the state shared by all subcommands.
type cli struct {
	out    io.Writer
	logger *zap.Logger
	app    *app.App

	// global flags
	configDir  string
	env        string
	backend    string
	sqlitePath string
	verbose    bool

	// openOpts lets tests inject a store or clock
	openOpts []app.Option
}

func newRootCmd(out io.Writer, opts ...app.Option) *cobra.Command {
	c := &cli{out: out, openOpts: opts}

	root := &cobra.Command{
		Use:   "focusdesk",
		Short: "Habits, tasks, notes and a pomodoro timer",
		Long: `focusdesk tracks habits with daily streaks, a to-do list, one note per day
and pomodoro sessions.

Dates are YYYY-MM-DD calendar days in the configured time zone. A habit's
streak stays alive while its latest completed day is today or yesterday.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
	}

	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.configDir, "config-dir", config.GetEnv("CONFIG_DIR", "config"), "Directory holding base.yaml and <env>.yaml")
	root.PersistentFlags().StringVar(&c.env, "env", config.GetConfigEnv(), "Config environment")
	root.PersistentFlags().StringVar(&c.backend, "backend", "", "Override store backend (memory|sqlite|redis|postgres)")
	root.PersistentFlags().StringVar(&c.sqlitePath, "db", "", "Override SQLite file path")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		c.habitCmd(),
		c.taskCmd(),
		c.noteCmd(),
		c.statsCmd(),
		c.themeCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.timerCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.env, c.configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.backend != "" {
		cfg.Store.Backend = c.backend
	}
	if c.sqlitePath != "" {
		cfg.Store.SQLitePath = c.sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 命令行默认只输出错误日志
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	if c.verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	c.logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	c.app, err = app.New(cmd.Context(), cfg, c.logger, c.openOpts...)
	if err != nil {
		return err
	}
	// 没有常驻 refresher，打开时先让过了宽限期的 streak 归零
	c.app.Habits.RefreshStreaks(cmd.Context())
	return nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
