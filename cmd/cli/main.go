package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jfpDev/bankTransations/internal/app"
	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/infrastructure/config"
	"github.com/jfpDev/bankTransations/internal/infrastructure/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, config.Load)
	stop()
	os.Exit(code)
}

// errInvalidInput is returned after field errors have been printed.
var errInvalidInput = errors.New("los datos ingresados no son válidos")

type cli struct {
	loadConfig func() (*config.Config, error)
	appOpts    []app.Option

	baseURL string
	timeout time.Duration

	app *app.App
}

// run executes txnctl with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, loadConfig func() (*config.Config, error), opts ...app.Option) int {
	c := &cli{loadConfig: loadConfig, appOpts: opts}

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if closeErr := c.app.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}

	if err != nil {
		fmt.Fprintln(stderr, errorMessage(err))
		return 1
	}
	return 0
}

func errorMessage(err error) string {
	var f *domain.Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return err.Error()
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "txnctl",
		Short:         "Transaction client",
		Long:          `A command line client for the transaction service with a local read cache.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.baseURL, "url", "", "Base URL of the transaction API (overrides TXN_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&c.timeout, "timeout", 0, "Request timeout (overrides TXN_HTTP_TIMEOUT)")

	rootCmd.AddCommand(
		c.listCmd(),
		c.getCmd(),
		c.byNameCmd(),
		c.createCmd(),
		c.updateCmd(),
		c.deleteCmd(),
		c.clientIDCmd(),
		c.watchCmd(),
	)

	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.APIURL = c.baseURL
	}
	if flags.Changed("timeout") {
		cfg.HTTPTimeout = c.timeout
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})

	c.app, err = app.New(cmd.Context(), cfg, log, c.appOpts...)
	return err
}
