package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/jfpDev/bankTransations/internal/adapter/http/middleware"
	"github.com/jfpDev/bankTransations/internal/domain"
	"github.com/jfpDev/bankTransations/internal/format"
	"github.com/jfpDev/bankTransations/internal/usecase"
)

func (c *cli) listCmd() *cobra.Command {
	var (
		search, sortField, order string
		asJSON, refresh          bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := parseSort(sortField, order)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if refresh {
				c.app.Sync.Invalidate(ctx, usecase.ListKey)
			}

			res, err := c.app.Sync.List(ctx, usecase.Blocking)
			if err != nil {
				return err
			}

			records := usecase.Project(res.Records, search, spec)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), records)
			}
			printTable(cmd.OutOrStdout(), records, c.app.Location)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Filter by name or business category (case-insensitive)")
	cmd.Flags().StringVar(&sortField, "sort", string(usecase.SortByDate), "Sort field: date, amount or name")
	cmd.Flags().StringVar(&order, "order", string(usecase.SortDesc), "Sort direction: asc or desc")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore cached data")

	return cmd
}

func (c *cli) getCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			res, err := c.app.Sync.Get(cmd.Context(), id, usecase.Blocking)
			if err != nil {
				return err
			}
			record, _ := res.Record()

			if asJSON {
				return printJSON(cmd.OutOrStdout(), []domain.Transaction{record})
			}
			printRecord(cmd.OutOrStdout(), record, c.app.Location)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	return cmd
}

func (c *cli) byNameCmd() *cobra.Command {
	var sortField, order string

	cmd := &cobra.Command{
		Use:   "by-name <name>",
		Short: "List the transactions of one counterparty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := parseSort(sortField, order)
			if err != nil {
				return err
			}

			res, err := c.app.Sync.ByCounterparty(cmd.Context(), args[0], usecase.Blocking)
			if err != nil {
				return err
			}

			printTable(cmd.OutOrStdout(), usecase.Project(res.Records, "", spec), c.app.Location)
			return nil
		},
	}

	cmd.Flags().StringVar(&sortField, "sort", string(usecase.SortByDate), "Sort field: date, amount or name")
	cmd.Flags().StringVar(&order, "order", string(usecase.SortDesc), "Sort direction: asc or desc")
	return cmd
}

// recordFlags are the field flags shared by create and update.
type recordFlags struct {
	amount, category, name, date string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.amount, "amount", "", "Amount in pesos (whole number)")
	cmd.Flags().StringVar(&f.category, "category", "", "Business category")
	cmd.Flags().StringVar(&f.name, "name", "", "Counterparty name")
	cmd.Flags().StringVar(&f.date, "date", "", "Transaction date, yyyy-MM-ddTHH:mm")
}

// changes returns the field values given on the command line.
func (f *recordFlags) changes(cmd *cobra.Command) map[domain.Field]string {
	out := make(map[domain.Field]string)
	flags := map[string]struct {
		field domain.Field
		value string
	}{
		"amount":   {domain.FieldAmount, f.amount},
		"category": {domain.FieldBusinessCategory, f.category},
		"name":     {domain.FieldCounterpartyName, f.name},
		"date":     {domain.FieldTransactionDate, f.date},
	}
	for flag, v := range flags {
		if cmd.Flags().Changed(flag) {
			out[v.field] = v.value
		}
	}
	return out
}

func (c *cli) createCmd() *cobra.Command {
	var fields recordFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			changes := fields.changes(cmd)
			if _, ok := changes[domain.FieldTransactionDate]; !ok {
				changes[domain.FieldTransactionDate] = format.CurrentDateTime(c.app.Now(), c.app.Location)
			}

			form := c.app.NewForm(usecase.CreateMode())
			defer form.Close()

			saved, err := c.submit(cmd, form, changes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transacción %d creada\n", saved.ID)
			printRecord(cmd.OutOrStdout(), saved, c.app.Location)
			return nil
		},
	}

	fields.register(cmd)
	return cmd
}

func (c *cli) updateCmd() *cobra.Command {
	var fields recordFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			res, err := c.app.Sync.Get(cmd.Context(), id, usecase.Blocking)
			if err != nil {
				return err
			}
			existing, _ := res.Record()

			form := c.app.NewForm(usecase.EditMode(existing))
			defer form.Close()

			saved, err := c.submit(cmd, form, fields.changes(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transacción %d actualizada\n", saved.ID)
			printRecord(cmd.OutOrStdout(), saved, c.app.Location)
			return nil
		},
	}

	fields.register(cmd)
	return cmd
}

// submit applies changes to form in field order and submits it. Field errors
// are printed one per line.
func (c *cli) submit(cmd *cobra.Command, form *usecase.FormController, changes map[domain.Field]string) (domain.Transaction, error) {
	for _, f := range domain.Fields {
		value, ok := changes[f]
		if !ok {
			continue
		}
		if err := form.OnFieldChange(f, value); err != nil {
			return domain.Transaction{}, err
		}
	}

	res, err := form.Submit(cmd.Context())
	if err != nil {
		return domain.Transaction{}, err
	}

	if !res.Submitted {
		for _, f := range domain.Fields {
			if msg := form.VisibleError(f); msg != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", fieldLabels[f], msg)
			}
		}
		return domain.Transaction{}, errInvalidInput
	}
	return res.Record, nil
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := c.app.Sync.DeleteTransaction(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Transacción %d eliminada\n", id)
			return nil
		},
	}
}

func (c *cli) clientIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "client-id",
		Short: "Print the identifier sent with every request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.app.Identity.ClientID(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func (c *cli) watchCmd() *cobra.Command {
	var (
		interval                 time.Duration
		search, sortField, order string
		metricsAddr              string
		count                    int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep printing the transaction list, refreshing in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := parseSort(sortField, order)
			if err != nil {
				return err
			}
			if interval <= 0 {
				return fmt.Errorf("invalid interval %s", interval)
			}

			view := usecase.NewListView()
			view.SetSearch(search)
			view.SetSort(spec)

			janitor, err := c.app.NewJanitor()
			if err != nil {
				return err
			}
			janitor.Start()
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = janitor.Stop(ctx)
			}()

			if metricsAddr == "" {
				metricsAddr = c.app.Config.MetricsAddr
			}
			if metricsAddr != "" {
				stop := c.serveMetrics(metricsAddr)
				defer stop()
			}

			return c.watch(cmd, view, interval, count)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Time between refreshes")
	cmd.Flags().StringVar(&search, "search", "", "Filter by name or business category (case-insensitive)")
	cmd.Flags().StringVar(&sortField, "sort", string(usecase.SortByDate), "Sort field: date, amount or name")
	cmd.Flags().StringVar(&order, "order", string(usecase.SortDesc), "Sort direction: asc or desc")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many refreshes (0 runs until interrupted)")
	return cmd
}

func (c *cli) watch(cmd *cobra.Command, view *usecase.ListView, interval time.Duration, count int) error {
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 1; ; i++ {
		res, err := c.app.Sync.List(ctx, usecase.Background)
		switch {
		case err != nil:
			fmt.Fprintln(errOut, domain.NotificationMessage(err))
		default:
			if res.Stale {
				fmt.Fprintf(errOut, "mostrando datos del %s; actualizando\n", format.FormatDate(res.FetchedAt, c.app.Location))
			}
			printTable(out, view.Render(res.Records), c.app.Location)
		}

		if count > 0 && i >= count {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *cli) serveMetrics(addr string) func() {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(c.app.Logger))
	r.Use(middleware.RequestLogger(c.app.Logger))
	r.Handle("/metrics", c.app.Metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		c.app.Logger.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.app.Logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseSort(field, order string) (usecase.SortSpec, error) {
	spec := usecase.SortSpec{
		Field:     usecase.SortField(field),
		Direction: usecase.SortDirection(order),
	}
	switch spec.Field {
	case usecase.SortByDate, usecase.SortByAmount, usecase.SortByName:
	default:
		return spec, fmt.Errorf("invalid sort field %q: want date, amount or name", field)
	}
	switch spec.Direction {
	case usecase.SortAsc, usecase.SortDesc:
	default:
		return spec, fmt.Errorf("invalid sort order %q: want asc or desc", order)
	}
	return spec, nil
}
