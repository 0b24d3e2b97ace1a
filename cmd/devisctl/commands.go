package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/facilidevis/facilidevis/internal/bootstrap"
	"github.com/facilidevis/facilidevis/internal/config"
	"github.com/facilidevis/facilidevis/internal/logging"
	"github.com/facilidevis/facilidevis/internal/reminders"
)

// env loads configuration and opens the store for one command run.
func (o *rootOptions) env(ctx context.Context, cmd *cobra.Command) (logging.Logger, *bootstrap.Container, func(), error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	log := logging.New(cmd.ErrOrStderr(), cfg.App.IsProduction())
	s, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := bootstrap.New(ctx, cfg, s, log)
	if err != nil {
		_ = s.Close()
		return nil, nil, nil, err
	}
	return log, c, func() { _ = s.Close() }, nil
}

func migrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured store backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.configPath)
			if err != nil {
				return err
			}
			cfg.App.Migrations = true
			log := logging.New(cmd.ErrOrStderr(), cfg.App.IsProduction())
			s, err := bootstrap.OpenStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s backend)\n", cfg.App.StoreBackend)
			return nil
		},
	}
}

func remindCmd(opts *rootOptions) *cobra.Command {
	var (
		at     string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Process every reminder due now (or at --at)",
		Long: `Process due reminders once, like the cron call to
POST /internal/reminders/process. Safe to run repeatedly: a reminder is
only ever processed once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: %w", err)
				}
				now = t.UTC()
			}
			log, c, closeFn, err := opts.env(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			report, err := c.Scheduler.ProcessDue(cmd.Context(), now)
			if err != nil {
				return err
			}
			log.Info(cmd.Context(), "reminders processed", "processed", report.Processed, "at", now)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "process as if the time were this RFC 3339 instant")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "output the report as JSON")
	return cmd
}

func printReport(w io.Writer, report reminders.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REMINDER\tQUOTE\tSTATUS\tERROR")
	for _, r := range report.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ReminderID, r.QuoteID, r.Status, r.Error)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d processed\n", report.Processed)
}

func channelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "Show which delivery channels are configured or simulated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, c, closeFn, err := opts.env(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHANNEL\tPROVIDER\tCONFIGURED\tSIMULATED")
			for _, st := range c.Dispatcher.Status() {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%t\n", st.Channel, st.Provider, st.Configured, st.Simulated)
			}
			return tw.Flush()
		},
	}
}
