package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"growth-calculator/config"
	"growth-calculator/internal/cache"
	"growth-calculator/internal/index"
	"growth-calculator/lib/helpers"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "growth-calculator",
		Short:         "Interest calculator and cached index growth rates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			for _, key := range []string{"debug", "cache_file", "indices_file"} {
				if err := config.BindFlag(key, cmd.Flags().Lookup(flagName(key))); err != nil {
					return errors.Wrapf(err, "could not bind flag for %s", key)
				}
			}
			setupLogging()
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("cache-file", config.GetString("cache_file"), "path of the CAGR cache file")
	cmd.PersistentFlags().String("indices-file", config.GetString("indices_file"), "YAML file listing the indices to track")
	cmd.AddCommand(newServeCmd(), newCAGRCmd(), newCacheCmd())

	return cmd
}

func flagName(key string) string {
	switch key {
	case "cache_file":
		return "cache-file"
	case "indices_file":
		return "indices-file"
	case "metrics_port":
		return "metrics-port"
	case "period_years":
		return "period"
	}
	return key
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server, metrics endpoint and optional Telegram bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, key := range []string{"port", "metrics_port"} {
				if err := config.BindFlag(key, cmd.Flags().Lookup(flagName(key))); err != nil {
					return err
				}
			}
			return serve(cmd.Context())
		},
	}

	cmd.Flags().Int("port", config.GetInt("port"), "web server port")
	cmd.Flags().Int("metrics-port", config.GetInt("metrics_port"), "metrics and health port")

	return cmd
}

func newCAGRCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "cagr",
		Short: "Print the growth rate of every tracked index",
		Example: `  # Print cached or freshly computed rates
  growth-calculator cagr

  # Ignore the cache and refetch everything
  growth-calculator cagr --refresh`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.BindFlag("period_years", cmd.Flags().Lookup("period")); err != nil {
				return err
			}

			a, err := newApp(prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer a.Close()

			if refresh {
				if err := a.store.Purge(); err != nil {
					return err
				}
			}

			outcomes := a.aggregator.ResolveAll(cmd.Context(), a.spec)
			return printOutcomes(cmd.OutOrStdout(), a.resolver.PeriodYears(), outcomes)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "purge the cache before resolving")
	cmd.Flags().Int("period", config.GetInt("period_years"), "look-back period in years")

	return cmd
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the CAGR cache file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached growth rates with their age",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := cache.Open(config.GetString("cache_file"))
			return printRecords(cmd.OutOrStdout(), store, time.Now())
		},
	}, &cobra.Command{
		Use:   "purge",
		Short: "Remove every cached growth rate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := cache.Open(config.GetString("cache_file"))
			n := store.Len()
			if err := store.Purge(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d records from %s\n", n, store.Path())
			return nil
		},
	})

	return cmd
}

func printOutcomes(w io.Writer, periodYears int, outcomes []index.Outcome) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "INDEX\tSYMBOL\t%dY CAGR\tSTATUS\n", periodYears)
	for _, o := range outcomes {
		value := "-"
		if o.Available() {
			value = helpers.FormatPercent(o.Value)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Name, o.Symbol, value, o.Status)
	}
	return tw.Flush()
}

func printRecords(w io.Writer, store *cache.Store, now time.Time) error {
	records := store.Snapshot()
	if len(records) == 0 {
		fmt.Fprintf(w, "No cached records in %s\n", store.Path())
		return nil
	}

	symbols := make([]string, 0, len(records))
	for s := range records {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tCAGR\tCOMPUTED")
	for _, s := range symbols {
		rec := records[s]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s, helpers.FormatPercent(rec.Value), helpers.FormatAge(rec.ComputedAt(), now))
	}
	return tw.Flush()
}
