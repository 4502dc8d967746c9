package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/you/go-flight-finder/internal/logging"
	"github.com/you/go-flight-finder/internal/providers"
	"github.com/you/go-flight-finder/internal/view"
)

func newSearchCmd(load configLoader) *cobra.Command {
	var (
		q      providers.SearchQuery
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run one flight search and print the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			logger := logging.Init(cfg.LogLevel, cfg.LogFormat)

			res, err := newSearchService(cfg, nil, logger).Search(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "AIRLINE\tFLIGHT\tDEPART\tARRIVE\tDURATION\tSTOPS\tPRICE")
			for _, f := range res.Flights {
				fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s %s\t%s\t%s\t%s\n",
					f.Airline, f.FlightNo, f.DepTime, f.From, f.ArrTime, f.To,
					f.Duration, f.Stops, view.FormatMoney(f.Price, f.Currency))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&q.Origin, "from", "", "origin IATA code")
	cmd.Flags().StringVar(&q.Destination, "to", "", "destination IATA code")
	cmd.Flags().StringVar(&q.Date, "date", "", "departure date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&q.Passengers, "passengers", "1", "number of adult passengers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
