package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/you/go-flight-finder/internal/config"
	"github.com/you/go-flight-finder/internal/providers"
	"github.com/you/go-flight-finder/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:          "flights",
		Short:        "Search flight offers from Amadeus and render them",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: $FLIGHTS_CONFIG or ./config.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "log format: text or json")
	root.PersistentFlags().String("amadeus-url", "https://test.api.amadeus.com", "Amadeus API base URL")

	load := func(cmd *cobra.Command) (*config.Config, error) {
		cfg, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}

	root.AddCommand(newServeCmd(load), newSearchCmd(load))
	return root
}

type configLoader func(cmd *cobra.Command) (*config.Config, error)

// newSearchService wires the process-wide collaborators: one outbound
// client, one Amadeus provider, one formatter.
func newSearchService(cfg *config.Config, client *http.Client, logger *slog.Logger) *service.SearchService {
	if client == nil {
		client = providers.NewHTTPClient(cfg.HTTPTimeout)
	}
	amadeus := providers.NewAmadeus(cfg, client, logger)
	return service.NewSearchService(amadeus, service.Formatter{LogoBaseURL: cfg.LogoBaseURL}, logger)
}
