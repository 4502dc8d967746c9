package httpx

import (
	"log/slog"
	"net/http"
)

type RouterConfig struct {
	CORSAllowedOrigins []string
	Logger             *slog.Logger
}

func NewRouter(svc searcher, rnd renderer, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", IndexHandler(rnd))
	mux.HandleFunc("GET /flights", FlightsHandler(svc, rnd))
	mux.HandleFunc("GET /healthz", HealthHandler)

	return AccessLog(logger, CORS(cfg.CORSAllowedOrigins, mux))
}
