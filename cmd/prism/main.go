package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"prism/internal/app"
	"prism/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}
	defer a.Close()

	if os.Getenv("ENABLE_HTTP_MONITORING") == "true" {
		go startMonitoringServer(a)
	}

	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("pipeline error: %v", err)
	}
}

func startMonitoringServer(a *app.App) {
	port := os.Getenv("MONITORING_PORT")
	if port == "" {
		port = "8080"
	}

	http.HandleFunc("/health", healthHandler(a))
	http.HandleFunc("/metrics", metricsHandler(a))
	http.HandleFunc("/articles", articlesHandler(a))
	http.HandleFunc("/breaking", breakingHandler(a))

	log.Printf("starting monitoring server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Printf("monitoring server error: %v", err)
	}
}

func healthHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := a.Metrics().GetStats()

		status := "ok"
		if !stats["is_healthy"].(bool) {
			status = "error"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		writeJSON(w, map[string]interface{}{
			"status":     status,
			"last_run":   stats["last_run_time"],
			"last_error": stats["last_error"],
		})
	}
}

func metricsHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, a.Metrics().GetStats())
	}
}

func articlesHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		if category := r.URL.Query().Get("category"); category != "" {
			articles := a.Aggregator().ByCategory(category)
			if len(articles) > limit {
				articles = articles[:limit]
			}
			writeJSON(w, articles)
			return
		}
		writeJSON(w, a.Aggregator().TopN(limit))
	}
}

func breakingHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, a.Aggregator().Breaking())
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
