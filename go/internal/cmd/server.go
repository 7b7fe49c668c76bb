package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/proctor/go/internal/config"
	"github.com/mcdev12/proctor/go/internal/contest"
	"github.com/mcdev12/proctor/go/internal/editor"
	"github.com/mcdev12/proctor/go/internal/monitoring"
	"github.com/mcdev12/proctor/go/internal/questions"
	"github.com/mcdev12/proctor/go/internal/students"
	"github.com/mcdev12/proctor/go/internal/submissions"
)

func setupServer(cfg config.Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{contest.AttemptsRemainingHeader},
	})

	// Register services
	registerServices(mux, services)

	// WebSocket gateway and CSV export
	services.Gateway.RegisterRoutes(mux)
	mux.Handle(submissions.ExportPath, services.Export)

	// Add health check endpoint
	setupHealthCheck(mux, services)

	// Wrap with CORS
	handler := c.Handler(mux)

	// Setup HTTP/2 server
	return &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	mux.Handle(contest.NewHandler(services.Contest))
	mux.Handle(students.NewHandler(services.Students))
	mux.Handle(questions.NewHandler(services.Questions))
	mux.Handle(submissions.NewHandler(services.Submissions))
	mux.Handle(monitoring.NewHandler(services.Monitoring))
	mux.Handle(editor.NewHandler(services.Editor))
}

func setupHealthCheck(mux *http.ServeMux, services *Services) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := services.Health.Check()
		w.Header().Set("Content-Type", "application/json")
		if !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Error().Err(err).Msg("Failed to write health check response")
		}
	})
}
