package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/munigraph-cli/internal/render"
	"github.com/sells-group/munigraph-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve saved graphs over HTTP",
	Long:  "Exposes saved builds as JSON under /api/v1 and the latest build as a Leaflet map under /map.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		s, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		limiter := rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
		router := buildRouter(s, limiter)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the HTTP routes. Split out so tests can exercise the
// handlers without binding a port.
func buildRouter(s store.Store, limiter *rate.Limiter) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	if limiter != nil {
		r.Use(rateLimit(limiter))
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/builds", func(w http.ResponseWriter, req *http.Request) {
			builds, err := s.ListBuilds(req.Context())
			if err != nil {
				serveError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, builds)
		})

		r.Get("/graphs/latest", func(w http.ResponseWriter, req *http.Request) {
			g, err := s.LatestGraph(req.Context())
			if err != nil {
				serveError(w, err)
				return
			}
			if g == nil {
				writeJSONError(w, http.StatusNotFound, "no builds saved yet")
				return
			}
			writeJSON(w, http.StatusOK, g)
		})

		r.Get("/graphs/{id}", func(w http.ResponseWriter, req *http.Request) {
			g, err := s.GetGraph(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSONError(w, http.StatusNotFound, "build not found")
				return
			}
			writeJSON(w, http.StatusOK, g)
		})

		r.Get("/municipalities/{code}", func(w http.ResponseWriter, req *http.Request) {
			g, err := s.LatestGraph(req.Context())
			if err != nil {
				serveError(w, err)
				return
			}
			if g == nil {
				writeJSONError(w, http.StatusNotFound, "no builds saved yet")
				return
			}
			m := g.Municipality(chi.URLParam(req, "code"))
			if m == nil {
				writeJSONError(w, http.StatusNotFound, "municipality not found")
				return
			}
			writeJSON(w, http.StatusOK, m)
		})
	})

	r.Get("/map", func(w http.ResponseWriter, req *http.Request) {
		g, err := s.LatestGraph(req.Context())
		if err != nil {
			serveError(w, err)
			return
		}
		if g == nil {
			http.Error(w, "no builds saved yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.WriteMap(w, g, render.Options{}); err != nil {
			zap.L().Error("map render failed", zap.Error(err))
		}
	})

	return r
}

// rateLimit rejects requests over the configured sustained rate.
func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func serveError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSONError(w, http.StatusInternalServerError, "internal error")
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
