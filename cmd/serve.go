package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/quoteflow/internal/catalog"
	"github.com/sells-group/quoteflow/internal/model"
	"github.com/sells-group/quoteflow/internal/pipeline"
	"github.com/sells-group/quoteflow/internal/review"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for quote and review requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/api/catalog/price", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				NodeType string         `json:"node_type"`
				Values   map[string]any `json:"values"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			rule, ok := env.Catalog.Lookup(body.NodeType)
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "node type not in pricing database"})
				return
			}
			price, breakdown := catalog.ComputePrice(rule, body.Values)
			writeJSON(w, http.StatusOK, map[string]any{
				"node_type": body.NodeType,
				"price":     price,
				"breakdown": breakdown,
			})
		})

		r.Post("/api/workflow/validate", func(w http.ResponseWriter, req *http.Request) {
			data, err := io.ReadAll(http.MaxBytesReader(w, req.Body, cfg.Import.MaxBytes+1))
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
				return
			}
			res, priceList := env.Pipeline.Price(data)
			if !res.Valid {
				writeJSON(w, http.StatusUnprocessableEntity, res)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"validation": res,
				"price_list": priceList,
			})
		})

		r.Post("/api/quote", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Workflow      json.RawMessage `json:"workflow"`
				CustomerText  string          `json:"customer_text"`
				CustomerEmail string          `json:"customer_email"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}

			outcome, err := env.Pipeline.GenerateQuote(req.Context(), pipeline.QuoteRequest{
				Workflow:      body.Workflow,
				CustomerText:  body.CustomerText,
				CustomerEmail: body.CustomerEmail,
			})
			if err != nil {
				zap.L().Error("quote request failed", zap.Error(err))
				writeJSON(w, http.StatusBadGateway, map[string]string{"error": "pricing pass failed"})
				return
			}
			if outcome.Rejection != nil {
				writeJSON(w, http.StatusUnprocessableEntity, outcome.Rejection)
				return
			}
			writeJSON(w, http.StatusOK, outcome)
		})

		r.Get("/api/reviews", func(w http.ResponseWriter, req *http.Request) {
			var (
				items []model.ReviewQueueItem
				err   error
			)
			if req.URL.Query().Get("status") == string(model.ReviewPending) {
				items, err = env.Reviews.ListPending(req.Context())
			} else {
				items, err = env.Reviews.ListAll(req.Context())
			}
			if err != nil {
				zap.L().Error("list reviews failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
				return
			}
			writeJSON(w, http.StatusOK, items)
		})

		r.Get("/api/reviews/{id}", func(w http.ResponseWriter, req *http.Request) {
			item, err := env.Reviews.Get(req.Context(), chi.URLParam(req, "id"))
			if eris.Is(err, review.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
				return
			}
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get failed"})
				return
			}
			writeJSON(w, http.StatusOK, item)
		})

		r.Post("/api/reviews/{id}/approve", resolveHandler(env, true))
		r.Post("/api/reviews/{id}/reject", resolveHandler(env, false))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

// resolveHandler builds the approve/reject endpoint for the review queue.
func resolveHandler(env *env, approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Reviewer string `json:"reviewer"`
			Notes    string `json:"notes"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		id := chi.URLParam(req, "id")
		var (
			ok  bool
			err error
		)
		if approve {
			ok, err = env.Reviews.Approve(req.Context(), id, body.Reviewer, body.Notes)
		} else {
			ok, err = env.Reviews.Reject(req.Context(), id, body.Reviewer, body.Notes)
		}
		if err != nil {
			zap.L().Error("resolve review failed", zap.String("queue_id", id), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "resolve failed"})
			return
		}
		if !ok {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "item not found or already resolved"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"resolved": true})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
