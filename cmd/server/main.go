package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/speech-steps/backend/internal/auth"
	"github.com/speech-steps/backend/internal/config"
	"github.com/speech-steps/backend/internal/content"
	"github.com/speech-steps/backend/internal/narrative"
	"github.com/speech-steps/backend/internal/records"
	"github.com/speech-steps/backend/internal/scoring"
	"github.com/speech-steps/backend/internal/session"
	"github.com/speech-steps/backend/internal/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Vocabulary training session backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the records schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := records.Connect(cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()
			return records.Migrate(db, cfg.DB.Driver)
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		userID int64
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed token for local testing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.New(cfg.JWTSecret).IssueToken(userID, ttl)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 1, "user id carried by the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 72*time.Hour, "token lifetime")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	pipeline, err := cfg.Pipeline()
	if err != nil {
		return err
	}
	if err := pipeline.Validate(); err != nil {
		return fmt.Errorf("invalid pipeline: %w", err)
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, "speech-steps", cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			log.Printf("Telemetry shutdown: %v", err)
		}
	}()

	authenticator := auth.New(cfg.JWTSecret)

	// Records live in this process unless a remote service is configured.
	var (
		persister     session.Persister
		recordHandler *records.Handler
		db            *sql.DB
	)
	if cfg.RecordsBaseURL == "" {
		db, err = records.Connect(cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := records.Migrate(db, cfg.DB.Driver); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		store := records.NewStore(db, cfg.DB.Driver)
		persister = store
		recordHandler = records.NewHandler(store)
	} else {
		persister = records.NewClient(cfg.RecordsBaseURL, cfg.HTTPTimeout, authenticator)
		log.Printf("Records stored remotely at %s", cfg.RecordsBaseURL)
	}

	deps := session.Deps{
		Content:  content.NewClient(cfg.ContentBaseURL, cfg.HTTPTimeout),
		Scorer:   scoring.NewClient(cfg.ScoringBaseURL, cfg.HTTPTimeout),
		Records:  persister,
		Pipeline: pipeline,
		Paths:    cfg.AssetPaths(),
	}
	if notes := narrative.NewNoteWriter(cfg); notes != nil {
		deps.Notes = notes
	}

	manager := session.NewManager(deps)
	sessionHandler := session.NewHandler(manager)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/sessions/pipeline", sessionHandler.Pipeline).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(authenticator.Middleware)
	protected.HandleFunc("/sessions/ws", sessionHandler.Connect).Methods("GET")
	if recordHandler != nil {
		protected.HandleFunc("/training/create", recordHandler.CreateTraining).Methods("POST")
		protected.HandleFunc("/training", recordHandler.ListTrainings).Methods("GET")
		protected.HandleFunc("/training/{id:[0-9]+}", recordHandler.GetTraining).Methods("GET")
	}

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on :%s (%d activities, %d rounds per session)",
			cfg.Port, len(pipeline.Activities), pipeline.TotalRounds())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down, closing %d live sessions", manager.Len())
	manager.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
