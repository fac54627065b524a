package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Ebang213/PharmaForge-O/configs"
	"github.com/Ebang213/PharmaForge-O/logger"
	"github.com/Ebang213/PharmaForge-O/pipelines"
	"github.com/Ebang213/PharmaForge-O/pipelines/validation"
	"github.com/Ebang213/PharmaForge-O/tasks"
)

// PipelineFunc is the signature all pipelines must implement
type PipelineFunc func(ctx context.Context, db *sqlx.DB, cfg *configs.Config, id string) error

// Register your pipelines here
var pipelineRegistry = map[string]PipelineFunc{
	"validation": validation.Run,
}

// pipelineSteps maps pipeline names to their step names (for API discovery)
var pipelineSteps = map[string][]string{
	"validation": validation.Steps,
}

// API response types
type jobListResponse struct {
	Jobs []string `json:"jobs"`
}

type jobInfoResponse struct {
	Name     string   `json:"name"`
	Tasks    []string `json:"tasks"`
	Schedule string   `json:"schedule"`
}

type runRequest struct {
	ID        string   `json:"id"`
	SkipSteps []string `json:"skip_steps"`
}

type runResponse struct {
	Success  bool   `json:"success"`
	Pipeline string `json:"pipeline"`
	ID       string `json:"id"`
	Error    string `json:"error,omitempty"`
}

// authMiddleware checks for valid API key in Authorization header or X-API-Key header
func authMiddleware(apiKey string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// If no API key configured, skip auth
		if apiKey == "" {
			next(w, r)
			return
		}

		// Check Authorization: Bearer <key>
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == apiKey {
				next(w, r)
				return
			}
		}

		// Check X-API-Key header
		if r.Header.Get("X-API-Key") == apiKey {
			next(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}
}

func main() {
	// Load configuration
	cfg, err := configs.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	mux := http.NewServeMux()

	// Health check (no auth required)
	mux.HandleFunc("/health", healthHandler)

	// API endpoints (auth required)
	mux.HandleFunc("/jobs", authMiddleware(cfg.APIKey, jobsHandler))
	mux.HandleFunc("/jobs/", authMiddleware(cfg.APIKey, jobInfoHandler))
	mux.HandleFunc("/run/", authMiddleware(cfg.APIKey, makeRunHandler(cfg)))
	mux.HandleFunc("/validate", authMiddleware(cfg.APIKey, makeValidateHandler(cfg)))
	mux.HandleFunc("/uploads", authMiddleware(cfg.APIKey, makeUploadsHandler(cfg)))
	mux.HandleFunc("/uploads/", authMiddleware(cfg.APIKey, makeUploadHandler(cfg)))

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
		close(done)
	}()

	logger.Info("Starting EPCIS validation service",
		zap.String("port", port),
		zap.Strings("pipelines", getPipelineNames()),
		zap.Bool("auth_enabled", cfg.APIKey != ""))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("Server failed", zap.Error(err))
	}
	<-done
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// jobsHandler returns list of all pipeline names (GET /jobs)
func jobsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jobListResponse{Jobs: getPipelineNames()})
}

// jobInfoHandler returns pipeline details (GET /jobs/{name})
func jobInfoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if name == "" {
		http.Error(w, "pipeline name required", http.StatusBadRequest)
		return
	}

	steps, ok := pipelineSteps[name]
	if !ok {
		http.Error(w, "unknown pipeline: "+name, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jobInfoResponse{
		Name:     name,
		Tasks:    steps,
		Schedule: "@manual",
	})
}

func makeRunHandler(cfg *configs.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Extract pipeline name from URL: /run/{name}
		name := strings.TrimPrefix(r.URL.Path, "/run/")
		if name == "" {
			respondError(w, "pipeline name required", http.StatusBadRequest)
			return
		}

		pipelineFn, ok := pipelineRegistry[name]
		if !ok {
			respondError(w, "unknown pipeline: "+name, http.StatusNotFound)
			return
		}

		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			respondError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.ID == "" {
			req.ID = fmt.Sprintf("ID-%s", time.Now().Format("020106150405"))
		}

		// Initialize database connection (if configured)
		db, err := openDB(cfg)
		if err != nil {
			logger.Error("Database connection failed", zap.Error(err))
			respondError(w, fmt.Sprintf("database connection failed: %v", err), http.StatusInternalServerError)
			return
		}
		if db != nil {
			defer db.Close()
		}

		// Build context with skip steps
		ctx := r.Context()
		if len(req.SkipSteps) > 0 {
			ctx = context.WithValue(ctx, pipelines.SkipStepsKey, req.SkipSteps)
		}

		// Run pipeline
		logger.Info("Starting pipeline execution",
			zap.String("pipeline", name),
			zap.String("id", req.ID),
			zap.Strings("skip_steps", req.SkipSteps))

		if err := pipelineFn(ctx, db, cfg, req.ID); err != nil {
			logger.Error("Pipeline failed",
				zap.String("pipeline", name),
				zap.String("id", req.ID),
				zap.Error(err))
			respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		logger.Info("Pipeline completed",
			zap.String("pipeline", name),
			zap.String("id", req.ID))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(runResponse{Success: true, Pipeline: name, ID: req.ID})
	}
}

// makeValidateHandler validates a single document posted in the request
// body and returns the full report. The report is persisted when a
// database is configured.
func makeValidateHandler(cfg *configs.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize))
		if err != nil {
			respondError(w, "request body too large or unreadable", http.StatusRequestEntityTooLarge)
			return
		}

		report, err := tasks.ValidateDocument(body, r.Header.Get("Content-Type"))
		if err != nil {
			var formatErr *tasks.FormatError
			if errors.As(err, &formatErr) {
				respondError(w, formatErr.Error(), http.StatusUnprocessableEntity)
				return
			}
			respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if db, dbErr := openDB(cfg); dbErr == nil && db != nil {
			defer db.Close()
			filename := r.URL.Query().Get("filename")
			if filename == "" {
				filename = "inline"
			}
			if _, saveErr := tasks.SaveReport(r.Context(), db, "", filename, report); saveErr != nil {
				logger.Error("Failed to persist report", zap.Error(saveErr))
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

// makeUploadsHandler lists recent validation runs (GET /uploads)
func makeUploadsHandler(cfg *configs.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		db, err := openDB(cfg)
		if err != nil || db == nil {
			respondError(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		defer db.Close()

		rows, err := tasks.ListUploads(r.Context(), db, cfg.ListLimit)
		if err != nil {
			respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	}
}

// makeUploadHandler returns one stored report (GET /uploads/{id})
func makeUploadHandler(cfg *configs.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/uploads/")
		if id == "" {
			respondError(w, "upload id required", http.StatusBadRequest)
			return
		}

		db, err := openDB(cfg)
		if err != nil || db == nil {
			respondError(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		defer db.Close()

		row, err := tasks.GetUpload(r.Context(), db, id)
		if err != nil {
			if err == sql.ErrNoRows {
				respondError(w, "upload not found: "+id, http.StatusNotFound)
				return
			}
			respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		report, err := tasks.DecodeReport(row)
		if err != nil {
			respondError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           row.ID,
			"filename":     row.Filename,
			"date_created": row.DateCreated,
			"report":       report,
		})
	}
}

// openDB opens a database connection when DB_HOST is configured. Returns
// nil with no error when the service runs without a database.
func openDB(cfg *configs.Config) (*sqlx.DB, error) {
	if cfg.DBHost == "" {
		return nil, nil
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
	)
	if cfg.DBSSL {
		dsn += "&tls=skip-verify"
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func respondError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(runResponse{Success: false, Error: msg})
}

func getPipelineNames() []string {
	names := make([]string, 0, len(pipelineRegistry))
	for name := range pipelineRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
