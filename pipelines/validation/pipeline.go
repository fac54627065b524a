package validation

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Ebang213/PharmaForge-O/configs"
	"github.com/Ebang213/PharmaForge-O/logger"
	"github.com/Ebang213/PharmaForge-O/pipelines"
	"github.com/Ebang213/PharmaForge-O/tasks"
	"github.com/Ebang213/PharmaForge-O/types"
)

// Steps lists all task names in this pipeline (for API discovery).
var Steps = []string{
	"scan_upload_dir",
	"validate_documents",
	"persist_reports",
}

// Run executes the validation pipeline. It scans the upload directory for
// EPCIS documents, validates each one through the full engine, and persists
// the resulting reports. Documents that fail format detection count toward
// the failure threshold but do not stop the remaining documents.
func Run(ctx context.Context, db *sqlx.DB, cfg *configs.Config, id string) error {
	// Shared state via closures
	var files []tasks.UploadFile
	var validated []tasks.UploadFile
	var reports []*types.ValidationReport

	flow := pipelines.NewFlow("validation")

	// Task 1: Scan the upload directory for pending documents
	flow.AddTask("scan_upload_dir", func() error {
		var err error
		files, err = tasks.ScanUploadDir(cfg)
		if err != nil {
			return err
		}
		logger.Info("Found pending documents", zap.Int("count", len(files)))
		return nil
	})

	// Task 2: Validate every document through the engine
	flow.AddTask("validate_documents", func() error {
		if len(files) == 0 {
			logger.Info("No documents to validate, skipping")
			return nil
		}

		failed := 0
		for _, file := range files {
			report, err := tasks.ValidateDocument(file.Content, file.ContentType)
			if err != nil {
				failed++
				logger.Error("Document failed format detection",
					zap.String("file", file.Name),
					zap.Error(err),
				)
				continue
			}
			validated = append(validated, file)
			reports = append(reports, report)
		}

		failureRate := float64(failed) / float64(len(files))
		if failureRate > cfg.FailureThreshold {
			return fmt.Errorf("failure rate %.2f exceeds threshold %.2f (%d of %d documents unreadable)",
				failureRate, cfg.FailureThreshold, failed, len(files))
		}

		logger.Info("Validated documents",
			zap.Int("validated", len(reports)),
			zap.Int("failed", failed),
		)
		return nil
	}, "scan_upload_dir")

	// Task 3: Persist the reports
	flow.AddTask("persist_reports", func() error {
		if len(reports) == 0 {
			logger.Info("No reports to persist, skipping")
			return nil
		}
		if db == nil {
			logger.Warn("No database configured, reports not persisted",
				zap.Int("count", len(reports)))
			return nil
		}

		for i, report := range reports {
			uploadID, err := tasks.SaveReport(ctx, db, "", validated[i].Name, report)
			if err != nil {
				return err
			}
			logger.Info("Persisted report",
				zap.String("upload_id", uploadID),
				zap.String("file", validated[i].Name),
				zap.String("status", string(report.Status)),
			)
		}
		return nil
	}, "validate_documents")

	logger.Info("Starting validation pipeline", zap.String("run_id", id))
	return flow.Run(ctx)
}
