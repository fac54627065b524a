package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Ebang213/PharmaForge-O/configs"
	"github.com/Ebang213/PharmaForge-O/logger"
	"github.com/Ebang213/PharmaForge-O/types"

	_ "github.com/go-sql-driver/mysql"
)

// UploadRow represents one persisted validation run
type UploadRow struct {
	ID              string    `db:"id"`
	Filename        string    `db:"filename"`
	Format          string    `db:"format"`
	Status          string    `db:"status"`
	EventCount      int       `db:"event_count"`
	ChainBreakCount int       `db:"chain_break_count"`
	ReportBody      string    `db:"report_body"`
	DateCreated     time.Time `db:"date_created"`
}

// ConnectDB creates a new MySQL database connection
func ConnectDB(cfg *configs.Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
	)

	if cfg.DBSSL {
		dsn += "&tls=true"
	}

	logger.Info("Connecting to database",
		zap.String("host", cfg.DBHost),
		zap.String("port", cfg.DBPort),
		zap.String("database", cfg.DBName),
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("Database connection established")
	return db, nil
}

// SaveReport persists a validation report and returns the upload id it was
// stored under. A blank uploadID gets a freshly generated one.
func SaveReport(ctx context.Context, db *sqlx.DB, uploadID, filename string, report *types.ValidationReport) (string, error) {
	if uploadID == "" {
		uploadID = uuid.NewString()
	}

	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	query := `
		INSERT INTO validation_reports
			(id, filename, format, status, event_count, chain_break_count, report_body, date_created)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW())`

	if _, err := db.ExecContext(ctx, query,
		uploadID,
		filename,
		string(report.Format),
		string(report.Status),
		report.EventCount,
		report.ChainBreakCount,
		string(body),
	); err != nil {
		return "", fmt.Errorf("saving report: %w", err)
	}

	logger.Info("Report saved",
		zap.String("upload_id", uploadID),
		zap.String("filename", filename),
		zap.String("status", string(report.Status)),
	)

	return uploadID, nil
}

// ListUploads returns the most recent validation runs, newest first
func ListUploads(ctx context.Context, db *sqlx.DB, limit int) ([]UploadRow, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, filename, format, status, event_count, chain_break_count, report_body, date_created
		FROM validation_reports
		ORDER BY date_created DESC
		LIMIT ?`

	var rows []UploadRow
	if err := db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("listing uploads: %w", err)
	}

	return rows, nil
}

// GetUpload fetches a single validation run by upload id
func GetUpload(ctx context.Context, db *sqlx.DB, uploadID string) (*UploadRow, error) {
	query := `
		SELECT id, filename, format, status, event_count, chain_break_count, report_body, date_created
		FROM validation_reports
		WHERE id = ?
		LIMIT 1`

	var row UploadRow
	if err := db.GetContext(ctx, &row, query, uploadID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("fetching upload: %w", err)
	}

	return &row, nil
}

// DecodeReport unmarshals the stored report body of an upload row
func DecodeReport(row *UploadRow) (*types.ValidationReport, error) {
	var report types.ValidationReport
	if err := json.Unmarshal([]byte(row.ReportBody), &report); err != nil {
		return nil, fmt.Errorf("decoding stored report: %w", err)
	}
	return &report, nil
}
