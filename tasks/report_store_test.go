package tasks

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/Ebang213/PharmaForge-O/types"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func sampleReport() *types.ValidationReport {
	return &types.ValidationReport{
		Format:     types.FormatJSON20,
		Status:     types.StatusValid,
		Events:     []types.Event{{EventType: types.ObjectEvent, Action: types.ActionAdd}},
		EventCount: 1,
		Summary:    types.Summary{ByType: map[string]int{}, EventsByType: map[string]int{"ObjectEvent": 1}},
	}
}

func TestSaveReport(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO validation_reports").
		WithArgs("upload-1", "shipment.json", "epcis_json_2_0", "valid", 1, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := SaveReport(ctx, db, "upload-1", "shipment.json", sampleReport())
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if id != "upload-1" {
		t.Errorf("Expected upload id 'upload-1', got %q", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestSaveReport_GeneratesID(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO validation_reports").
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := SaveReport(ctx, db, "", "shipment.json", sampleReport())
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if id == "" {
		t.Error("Expected a generated upload id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestListUploads(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "filename", "format", "status", "event_count", "chain_break_count", "report_body", "date_created",
	}).
		AddRow("upload-2", "b.json", "epcis_json_2_0", "valid", 3, 0, "{}", now).
		AddRow("upload-1", "a.xml", "epcis_xml_1_2", "invalid", 2, 1, "{}", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM validation_reports").
		WithArgs(50).
		WillReturnRows(rows)

	uploads, err := ListUploads(ctx, db, 0)
	if err != nil {
		t.Fatalf("ListUploads failed: %v", err)
	}

	if len(uploads) != 2 {
		t.Fatalf("Expected 2 uploads, got %d", len(uploads))
	}
	if uploads[0].ID != "upload-2" {
		t.Errorf("Expected newest upload first, got %q", uploads[0].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestGetUpload(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "filename", "format", "status", "event_count", "chain_break_count", "report_body", "date_created",
	}).AddRow("upload-1", "a.json", "epcis_json_2_0", "chain_break", 4, 2, `{"status":"chain_break"}`, time.Now())

	mock.ExpectQuery("SELECT (.+) FROM validation_reports WHERE id").
		WithArgs("upload-1").
		WillReturnRows(rows)

	row, err := GetUpload(ctx, db, "upload-1")
	if err != nil {
		t.Fatalf("GetUpload failed: %v", err)
	}
	if row.Status != "chain_break" {
		t.Errorf("Expected status 'chain_break', got %q", row.Status)
	}

	report, err := DecodeReport(row)
	if err != nil {
		t.Fatalf("DecodeReport failed: %v", err)
	}
	if report.Status != types.StatusChainBreak {
		t.Errorf("Expected decoded status chain_break, got %q", report.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestGetUpload_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM validation_reports WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := GetUpload(ctx, db, "missing")
	if err != sql.ErrNoRows {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}
}
