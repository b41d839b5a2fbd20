package repository

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"lost_and_found/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func ctx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMockEventRepo(t *testing.T, dialect Dialect) (*EventRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("mock expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewEventRepository(db, dialect), mock
}

var eventColumns = []string{"id", "occurred_at", "type", "message", "meta"}

func TestAppend_Success_WithDefaults(t *testing.T) {
	t.Parallel()
	repo, mock := newMockEventRepo(t, DialectSQLite)

	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), models.EventLoginFailed, "bad password", `{"username":"alice"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.AuthEvent{
		// EventID empty -> repo generates
		// OccurredAt zero -> repo sets UTC now
		Type:        "  login_failed ",
		Description: "bad password",
		Metadata:    map[string]string{"username": "alice"},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestAppend_SQLiteTimestampIsFixedWidth(t *testing.T) {
	t.Parallel()
	repo, mock := newMockEventRepo(t, DialectSQLite)

	at := time.Date(2025, 3, 1, 9, 30, 0, 5, time.FixedZone("X", 3600))
	mock.ExpectExec(regexp.QuoteMeta(insertEventSQL)).
		WithArgs("ev-1", "2025-03-01 08:30:00.000000005", models.EventVerify, "verified", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(ctx(t), models.AuthEvent{EventID: "ev-1", OccurredAt: at, Type: models.EventVerify, Description: "verified"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
}

func TestAppend_DBError(t *testing.T) {
	t.Parallel()
	repo, mock := newMockEventRepo(t, DialectSQLite)

	mock.ExpectExec("INSERT INTO auth_events").
		WillReturnError(errors.New("down"))

	err := repo.Append(ctx(t), models.AuthEvent{Type: models.EventSignUp, Description: "x"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestList_NoFilters_And_MetadataParsing(t *testing.T) {
	t.Parallel()
	repo, mock := newMockEventRepo(t, DialectSQLite)

	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	js, _ := json.Marshal(map[string]any{"a": "b"})

	rows := sqlmock.NewRows(eventColumns).
		AddRow("1", now, models.EventSignUp, "m1", string(js)).
		AddRow("2", now.Add(time.Hour), models.EventLogin, "m2", nil).
		AddRow("3", now.Add(2*time.Hour), models.EventLogin, "m3", "{broken")

	mock.ExpectQuery(regexp.QuoteMeta(selectEventSQL + ` ORDER BY occurred_at ASC, id ASC LIMIT ?`)).
		WithArgs(defaultEventLimit).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), EventFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3, got %d", len(got))
	}
	b1, _ := json.Marshal(got[0].Metadata)
	if string(b1) != string(js) {
		t.Fatalf("metadata mismatch: %s vs %s", string(b1), string(js))
	}
	if got[1].Metadata != nil {
		t.Fatalf("expected nil meta, got %#v", got[1].Metadata)
	}
	if got[2].Metadata != "{broken" {
		t.Fatalf("malformed meta should be kept raw, got %#v", got[2].Metadata)
	}
}

func TestList_WithFilters_Postgres(t *testing.T) {
	t.Parallel()
	repo, mock := newMockEventRepo(t, DialectPostgres)

	from := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	query := selectEventSQL + ` WHERE occurred_at >= $1 AND occurred_at <= $2 AND type = $3 ORDER BY occurred_at ASC, id ASC LIMIT $4`

	rows := sqlmock.NewRows(eventColumns).
		AddRow("2", from, models.EventLogin, "b", nil).
		AddRow("3", to, models.EventLogin, "c", nil)

	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(from, to, models.EventLogin, 10).
		WillReturnRows(rows)

	got, err := repo.List(ctx(t), EventFilter{From: from, To: to, Type: " login ", Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].EventID != "2" || got[1].EventID != "3" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestList_AfterCursor(t *testing.T) {
	t.Parallel()
	repo, mock := newMockEventRepo(t, DialectSQLite)

	after := time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(selectEventSQL + ` WHERE occurred_at > ? ORDER BY occurred_at ASC, id ASC LIMIT ?`)).
		WithArgs("2025-01-01 11:00:00.000000000", 50).
		WillReturnRows(sqlmock.NewRows(eventColumns))

	got, err := repo.List(ctx(t), EventFilter{After: after, Limit: 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty, got %+v", got)
	}
}

func TestList_ScanError(t *testing.T) {
	t.Parallel()
	repo, mock := newMockEventRepo(t, DialectSQLite)

	rows := sqlmock.NewRows(eventColumns).
		// occurred_at wrong type to force scan error
		AddRow("x", 123, models.EventLogin, "msg", nil)

	mock.ExpectQuery("SELECT id, occurred_at, type, message, meta FROM auth_events").
		WillReturnRows(rows)

	if _, err := repo.List(ctx(t), EventFilter{}); err == nil {
		t.Fatalf("expected scan error, got nil")
	}
}
