package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wuyiadepoju/payments-reconciliation/internal/app/payments/deliverylog"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS webhook_deliveries").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo, err := New(db)
	require.NoError(t, err)
	return repo, mock
}

func TestRepository_Save(t *testing.T) {
	repo, mock := newMockRepository(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO webhook_deliveries").
		WithArgs("req-1", "payment", "123", "applied", "approved", "trace", "span", "2024-03-01T12:00:00.000000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Save(context.Background(), &deliverylog.Entry{
		RequestID:  "req-1",
		Kind:       "payment",
		GatewayID:  "123",
		Outcome:    "applied",
		Detail:     "approved",
		TraceID:    "trace",
		SpanID:     "span",
		ReceivedAt: at,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveEmptyDetailIsNull(t *testing.T) {
	repo, mock := newMockRepository(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO webhook_deliveries").
		WithArgs("", "unknown", "", "ignored", nil, "", "", "2024-03-01T12:00:00.000000000Z").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Save(context.Background(), &deliverylog.Entry{
		Kind:       "unknown",
		Outcome:    "ignored",
		ReceivedAt: at,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec("INSERT INTO webhook_deliveries").
		WillReturnError(errors.New("disk I/O error"))

	err := repo.Save(context.Background(), &deliverylog.Entry{GatewayID: "123", ReceivedAt: time.Now()})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "123")
}

func TestRepository_Latest(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"request_id", "kind", "gateway_id", "outcome", "detail", "trace_id", "span_id", "received_at"}).
		AddRow("req-2", "payment", "123", "duplicate", "", "", "", "2024-03-01T12:05:00.000000000Z")
	mock.ExpectQuery(regexp.QuoteMeta("FROM   webhook_deliveries")).
		WithArgs("123").
		WillReturnRows(rows)

	entry, err := repo.Latest(context.Background(), "123")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "req-2", entry.RequestID)
	assert.Equal(t, "duplicate", entry.Outcome)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC), entry.ReceivedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LatestNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM   webhook_deliveries")).
		WithArgs("999").
		WillReturnError(sql.ErrNoRows)

	entry, err := repo.Latest(context.Background(), "999")

	require.NoError(t, err)
	assert.Nil(t, entry)
}
