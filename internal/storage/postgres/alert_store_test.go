package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
)

func sampleAlert() crawler.AlertRecord {
	sent := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return crawler.AlertRecord{
		ID:              "alert-1",
		RunID:           "run-1",
		JobName:         "stock_a",
		Target:          "AAA",
		Message:         "AAA is 95.5",
		SentAt:          sent,
		SuppressedUntil: sent.Add(45000 * time.Second),
	}
}

func TestRecordAlertInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewAlertStoreWithPool(mock, "")
	require.NoError(t, err)

	rec := sampleAlert()
	mock.ExpectExec("INSERT INTO crawler_alerts").
		WithArgs(rec.ID, rec.RunID, rec.JobName, rec.Target, rec.Message, rec.SentAt, rec.SuppressedUntil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.RecordAlert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAlertWrapsExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewAlertStoreWithPool(mock, "alerts")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO alerts").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(boom)

	err = store.RecordAlert(context.Background(), sampleAlert())
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAlertRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewAlertStoreWithPool(mock, "")
	require.NoError(t, err)

	rec := sampleAlert()
	rec.ID = ""
	require.Error(t, store.RecordAlert(context.Background(), rec))
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewAlertStoreWithPool(mock, "")
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS crawler_alerts").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTableNameValidation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewAlertStoreWithPool(mock, "alerts; DROP TABLE x")
	require.Error(t, err)
	_, err = NewAlertStoreWithPool(nil, "")
	require.Error(t, err)
	_, err = NewAlertStore(context.Background(), AlertStoreConfig{})
	require.Error(t, err)
}
