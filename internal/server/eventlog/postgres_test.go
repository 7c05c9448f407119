package eventlog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manis-auth/manis/internal/common"
	"github.com/manis-auth/manis/internal/server/models"
)

// passthroughConverter lets slice arguments (pgx array binds) reach sqlmock
// without the default converter rejecting them.
type passthroughConverter struct{}

func (passthroughConverter) ConvertValue(v any) (driver.Value, error) {
	return driver.Value(v), nil
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthroughConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestPostgres_AppendWritesAllEventsInOneTx(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewPostgresRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO events`)).
		WithArgs(id, models.EntityTypeUser, models.PropertyLogin, "alice1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO events`)).
		WithArgs(id, models.EntityTypeUser, models.PropertyEmail, "a@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := r.Append(context.Background(), []models.Event{
		{EntityID: id, EntityType: models.EntityTypeUser, Property: models.PropertyLogin, Value: "alice1"},
		{EntityID: id, EntityType: models.EntityTypeUser, Property: models.PropertyEmail, Value: "a@example.com"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO events`)).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := r.Append(context.Background(), []models.Event{
		{EntityID: uuid.New(), EntityType: models.EntityTypeUser, Property: models.PropertyLogin, Value: "x"},
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ScanOrdersBySequence(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewPostgresRepository(db)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"sequence", "entity_id", "entity_type", "property", "value"}).
		AddRow(int64(1), id.String(), models.EntityTypeUser, models.PropertyLogin, "alice1").
		AddRow(int64(2), id.String(), models.EntityTypeUser, models.PropertyEmail, "a@example.com")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT sequence, entity_id, entity_type, property, value FROM events`)).
		WithArgs(models.EntityTypeUser, "").
		WillReturnRows(rows)

	events, err := r.Scan(context.Background(), models.EntityTypeUser, "")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].Sequence)
	assert.Equal(t, "alice1", events[0].Value)
	assert.Equal(t, id, events[1].EntityID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindEntityIDs(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewPostgresRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT entity_id FROM events`)).
		WithArgs(models.EntityTypeUser, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"entity_id"}).AddRow(id.String()))

	ids, err := r.FindEntityIDs(context.Background(), models.EntityTypeUser,
		[]string{models.PropertyLogin, models.PropertyEmail},
		[]string{"alice1"})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadEvents_EmptyCandidateSet(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewPostgresRepository(db)

	events, err := r.LoadEvents(context.Background(), models.EntityTypeUser, nil)
	require.NoError(t, err)
	assert.Empty(t, events)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindBatchResponse_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewPostgresRepository(db)
	key := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT response FROM batches`)).
		WithArgs(key).
		WillReturnError(sql.ErrNoRows)

	_, err := r.FindBatchResponse(context.Background(), key)
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CommitBatch(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewPostgresRepository(db)
	key := uuid.New()
	id := uuid.New()
	response := []byte(`{"validationErrors":[]}`)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO batches`)).
		WithArgs(key, response).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO events`)).
		WithArgs(id, models.EntityTypeUser, models.PropertyLogin, "alice1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := r.CommitBatch(context.Background(), key, response, []models.Event{
		{EntityID: id, EntityType: models.EntityTypeUser, Property: models.PropertyLogin, Value: "alice1"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CommitBatch_DuplicateKey(t *testing.T) {
	db, mock := newMockDB(t)
	r := NewPostgresRepository(db)
	key := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO batches`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := r.CommitBatch(context.Background(), key, []byte(`{}`), nil)
	require.ErrorIs(t, err, common.ErrorBatchExists)
	require.NoError(t, mock.ExpectationsWereMet())
}
