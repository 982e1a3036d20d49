package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateReturnsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("INSERT INTO jobs").
		WithArgs("alice", "backend engineer role").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := repo.Create(context.Background(), "alice", "backend engineer role")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScansResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id").
		WithArgs("alice", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "description", "generated_result", "created_at", "updated_at"}).
			AddRow(int64(7), "alice", "backend engineer role", []byte(`{"name":"Alice"}`), now, now))

	job, err := repo.GetByID(context.Background(), "alice", 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if string(job.Result) != `{"name":"Alice"}` {
		t.Fatalf("unexpected result payload: %s", job.Result)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT id, user_id").
		WithArgs("alice", int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "description", "generated_result", "created_at", "updated_at"}))

	_, err = repo.GetByID(context.Background(), "alice", 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoSaveResultRequiresExistingJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE jobs").
		WithArgs("alice", int64(99), []byte(`{}`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.SaveResult(context.Background(), "alice", 99, json.RawMessage(`{}`))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByUserMarksResults(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, description").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "description", "has_result", "updated_at"}).
			AddRow(int64(7), "backend engineer role", true, now).
			AddRow(int64(3), "data engineer role", false, now.Add(-time.Hour)))

	summaries, err := repo.ListByUser(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if !summaries[0].HasResult || summaries[1].HasResult {
		t.Fatalf("unexpected HasResult flags: %+v", summaries)
	}
}
