package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tangxiangong/weisheng/internal/models"
)

func sampleSummary() models.RunSummary {
	return models.RunSummary{
		RunID:       "8f6c3a51-3f41-4c3e-9a52-2f0d1c6a7b10",
		Source:      "12月3日.csv",
		Output:      "12月3日.xlsx",
		ReportDate:  "12月3日",
		RankMode:    "dense",
		Records:     3,
		Unmatched:   1,
		Rows:        30,
		GeneratedAt: time.Date(2024, 12, 3, 16, 0, 0, 0, time.UTC),
		Standings: []models.RunStanding{
			{Kind: "department", Apartment: 1, Label: "高一A部\n(张)", Total: -3, Rank: 2, Rows: 3},
			{Kind: "manager", Apartment: 1, Label: "赵", Total: 0, Rank: 1, Rows: 1, Placeholder: true},
		},
	}
}

func TestReportRunRepository_SaveRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sampleSummary()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_runs")).
		WithArgs(s.RunID, s.Source, s.Output, s.ReportDate, s.RankMode, s.Records, s.Unmatched, s.Rows, s.GeneratedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for i, st := range s.Standings {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_standings")).
			WithArgs(s.RunID, i, st.Kind, st.Apartment, st.Label, st.Total, st.Rank, st.Rows, st.Placeholder).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	repo := NewReportRunRepository(db, zap.NewNop())
	id, err := repo.SaveRun(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, s.RunID, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRunRepository_SaveRunGeneratesID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sampleSummary()
	s.RunID = ""
	s.Standings = nil
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_runs")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewReportRunRepository(db, zap.NewNop())
	id, err := repo.SaveRun(context.Background(), s)
	require.NoError(t, err)
	assert.Len(t, id, 36)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRunRepository_SaveRunRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := sampleSummary()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_runs")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_standings")).
		WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	repo := NewReportRunRepository(db, zap.NewNop())
	_, err = repo.SaveRun(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "standing 0")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRunRepository_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS report_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewReportRunRepository(db, zap.NewNop())
	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
