package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tangxiangong/weisheng/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS report_runs (
	run_id       UUID PRIMARY KEY,
	source       TEXT NOT NULL,
	output       TEXT NOT NULL,
	report_date  TEXT NOT NULL,
	rank_mode    TEXT NOT NULL,
	records      INT NOT NULL,
	unmatched    INT NOT NULL,
	rows         INT NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS report_standings (
	run_id      UUID NOT NULL REFERENCES report_runs(run_id) ON DELETE CASCADE,
	position    INT NOT NULL,
	kind        TEXT NOT NULL,
	apartment   INT NOT NULL,
	label       TEXT NOT NULL,
	total       INT NOT NULL,
	rank        INT NOT NULL,
	rows        INT NOT NULL,
	placeholder BOOLEAN NOT NULL,
	PRIMARY KEY (run_id, position)
);`

// ReportRunRepository 报表生成记录归档
type ReportRunRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRunRepository 创建报表归档仓库
func NewReportRunRepository(db *sql.DB, logger *zap.Logger) *ReportRunRepository {
	return &ReportRunRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the archive tables when missing.
func (r *ReportRunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveRun stores one run and its standings in a single transaction. A run id is
// generated when summary.RunID is empty; the stored id is returned.
func (r *ReportRunRepository) SaveRun(ctx context.Context, summary models.RunSummary) (string, error) {
	runID := summary.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO report_runs (run_id, source, output, report_date, rank_mode, records, unmatched, rows, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		runID, summary.Source, summary.Output, summary.ReportDate, summary.RankMode,
		summary.Records, summary.Unmatched, summary.Rows, summary.GeneratedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert report run: %w", err)
	}

	for i, s := range summary.Standings {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO report_standings (run_id, position, kind, apartment, label, total, rank, rows, placeholder)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, i, s.Kind, s.Apartment, s.Label, s.Total, s.Rank, s.Rows, s.Placeholder,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert standing %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit report run: %w", err)
	}

	r.logger.Info("Report run archived",
		zap.String("run_id", runID),
		zap.Int("standings", len(summary.Standings)),
	)
	return runID, nil
}
