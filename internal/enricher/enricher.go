package enricher

import (
	"github.com/tangxiangong/weisheng/internal/models"
	"github.com/tangxiangong/weisheng/internal/reference"

	"go.uber.org/zap"
)

// Enricher 将原始违规记录与参考表关联
type Enricher struct {
	tables *reference.Tables
	logger *zap.Logger
}

// NewEnricher 创建记录关联器
func NewEnricher(tables *reference.Tables, logger *zap.Logger) *Enricher {
	return &Enricher{
		tables: tables,
		logger: logger,
	}
}

// Enrich joins one record against the reference tables.
// A lookup miss is not an error: department falls back to "" and teacher/manager to models.Unknown.
func (e *Enricher) Enrich(r models.ViolationRecord) models.ProcessedRecord {
	out := models.ProcessedRecord{
		Apartment: r.Apartment,
		Grade:     r.Grade,
		Class:     r.Class,
		Teacher:   models.Unknown,
		Manager:   models.Unknown,
		Dorm:      r.Dorm,
		Reason:    r.Reason,
		Deduction: models.Deduction,
	}

	if info, ok := e.tables.Class(r.Grade, r.Class); ok {
		out.Department = info.Department
		out.Teacher = info.Teacher
	}
	if manager, ok := e.tables.Manager(r.Apartment, models.Floor(r.Dorm)); ok {
		out.Manager = manager
	}
	return out
}

// EnrichAll enriches every record, keeping input order.
func (e *Enricher) EnrichAll(records []models.ViolationRecord) []models.ProcessedRecord {
	out := make([]models.ProcessedRecord, 0, len(records))
	misses := 0
	for _, r := range records {
		p := e.Enrich(r)
		if p.Teacher == models.Unknown || p.Manager == models.Unknown {
			misses++
		}
		out = append(out, p)
	}
	if misses > 0 {
		e.logger.Warn("Some records did not match the rosters",
			zap.Int("records", len(records)),
			zap.Int("unmatched", misses),
		)
	}
	return out
}
