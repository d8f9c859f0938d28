package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tangxiangong/weisheng/internal/config"
	"github.com/tangxiangong/weisheng/internal/enricher"
	"github.com/tangxiangong/weisheng/internal/layout"
	"github.com/tangxiangong/weisheng/internal/loader"
	"github.com/tangxiangong/weisheng/internal/models"
	"github.com/tangxiangong/weisheng/internal/notify"
	"github.com/tangxiangong/weisheng/internal/ranking"
	"github.com/tangxiangong/weisheng/internal/reference"
	"github.com/tangxiangong/weisheng/internal/report"
)

// publishTimeout bounds archive and notification calls after the workbook is saved.
const publishTimeout = 30 * time.Second

// RunArchive stores finished runs.
type RunArchive interface {
	SaveRun(ctx context.Context, summary models.RunSummary) (string, error)
}

// Request 一次报表生成请求
type Request struct {
	Input  string
	Output string // 为空时使用与输入同名的 .xlsx
	// DryRun 只把排版结果以文本输出到 Preview，不写文件、不归档、不通知
	DryRun  bool
	Preview io.Writer
}

// ReportService 宿舍卫生通报生成服务
type ReportService struct {
	cfg       *config.Config
	archive   RunArchive
	notifiers []notify.Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewReportService 创建报表服务；archive 可为 nil
func NewReportService(cfg *config.Config, archive RunArchive, notifiers []notify.Notifier, logger *zap.Logger) *ReportService {
	return &ReportService{
		cfg:       cfg,
		archive:   archive,
		notifiers: notifiers,
		logger:    logger,
		now:       time.Now,
	}
}

// OutputPath replaces the input's extension with .xlsx.
func OutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".xlsx"
}

// LoadTables 读取三张名册并构建参考表
func (s *ReportService) LoadTables() (*reference.Tables, error) {
	classrooms, err := loader.LoadClassroomRoster(s.cfg.Assets.ClassroomRoster)
	if err != nil {
		return nil, fmt.Errorf("failed to load classroom roster: %w", err)
	}
	managers, err := loader.LoadManagerRoster(s.cfg.Assets.ManagerRoster)
	if err != nil {
		return nil, fmt.Errorf("failed to load manager roster: %w", err)
	}
	departments, err := loader.LoadDepartmentRoster(s.cfg.Assets.DepartmentRoster)
	if err != nil {
		return nil, fmt.Errorf("failed to load department roster: %w", err)
	}

	s.logger.Info("Rosters loaded",
		zap.Int("classrooms", len(classrooms)),
		zap.Int("managers", len(managers)),
		zap.Int("departments", len(departments)),
	)
	return reference.NewTables(classrooms, managers, departments), nil
}

// Options maps the report section of the configuration onto builder options.
func (s *ReportService) Options() (report.Options, error) {
	rc := s.cfg.Report
	mode, err := ranking.ParseMode(rc.RankMode)
	if err != nil {
		return report.Options{}, err
	}
	return report.Options{
		Meta: report.Meta{
			Title:          rc.Title,
			Audience:       rc.Audience,
			InspectingDept: rc.InspectingDept,
			Project:        rc.Project,
			Rules:          rc.Rules,
			Reporter:       rc.Reporter,
			Date:           rc.Date,
			Time:           rc.Time,
		},
		RankMode: mode,
		Dual: report.DualApartment{
			Key: models.DepartmentKey{
				Grade:      rc.DualApartment.Grade,
				Department: rc.DualApartment.Department,
			},
			DefaultApartment: rc.DualApartment.DefaultApartment,
		},
	}, nil
}

// Generate loads the day's records, lays out both tables and writes the workbook.
// Archive and notification failures after the workbook is saved are logged only.
func (s *ReportService) Generate(ctx context.Context, req Request) (*models.RunSummary, error) {
	opts, err := s.Options()
	if err != nil {
		return nil, err
	}

	violations, err := loader.LoadViolations(req.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to load violations: %w", err)
	}
	s.logger.Info("Violation records loaded",
		zap.String("input", req.Input),
		zap.Int("records", len(violations)),
	)

	tables, err := s.LoadTables()
	if err != nil {
		return nil, err
	}

	processed := enricher.NewEnricher(tables, s.logger).EnrichAll(violations)
	result := report.NewBuilder(tables, opts, s.logger).Build(processed)

	summary := s.summarize(req, opts, processed, result)

	if req.DryRun {
		if err := s.preview(req.Preview, result); err != nil {
			return nil, err
		}
		return summary, nil
	}

	summary.Output = req.Output
	if summary.Output == "" {
		summary.Output = OutputPath(req.Input)
	}
	if err := s.writeWorkbook(summary.Output, result); err != nil {
		return nil, err
	}
	s.logger.Info("Report saved",
		zap.String("output", summary.Output),
		zap.String("run_id", summary.RunID),
		zap.Int("rows", result.Rows),
	)

	s.publish(ctx, *summary)
	return summary, nil
}

func (s *ReportService) preview(w io.Writer, result *report.Result) error {
	if w == nil {
		return fmt.Errorf("dry run requires a preview writer")
	}
	rec := layout.NewRecorder()
	if err := layout.Replay(rec, result.Instructions); err != nil {
		return fmt.Errorf("failed to lay out report: %w", err)
	}
	return rec.Dump(w)
}

func (s *ReportService) writeWorkbook(path string, result *report.Result) error {
	sink, err := layout.NewExcelSink(layout.ExcelSinkOptions{
		SheetName: s.cfg.Report.SheetName,
		LogoPath:  s.cfg.Assets.Logo,
		LogoScale: s.cfg.Assets.LogoScale,
	})
	if err != nil {
		return err
	}
	defer sink.Close()

	if err := layout.Replay(sink, result.Instructions); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return sink.SaveAs(path)
}

func (s *ReportService) publish(ctx context.Context, summary models.RunSummary) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if s.archive != nil {
		if _, err := s.archive.SaveRun(ctx, summary); err != nil {
			s.logger.Warn("Failed to archive report run",
				zap.String("run_id", summary.RunID),
				zap.Error(err),
			)
		}
	}
	for _, n := range s.notifiers {
		if err := n.Notify(ctx, summary); err != nil {
			s.logger.Warn("Failed to send report notification",
				zap.String("notifier", n.Name()),
				zap.String("run_id", summary.RunID),
				zap.Error(err),
			)
		}
	}
}

func (s *ReportService) summarize(
	req Request,
	opts report.Options,
	processed []models.ProcessedRecord,
	result *report.Result,
) *models.RunSummary {
	unmatched := 0
	for _, r := range processed {
		if r.Teacher == models.Unknown || r.Manager == models.Unknown {
			unmatched++
		}
	}

	standings := make([]models.RunStanding, 0, len(result.Departments)+len(result.Managers))
	for _, group := range [][]report.Standing{result.Departments, result.Managers} {
		for _, st := range group {
			standings = append(standings, models.RunStanding{
				Kind:        st.Kind,
				Apartment:   st.Apartment,
				Label:       st.Label,
				Total:       st.Total,
				Rank:        st.Rank,
				Rows:        st.Rows,
				Placeholder: st.Placeholder,
			})
		}
	}

	return &models.RunSummary{
		RunID:       uuid.NewString(),
		Source:      req.Input,
		ReportDate:  opts.Meta.Date,
		RankMode:    string(opts.RankMode),
		Records:     len(processed),
		Unmatched:   unmatched,
		Rows:        result.Rows,
		GeneratedAt: s.now().UTC(),
		Standings:   standings,
	}
}
