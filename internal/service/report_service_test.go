package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/tangxiangong/weisheng/internal/config"
	"github.com/tangxiangong/weisheng/internal/models"
	"github.com/tangxiangong/weisheng/internal/notify"
)

type fakeArchive struct {
	saved []models.RunSummary
	err   error
}

func (a *fakeArchive) SaveRun(_ context.Context, s models.RunSummary) (string, error) {
	a.saved = append(a.saved, s)
	return s.RunID, a.err
}

type fakeNotifier struct {
	name string
	got  []models.RunSummary
	err  error
}

func (n *fakeNotifier) Name() string { return n.name }

func (n *fakeNotifier) Notify(_ context.Context, s models.RunSummary) error {
	n.got = append(n.got, s)
	return n.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func setup(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Assets.ClassroomRoster = filepath.Join(dir, "nianji.csv")
	cfg.Assets.ManagerRoster = filepath.Join(dir, "sushe.csv")
	cfg.Assets.DepartmentRoster = filepath.Join(dir, "jibu.csv")
	cfg.Assets.Logo = filepath.Join(dir, "logo.png")

	writeFile(t, cfg.Assets.ClassroomRoster, "年级,级部,班级,班主任\n1,A,1,张老师\n2,A,5,王老师\n3,,17,李老师\n")
	writeFile(t, cfg.Assets.ManagerRoster, "公寓,楼层,宿管\n1,1,赵\n1,2,钱\n2,3,孙\n")
	writeFile(t, cfg.Assets.DepartmentRoster, "年级,级部,主任,公寓\n1,A,刘,1\n2,A,周,1\n")

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	f, err := os.Create(cfg.Assets.Logo)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	input := filepath.Join(dir, "12月3日.csv")
	writeFile(t, input, "年级,班级,公寓,宿舍,原因\n1,1,1,201,被子未叠\n1,1,1,101,有杂物\n3,17,2,305,簸箕未清理\n")
	return cfg, input
}

func findStanding(t *testing.T, s *models.RunSummary, kind, label string) models.RunStanding {
	t.Helper()
	for _, st := range s.Standings {
		if st.Kind == kind && st.Label == label {
			return st
		}
	}
	t.Fatalf("standing %s %q not found", kind, label)
	return models.RunStanding{}
}

func TestReportService_Generate(t *testing.T) {
	cfg, input := setup(t)
	archive := &fakeArchive{}
	failing := &fakeNotifier{name: "failing", err: errors.New("unreachable")}
	ok := &fakeNotifier{name: "ok"}

	svc := NewReportService(cfg, archive, []notify.Notifier{failing, ok}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 12, 3, 16, 0, 0, 0, time.UTC) }

	summary, err := svc.Generate(context.Background(), Request{Input: input})
	require.NoError(t, err)

	assert.Equal(t, OutputPath(input), summary.Output)
	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, 0, summary.Unmatched)
	assert.Equal(t, "12月3日", summary.ReportDate)
	assert.Equal(t, "dense", summary.RankMode)
	assert.NotEmpty(t, summary.RunID)

	assert.Equal(t, models.RunStanding{Kind: "classroom", Apartment: 2, Label: "17班", Total: -1, Rank: 1, Rows: 1},
		findStanding(t, summary, "classroom", "17班"))
	a1 := findStanding(t, summary, "department", "高一A部\n(刘)")
	assert.Equal(t, -2, a1.Total)
	assert.Equal(t, 2, a1.Rank)
	a2 := findStanding(t, summary, "department", "高二A部\n(周)")
	assert.True(t, a2.Placeholder)
	assert.Equal(t, 1, a2.Rank)
	assert.Equal(t, 1, findStanding(t, summary, "manager", "赵").Rank)

	require.Len(t, archive.saved, 1)
	assert.Equal(t, summary.RunID, archive.saved[0].RunID)
	require.Len(t, failing.got, 1)
	require.Len(t, ok.got, 1)

	f, err := excelize.OpenFile(summary.Output)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "高中部宿舍卫生验评通报总结", v)

	// 二号公寓在前：第 8 行是 17 班
	v, err = f.GetCellValue("Sheet1", "A8")
	require.NoError(t, err)
	assert.Equal(t, "二号公寓", v)
	v, err = f.GetCellValue("Sheet1", "B8")
	require.NoError(t, err)
	assert.Equal(t, "17班", v)
	v, err = f.GetCellValue("Sheet1", "D8")
	require.NoError(t, err)
	assert.Equal(t, "孙", v)

	v, err = f.GetCellValue("Sheet1", "E9")
	require.NoError(t, err)
	assert.Equal(t, "101宿舍", v)
	v, err = f.GetCellValue("Sheet1", "H9")
	require.NoError(t, err)
	assert.Equal(t, "-2", v)
}

func TestReportService_ArchiveFailureIsNotFatal(t *testing.T) {
	cfg, input := setup(t)
	archive := &fakeArchive{err: errors.New("connection refused")}

	svc := NewReportService(cfg, archive, nil, zap.NewNop())
	output := filepath.Join(filepath.Dir(input), "out.xlsx")
	summary, err := svc.Generate(context.Background(), Request{Input: input, Output: output})
	require.NoError(t, err)
	assert.Equal(t, output, summary.Output)
	assert.FileExists(t, output)
}

func TestReportService_DryRun(t *testing.T) {
	cfg, input := setup(t)
	n := &fakeNotifier{name: "n"}
	svc := NewReportService(cfg, nil, []notify.Notifier{n}, zap.NewNop())

	var buf bytes.Buffer
	summary, err := svc.Generate(context.Background(), Request{Input: input, DryRun: true, Preview: &buf})
	require.NoError(t, err)

	assert.Empty(t, summary.Output)
	assert.Contains(t, buf.String(), "17班")
	assert.Contains(t, buf.String(), "高一A部 (刘)")
	assert.NoFileExists(t, OutputPath(input))
	assert.Empty(t, n.got)
}

func TestReportService_Errors(t *testing.T) {
	cfg, input := setup(t)

	svc := NewReportService(cfg, nil, nil, zap.NewNop())
	_, err := svc.Generate(context.Background(), Request{Input: filepath.Join(t.TempDir(), "missing.csv")})
	require.ErrorIs(t, err, os.ErrNotExist)

	bad := *cfg
	bad.Assets.Logo = filepath.Join(t.TempDir(), "missing.png")
	svc = NewReportService(&bad, nil, nil, zap.NewNop())
	_, err = svc.Generate(context.Background(), Request{Input: input})
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, OutputPath(input))

	bad = *cfg
	bad.Report.RankMode = "olympic"
	svc = NewReportService(&bad, nil, nil, zap.NewNop())
	_, err = svc.Generate(context.Background(), Request{Input: input})
	require.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "data/12月3日.xlsx", OutputPath("data/12月3日.csv"))
	assert.Equal(t, "day.xlsx", OutputPath("day"))
}
