package layout

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeLogo(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	path := filepath.Join(dir, "logo.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestExcelSink_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewExcelSink(ExcelSinkOptions{SheetName: "通报", LogoPath: writeLogo(t, dir)})
	require.NoError(t, err)
	defer sink.Close()

	s := NewSheet()
	s.Merge(0, 0, 0, 8, Text("标题"), StyleTitle)
	s.EmbedImage(0, 3)
	s.WriteText(1, 4, "101宿舍", StyleBody)
	s.WriteNumber(1, 6, -1, StyleBody)
	s.Merge(1, 7, 2, 7, Number(-2), StyleBody)
	s.SetRowHeight(1, 80)
	s.SetColumnWidth(5, 18)
	require.NoError(t, Replay(sink, s.Instructions()))

	out := filepath.Join(dir, "report.xlsx")
	require.NoError(t, sink.SaveAs(out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("通报", "A1")
	require.NoError(t, err)
	assert.Equal(t, "标题", v)

	v, err = f.GetCellValue("通报", "E2")
	require.NoError(t, err)
	assert.Equal(t, "101宿舍", v)

	v, err = f.GetCellValue("通报", "G2")
	require.NoError(t, err)
	assert.Equal(t, "-1", v)

	merges, err := f.GetMergeCells("通报")
	require.NoError(t, err)
	got := map[string]string{}
	for _, m := range merges {
		got[m.GetStartAxis()+":"+m.GetEndAxis()] = m.GetCellValue()
	}
	assert.Equal(t, map[string]string{"A1:I1": "标题", "H2:H3": "-2"}, got)

	h, err := f.GetRowHeight("通报", 2)
	require.NoError(t, err)
	assert.Equal(t, float64(80), h)

	w, err := f.GetColWidth("通报", "F")
	require.NoError(t, err)
	assert.Equal(t, float64(18), w)

	pics, err := f.GetPictures("通报", "D1")
	require.NoError(t, err)
	assert.Len(t, pics, 1)
}

func TestExcelSink_WriteToAndLeftLabel(t *testing.T) {
	sink, err := NewExcelSink(ExcelSinkOptions{})
	require.NoError(t, err)
	defer sink.Close()

	s := NewSheet()
	s.Merge(1, 0, 1, 4, Text("汇报人: 张三"), StyleLabelLeft)
	s.WriteText(1, 8, "日期: 12月3日", StyleLabel)
	require.NoError(t, Replay(sink, s.Instructions()))

	var buf bytes.Buffer
	n, err := sink.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Sheet1", "A2")
	require.NoError(t, err)
	assert.Equal(t, "汇报人: 张三", v)

	alignment := func(cell string) (string, bool) {
		id, err := f.GetCellStyle("Sheet1", cell)
		require.NoError(t, err)
		style, err := f.GetStyle(id)
		require.NoError(t, err)
		require.NotNil(t, style.Alignment)
		require.NotNil(t, style.Font)
		return style.Alignment.Horizontal, style.Font.Bold
	}
	h, bold := alignment("A2")
	assert.Equal(t, "left", h)
	assert.True(t, bold)
	h, bold = alignment("I2")
	assert.Equal(t, "center", h)
	assert.True(t, bold)
}

func TestExcelSink_MissingLogoIsFatal(t *testing.T) {
	sink, err := NewExcelSink(ExcelSinkOptions{LogoPath: filepath.Join(t.TempDir(), "missing.png")})
	require.NoError(t, err)
	defer sink.Close()

	s := NewSheet()
	s.EmbedImage(0, 3)
	err = Replay(sink, s.Instructions())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
