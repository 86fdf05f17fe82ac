package plaintext

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
)

func sampleRecord() *faq.Record {
	return &faq.Record{
		ID:       "mol_faq_20240115_0001",
		Source:   faq.SourceMOL,
		Question: "加班費如何計算？",
		Answer: faq.Answer{
			Text: "依規定計算。\n\n\n友善列印\n:::\n--\n延長工時工資加給。",
		},
		Category:    "工時",
		Subcategory: "加班",
		RelatedLaws: []faq.RelatedLaw{
			{Name: "勞動基準法"},
			{Name: "依勞動基準法"},
			{Name: "勞動基準法"},
		},
	}
}

func TestFormat(t *testing.T) {
	f := NewFormatter(zap.NewNop())

	t.Run("full record", func(t *testing.T) {
		got := f.Format(sampleRecord())
		require.Equal(t, strings.Join([]string{
			"來源: 勞動部",
			"分類: 工時 > 加班",
			"",
			"問: 加班費如何計算？",
			"",
			"答: 依規定計算。\n\n延長工時工資加給。",
			"",
			"相關法規: 勞動基準法",
		}, "\n"), got)
	})

	t.Run("no category and no laws yields no dangling separators", func(t *testing.T) {
		rec := &faq.Record{
			Source:   faq.SourceBLI,
			Question: "投保薪資如何申報？",
			Answer:   faq.Answer{Text: "向保險人申報即可。"},
		}
		got := f.Format(rec)
		require.Equal(t, strings.Join([]string{
			"來源: 勞動部勞工保險局",
			"",
			"問: 投保薪資如何申報？",
			"",
			"答: 向保險人申報即可。",
		}, "\n"), got)
		require.False(t, strings.Contains(got, "分類"))
		require.False(t, strings.Contains(got, "相關法規"))
	})

	t.Run("category path line only when nested", func(t *testing.T) {
		rec := sampleRecord()
		rec.CategoryPath = "工時 > 加班 > 假日出勤"
		require.Contains(t, f.Format(rec), "路徑: 工時 > 加班 > 假日出勤")

		rec.CategoryPath = "工時"
		require.NotContains(t, f.Format(rec), "路徑")
	})

	t.Run("idempotent on cleaned text", func(t *testing.T) {
		rec := sampleRecord()
		once := f.Format(rec)

		rec.Answer.Text = cleanContent(rec.Answer.Text)
		twice := f.Format(rec)
		require.Equal(t, once, twice)
	})
}

func TestCleanContent(t *testing.T) {
	in := "<p>第一段</p>\n分享至FACEBOOK\n第二段內容\n==\n網站導覽\n\n\n\n第三段內容"
	require.Equal(t, "第一段\n第二段內容\n\n第三段內容", cleanContent(in))
}

func TestIsValidLawName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"勞動基準法", true},
		{"依勞動基準法", false},
		{"勞工保險條例施行細則", true},
		{"性別平等工作法", true},
		{"雇主聘僱外國人許可及管理辦法", false},
		{"民法", false},
		{"民事訴訟法", true},
		{strings.Repeat("勞", 29) + "法", false},
		{"規定", false},
		{"職業安全衛生設施規則", true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsValidLawName(tc.name), "name %q", tc.name)
	}
}

func TestFormatBatch(t *testing.T) {
	f := NewFormatter(zap.NewNop())
	dir := t.TempDir()

	records := []*faq.Record{
		sampleRecord(),
		{Source: faq.SourceOSHA, Question: "無編號"},
	}
	stats, err := f.FormatBatch(records, dir)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalItems)
	require.Equal(t, 1, stats.CreatedFiles)

	data, err := os.ReadFile(filepath.Join(dir, "mol_faq_20240115_0001.txt"))
	require.NoError(t, err)
	require.Contains(t, string(data), "問: 加班費如何計算？")
}
