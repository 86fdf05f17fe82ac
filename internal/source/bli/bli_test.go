package bli

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/twgovdata/laborfaq/internal/faq"
)

const treePage = `<html><body><div class="content">
<ul class="multilevel-list">
  <li><a href="javascript:void(0)">勞工保險</a>
    <ul>
      <li><a href="javascript:void(0)">加保問題</a>
        <ul>
          <li><a href="/0017380.html">何時應申報加保？</a></li>
          <li><a href="/0017381.html">投保薪資如何申報？</a></li>
        </ul>
      </li>
      <li><a href="/0017400.html">保險效力何時開始？</a></li>
    </ul>
  </li>
  <li><a href="javascript:void(0)">空分類</a>
    <ul></ul>
  </li>
  <li><a href="javascript:void(0)">無子層分類</a></li>
</ul>
</div></body></html>`

func newTestSite() *Site {
	return New("https://www.bli.gov.tw", "https://www.bli.gov.tw/faq.html", zap.NewNop())
}

func TestParseList(t *testing.T) {
	items, err := newTestSite().ParseList([]byte(treePage))
	require.NoError(t, err)
	require.Len(t, items, 3)

	leaf := items[0]
	require.Equal(t, "何時應申報加保？", leaf.Question)
	require.Equal(t, "https://www.bli.gov.tw/0017380.html", leaf.DetailURL)
	require.Equal(t, "勞工保險", leaf.Category)
	require.Equal(t, "加保問題", leaf.Subcategory)
	require.Equal(t, "勞工保險 > 加保問題", leaf.CategoryPath)

	shallow := items[2]
	require.Equal(t, "保險效力何時開始？", shallow.Question)
	require.Equal(t, "勞工保險", shallow.Category)
	require.Equal(t, "", shallow.Subcategory)
	require.Equal(t, "勞工保險", shallow.CategoryPath)
}

func TestParseListEmptyBranch(t *testing.T) {
	page := `<div class="content"><ul class="multilevel-list">
<li><a href="javascript:void(0)">只有分類</a><ul>
  <li><a href="javascript:void(0)">空子分類</a><ul></ul></li>
</ul></li>
</ul></div>`
	items, err := newTestSite().ParseList([]byte(page))
	require.NoError(t, err)
	require.Empty(t, items, "branch without leaves yields zero records")
}

func TestParseListFallbackSelector(t *testing.T) {
	page := `<div class="content"><ul>
<li><a href="/0017500.html">單層項目</a></li>
</ul></div>`
	items, err := newTestSite().ParseList([]byte(page))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "單層項目", items[0].Question)
	require.Equal(t, "", items[0].Category)
}

func TestParseListNoRoot(t *testing.T) {
	items, err := newTestSite().ParseList([]byte("<html><body><p>無列表</p></body></html>"))
	require.NoError(t, err)
	require.Empty(t, items)
}

const detailPage = `<html><body>
<div class="main">
  <h1>何時應申報加保？</h1>
  <p>僱用勞工之當日起，依勞工保險條例規定申報加保。</p>
  <p><a href="/law/li">勞工保險條例施行細則</a></p>
</div>
<footer>更新日期：2024/03/05</footer>
</body></html>`

func TestParseDetail(t *testing.T) {
	partial := &faq.Record{
		Source:       faq.SourceBLI,
		Question:     "何時應申報加保？",
		Category:     "勞工保險",
		Subcategory:  "加保問題",
		CategoryPath: "勞工保險 > 加保問題",
		DetailURL:    "https://www.bli.gov.tw/0017380.html",
	}
	rec := newTestSite().ParseDetail([]byte(detailPage), partial)

	require.Equal(t, "何時應申報加保？", rec.Question)
	require.Contains(t, rec.Answer.Text, "申報加保")
	require.NotContains(t, rec.Answer.Text, "何時應申報加保？", "question stripped once")
	require.Equal(t, "2024-03-05", rec.Metadata.UpdatedDate)
	require.Equal(t, "勞工保險", rec.Category, "list-derived classification kept")

	var names []string
	for _, law := range rec.RelatedLaws {
		names = append(names, law.Name)
	}
	require.Contains(t, names, "勞工保險條例施行細則")
}

func TestParseDetailWithoutContentArea(t *testing.T) {
	page := `<html><body><p>發布日期：2024-01-20</p></body></html>`
	rec := newTestSite().ParseDetail([]byte(page), &faq.Record{Question: "原問題"})

	require.Equal(t, "原問題", rec.Question)
	require.Equal(t, "", rec.Answer.Text)
	require.Equal(t, "2024-01-20", rec.Metadata.UpdatedDate, "date recovered from page text")
}
