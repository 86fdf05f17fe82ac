package htmltext

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func selection(t *testing.T, markup, selector string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc.Find(selector)
}

func TestFlatten(t *testing.T) {
	sel := selection(t, `<div><h2> 標題 </h2><p>第一段</p><p>第二段<b>粗體</b></p></div>`, "div")
	require.Equal(t, "標題\n第一段\n第二段\n粗體", Flatten(sel))
}

func TestSnippetTruncatesOnRuneBoundary(t *testing.T) {
	sel := selection(t, "<p>"+strings.Repeat("勞", 100)+"</p>", "p")
	got := Snippet(sel, 50)
	require.LessOrEqual(t, len(got), 50)
	require.True(t, utf8.ValidString(got))

	full := Snippet(sel, 10000)
	require.True(t, strings.HasPrefix(full, "<p>"))
}

func TestLinkedLaws(t *testing.T) {
	sel := selection(t, `<div>
<a href="/law/1">勞動基準法</a>
<a href="/other">回首頁</a>
<a href="https://law.moj.gov.tw/2">勞工請假規則</a>
</div>`, "div")

	laws := LinkedLaws(sel, "https://www.mol.gov.tw")
	require.Len(t, laws, 2)
	require.Equal(t, "勞動基準法", laws[0].Name)
	require.Equal(t, "https://www.mol.gov.tw/law/1", laws[0].URL)
	require.Equal(t, "https://law.moj.gov.tw/2", laws[1].URL)
}

func TestStripQuestion(t *testing.T) {
	require.Equal(t, "答案內容", StripQuestion("問題？\n答案內容", "問題？"))
	require.Equal(t, "答案內容", StripQuestion("答案內容", ""))
	require.Equal(t, "前段 問題？ 後段", StripQuestion(" 前段 問題？ 後段 ", "沒出現"))
}
