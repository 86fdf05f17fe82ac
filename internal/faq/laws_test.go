package faq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLooksLikeLawAnchor(t *testing.T) {
	require.True(t, LooksLikeLawAnchor("勞動基準法"))
	require.True(t, LooksLikeLawAnchor("勞工請假規則"))
	require.False(t, LooksLikeLawAnchor("回首頁"))
}

func TestExtractLawNames(t *testing.T) {
	t.Run("finds law phrases", func(t *testing.T) {
		text := "依勞動基準法及勞工退休金條例規定辦理。"
		names := ExtractLawNames(text)
		require.Contains(t, names, "依勞動基準法")
		require.Contains(t, names, "依勞動基準法及勞工退休金條例")
	})

	t.Run("skips 法律 and 法規 continuations", func(t *testing.T) {
		names := ExtractLawNames("相關法律及其他法規均適用。")
		for _, name := range names {
			require.NotContains(t, name, "相關法律")
		}
	})

	t.Run("dedupes repeated names", func(t *testing.T) {
		names := ExtractLawNames("勞動基準法。勞動基準法。")
		require.Equal(t, []string{"勞動基準法"}, names)
	})

	t.Run("no matches", func(t *testing.T) {
		require.Empty(t, ExtractLawNames("這裡沒有任何相關內容。"))
	})
}

func TestMergeLaws(t *testing.T) {
	linked := []RelatedLaw{
		{Name: "勞動基準法", URL: "https://law.moj.gov.tw/a"},
		{Name: "勞動基準法", URL: "https://law.moj.gov.tw/dup"},
		{Name: " "},
	}
	merged := MergeLaws(linked, []string{"勞工保險條例", "勞動基準法"})

	require.Equal(t, []RelatedLaw{
		{Name: "勞動基準法", URL: "https://law.moj.gov.tw/a"},
		{Name: "勞工保險條例"},
	}, merged)
}
