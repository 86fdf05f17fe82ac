package faq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	require.Equal(t, "加班費 如何 計算", CleanText("  加班費 \n 如何\t計算  "))
	require.Equal(t, "", CleanText(" \n\t "))
}

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-15":     "2024-01-15",
		"2024/01/15":     "2024-01-15",
		"2024.01.15":     "2024-01-15",
		"2024年01月15日":    "2024-01-15",
		" 2024-01-15 ":   "2024-01-15",
		"":               "",
		"民國113年1月15日":   "",
		"not a date":     "",
		"2024-13-40":     "",
		"15/01/2024 bad": "",
	}
	for input, want := range cases {
		require.Equal(t, want, ParseDate(input), "input %q", input)
	}
}

func TestNormalizeURL(t *testing.T) {
	base := "https://www.mol.gov.tw/1607/28690/faq/"

	require.Equal(t, "https://www.mol.gov.tw/1607/28690/faq/28792/post",
		NormalizeURL(base, "28792/post"))
	require.Equal(t, "https://www.mol.gov.tw/28792/post",
		NormalizeURL(base, "/28792/post"))
	require.Equal(t, "https://other.gov.tw/page",
		NormalizeURL(base, "https://other.gov.tw/page"))
	require.Equal(t, "", NormalizeURL(base, ""))
	require.Equal(t, "", NormalizeURL(base, "http://bad\x7f.example"))
}
