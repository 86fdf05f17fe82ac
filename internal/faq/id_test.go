package faq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := GenerateID(SourceMOL, "2024-01-15", 3)
		b := GenerateID(SourceMOL, "2024-01-15", 3)
		require.Equal(t, "mol_faq_20240115_0003", a)
		require.Equal(t, a, b)
	})

	t.Run("varying any input changes the output", func(t *testing.T) {
		base := GenerateID(SourceMOL, "2024-01-15", 3)
		require.NotEqual(t, base, GenerateID(SourceBLI, "2024-01-15", 3))
		require.NotEqual(t, base, GenerateID(SourceMOL, "2024-01-16", 3))
		require.NotEqual(t, base, GenerateID(SourceMOL, "2024-01-15", 4))
	})

	t.Run("unknown date bucket", func(t *testing.T) {
		require.Equal(t, "osha_faq_unknown_0001", GenerateID(SourceOSHA, "unknown", 1))
	})
}

func TestAssignIDs(t *testing.T) {
	records := []*Record{
		{Metadata: Metadata{UpdatedDate: "2024-01-15"}},
		{Metadata: Metadata{PublishedDate: "2024-01-15"}},
		{Metadata: Metadata{UpdatedDate: "2024-02-01", PublishedDate: "2024-01-15"}},
		{},
		{Metadata: Metadata{UpdatedDate: "2024-01-15"}},
	}
	AssignIDs(SourceMOL, records)

	require.Equal(t, "mol_faq_20240115_0001", records[0].ID)
	require.Equal(t, "mol_faq_20240115_0002", records[1].ID)
	require.Equal(t, "mol_faq_20240201_0001", records[2].ID)
	require.Equal(t, "mol_faq_unknown_0001", records[3].ID)
	require.Equal(t, "mol_faq_20240115_0003", records[4].ID)

	seen := make(map[string]bool)
	for _, rec := range records {
		require.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}
}
