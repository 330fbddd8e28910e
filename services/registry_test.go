package services

import (
	"testing"

	"github.com/Akamalshaikh/telegram-bot/models"

	"github.com/stretchr/testify/require"
)

func TestStoreOverwritesPriorCode(t *testing.T) {
	registry := NewRegistry(newTestDB(t))

	require.NoError(t, registry.Store(1, "111111"))
	require.NoError(t, registry.Store(2, "222222"))
	require.NoError(t, registry.Store(1, "333333"))

	entries, err := registry.LookupAll()
	require.NoError(t, err)
	require.Equal(t, []models.ClaimEntry{
		{UserID: 1, Code: "333333"},
		{UserID: 2, Code: "222222"},
	}, entries)
}

func TestLookupAllEmpty(t *testing.T) {
	registry := NewRegistry(newTestDB(t))

	entries, err := registry.LookupAll()
	require.NoError(t, err)
	require.Empty(t, entries)
}
