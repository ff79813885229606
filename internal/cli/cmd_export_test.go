package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enngage/kontent-ai-migration-toolkit/internal/export"
)

func TestCollectItemRequestsFromFlags(t *testing.T) {
	requests, err := collectItemRequests([]string{"article:en", "page:de"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, []export.ItemRequest{
		{Codename: "article", Language: "en"},
		{Codename: "page", Language: "de"},
	}, requests)
}

func TestCollectItemRequestsDefaultLanguage(t *testing.T) {
	requests, err := collectItemRequests([]string{"article"}, "", "en")
	require.NoError(t, err)
	assert.Equal(t, []export.ItemRequest{{Codename: "article", Language: "en"}}, requests)
}

func TestCollectItemRequestsMissingLanguageFails(t *testing.T) {
	_, err := collectItemRequests([]string{"article"}, "", "")
	require.Error(t, err)
}

func TestCollectItemRequestsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.txt")
	require.NoError(t, os.WriteFile(path, []byte(`
# landing pages
article:en

page
`), 0644))

	requests, err := collectItemRequests(nil, path, "de")
	require.NoError(t, err)
	assert.Equal(t, []export.ItemRequest{
		{Codename: "article", Language: "en"},
		{Codename: "page", Language: "de"},
	}, requests)
}

func TestCollectItemRequestsMissingFileFails(t *testing.T) {
	_, err := collectItemRequests(nil, "/nonexistent/items.txt", "en")
	require.Error(t, err)
}
