package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDownloadList(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(listPath, []byte(`
- op: ep01.mp4
  link: https://pahe.example/anime/ep1
- op: ep02.mp4
  link: https://pahe.example/anime/ep2
`), 0644))

	entries, err := ReadDownloadList(listPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ep01.mp4", entries[0].OutputPath)
	assert.Equal(t, "https://pahe.example/anime/ep2", entries[1].URL)
}

func TestReadDownloadListMissingFields(t *testing.T) {
	dir := t.TempDir()

	noLink := filepath.Join(dir, "nolink.yaml")
	require.NoError(t, os.WriteFile(noLink, []byte("- op: ep01.mp4\n"), 0644))
	_, err := ReadDownloadList(noLink)
	assert.ErrorContains(t, err, "missing link for entry 1")

	noPath := filepath.Join(dir, "nopath.yaml")
	require.NoError(t, os.WriteFile(noPath, []byte("- link: https://pahe.example/x\n"), 0644))
	_, err = ReadDownloadList(noPath)
	assert.ErrorContains(t, err, "missing output path for entry 1")
}

func TestParseHeaderArgs(t *testing.T) {
	parsed := ParseHeaderArgs([]string{
		"Referer: https://kwik.example/f/ep1",
		"X-Custom:value:with:colons",
		"malformed",
	})
	assert.Equal(t, map[string]string{
		"Referer":  "https://kwik.example/f/ep1",
		"X-Custom": "value:with:colons",
	}, parsed)
}

func TestRenewOutputPath(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "episode.mp4")
	require.NoError(t, os.WriteFile(original, []byte("x"), 0644))

	renewed := RenewOutputPath(original)
	assert.Equal(t, filepath.Join(dir, "episode-(1).mp4"), renewed)

	require.NoError(t, os.WriteFile(renewed, []byte("x"), 0644))
	assert.Equal(t, filepath.Join(dir, "episode-(2).mp4"), RenewOutputPath(original))
}
