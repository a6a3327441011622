package grabber

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHeaders(t *testing.T) {
	p := path.Join(t.TempDir(), "headers.json")
	err := os.WriteFile(p, []byte(`{"User-Agent": "Mozilla/5.0", "Referer": "https://example.com/"}`), os.ModePerm)
	require.NoError(t, err)

	h := LoadHeaders(p)
	assert.Equal(t, Headers{"User-Agent": "Mozilla/5.0", "Referer": "https://example.com/"}, h)
}

func TestLoadHeadersMissingFile(t *testing.T) {
	h := LoadHeaders(path.Join(t.TempDir(), "nope.json"))
	assert.NotNil(t, h)
	assert.Empty(t, h)
}

func TestLoadHeadersMalformed(t *testing.T) {
	p := path.Join(t.TempDir(), "headers.json")
	require.NoError(t, os.WriteFile(p, []byte("Referer: no"), os.ModePerm))

	h := LoadHeaders(p)
	assert.Empty(t, h)
}

func TestLoadHeadersNoPath(t *testing.T) {
	assert.Empty(t, LoadHeaders(""))
}
