package hls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveURL(t *testing.T) {
	cases := []struct {
		base, ref, want string
	}{
		{"https://host/path/index.m3u8", "seg1.ts", "https://host/path/seg1.ts"},
		{"https://host/path/index.m3u8", "https://cdn.example.com/seg1.ts", "https://cdn.example.com/seg1.ts"},
		{"https://host/a/b/index.m3u8", "../c/seg.ts", "https://host/a/c/seg.ts"},
		{"https://host/a/index.m3u8", "/seg.ts", "https://host/seg.ts"},
		{"https://host/p/index.m3u8?token=abc", "seg.ts?sig=1", "https://host/p/seg.ts?sig=1"},
		{"https://host/index.m3u8", "variants/720/index.m3u8", "https://host/variants/720/index.m3u8"},
	}
	for _, c := range cases {
		got, err := ResolveURL(c.base, c.ref)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "resolve(%q, %q)", c.base, c.ref)
	}
}

func TestResolveURLErrors(t *testing.T) {
	_, err := ResolveURL(":", "seg.ts")
	assert.Error(t, err)

	_, err = ResolveURL("https://host/index.m3u8", ":")
	assert.Error(t, err)
}
