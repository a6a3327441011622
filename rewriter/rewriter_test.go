package rewriter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/vodkit/hlsgrab/hls"

	"github.com/grafov/m3u8"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestURL = "https://host/path/index.m3u8"

const mediaFixture = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:9.009,
seg1.ts
#EXTINF:9.009,
sub/seg2.ts
#EXT-X-ENDLIST
`

type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	payload []byte
	err     error
}

func (f *fakeFetcher) FetchManifest(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func decodeMedia(t *testing.T, text string) []*m3u8.MediaSegment {
	t.Helper()
	pl, plType, err := m3u8.DecodeFrom(strings.NewReader(text), true)
	require.NoError(t, err)
	require.Equal(t, m3u8.MEDIA, plType)

	segs := []*m3u8.MediaSegment{}
	for _, s := range pl.(*m3u8.MediaPlaylist).Segments {
		if s != nil {
			segs = append(segs, s)
		}
	}
	return segs
}

func TestRewrite(t *testing.T) {
	r := New(Config{})
	out, err := r.Rewrite([]byte(mediaFixture), manifestURL)
	require.NoError(t, err)

	segs := decodeMedia(t, out)
	require.Len(t, segs, 2)
	assert.Equal(t, "/ts_segment?url=https%3A%2F%2Fhost%2Fpath%2Fseg1.ts", segs[0].URI)
	assert.Equal(t, "/ts_segment?url=https%3A%2F%2Fhost%2Fpath%2Fsub%2Fseg2.ts", segs[1].URI)
}

func TestRewriteCustomRoute(t *testing.T) {
	r := New(Config{Route: "proxy/segment"})
	out, err := r.Rewrite([]byte(mediaFixture), manifestURL)
	require.NoError(t, err)

	segs := decodeMedia(t, out)
	require.Len(t, segs, 2)
	assert.Equal(t, "/proxy/segment?url=https%3A%2F%2Fhost%2Fpath%2Fseg1.ts", segs[0].URI)
}

func TestRewriteAbsoluteSegmentURL(t *testing.T) {
	media := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:9.009,
https://cdn.example.com/a/seg.ts
#EXT-X-ENDLIST
`
	r := New(Config{})
	out, err := r.Rewrite([]byte(media), manifestURL)
	require.NoError(t, err)

	segs := decodeMedia(t, out)
	require.Len(t, segs, 1)
	assert.Equal(t, "/ts_segment?url=https%3A%2F%2Fcdn.example.com%2Fa%2Fseg.ts", segs[0].URI)
}

func TestRewriteLivePlaylist(t *testing.T) {
	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n#EXT-X-MEDIA-SEQUENCE:100\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "#EXTINF:9.009,\nseg%v.ts\n", i)
	}

	r := New(Config{})
	out, err := r.Rewrite([]byte(b.String()), manifestURL)
	require.NoError(t, err)

	segs := decodeMedia(t, out)
	require.Len(t, segs, 12)
	assert.Equal(t, "/ts_segment?url=https%3A%2F%2Fhost%2Fpath%2Fseg0.ts", segs[0].URI)
	assert.Equal(t, "/ts_segment?url=https%3A%2F%2Fhost%2Fpath%2Fseg11.ts", segs[11].URI)
	assert.NotContains(t, out, "#EXT-X-ENDLIST")
}

func TestRewriteRejectsNonMedia(t *testing.T) {
	master := `#EXTM3U
#EXT-X-STREAM-INF:PROGRAM-ID=1,BANDWIDTH=800000,RESOLUTION=640x360
low/index.m3u8
`
	r := New(Config{})

	_, err := r.Rewrite([]byte(master), manifestURL)
	assert.ErrorIs(t, err, hls.ErrInvalidManifest)

	_, err = r.Rewrite([]byte("not a playlist"), manifestURL)
	assert.ErrorIs(t, err, hls.ErrInvalidManifest)
}

func TestRewriteRemote(t *testing.T) {
	ff := &fakeFetcher{payload: []byte(mediaFixture)}
	r := New(Config{Fetcher: ff})

	out1, err := r.RewriteRemote(context.Background(), manifestURL)
	require.NoError(t, err)
	out2, err := r.RewriteRemote(context.Background(), manifestURL)
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
	assert.Equal(t, 1, ff.calls)
	assert.Contains(t, out1, "/ts_segment?url=https%3A%2F%2Fhost%2Fpath%2Fseg1.ts")
}

func TestRewriteRemoteFetchError(t *testing.T) {
	ff := &fakeFetcher{err: errors.New("origin down")}
	r := New(Config{Fetcher: ff})

	_, err := r.RewriteRemote(context.Background(), manifestURL)
	assert.EqualError(t, err, "origin down")
	assert.Equal(t, 1, ff.calls)
}

func TestRewriteRemoteNoFetcher(t *testing.T) {
	r := New(Config{})
	_, err := r.RewriteRemote(context.Background(), manifestURL)
	assert.Error(t, err)
}
