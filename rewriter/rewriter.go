// Package rewriter turns media playlists into proxy-ready ones: every
// segment URI is replaced with an indirection through a local route
// carrying the segment's absolute URL, so a frontend can serve the
// playlist while segments are fetched through its own backend.
package rewriter

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/vodkit/hlsgrab/hls"
	"github.com/vodkit/hlsgrab/pkg/logging"

	"github.com/grafov/m3u8"
	"github.com/karlseguin/ccache/v2"
	"github.com/pkg/errors"
)

const (
	DefaultRoute = "ts_segment"

	defaultCacheSize = 1000
	defaultCacheTTL  = time.Minute
	itemsToPrune     = 20
)

// ManifestFetcher retrieves raw playlist text over the network.
// grabber.Grabber satisfies this.
type ManifestFetcher interface {
	FetchManifest(ctx context.Context, url string) ([]byte, error)
}

type Config struct {
	// Route is the proxy endpoint segment requests should hit,
	// without the leading slash. Defaults to DefaultRoute.
	Route string
	// CacheSize caps how many rewritten playlists are kept around
	// for repeat requests.
	CacheSize int64
	CacheTTL  time.Duration
	Fetcher   ManifestFetcher
	Log       logging.KVLogger
}

type Rewriter struct {
	route   string
	ttl     time.Duration
	fetcher ManifestFetcher
	cache   *ccache.Cache
	log     logging.KVLogger
}

func New(cfg Config) *Rewriter {
	r := &Rewriter{
		route:   cfg.Route,
		ttl:     cfg.CacheTTL,
		fetcher: cfg.Fetcher,
		log:     cfg.Log,
	}
	if r.route == "" {
		r.route = DefaultRoute
	}
	if r.ttl == 0 {
		r.ttl = defaultCacheTTL
	}
	if r.log == nil {
		r.log = logging.NoopKVLogger{}
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	r.cache = ccache.New(ccache.
		Configure().
		MaxSize(size).
		ItemsToPrune(itemsToPrune),
	)
	return r
}

// Rewrite replaces every segment URI in a media playlist with
// `/<route>?url=<escaped absolute URL>`, resolving relative URIs
// against manifestURL first. The rest of the playlist comes through
// intact.
func (r *Rewriter) Rewrite(manifest []byte, manifestURL string) (string, error) {
	pl, plType, err := m3u8.DecodeFrom(bytes.NewReader(manifest), true)
	if err != nil {
		return "", errors.Wrap(hls.ErrInvalidManifest, err.Error())
	}
	if plType != m3u8.MEDIA {
		return "", errors.Wrap(hls.ErrInvalidManifest, "only media playlists can be rewritten")
	}

	mpl := pl.(*m3u8.MediaPlaylist)
	// Playlists without EXT-X-ENDLIST decode with a sliding window
	// set, and Encode emits only the window. Zero means everything.
	mpl.SetWinSize(0)

	var rewritten int
	for _, seg := range mpl.Segments {
		if seg == nil {
			continue
		}
		segURL, err := hls.ResolveURL(manifestURL, seg.URI)
		if err != nil {
			return "", err
		}
		seg.URI = fmt.Sprintf("/%v?url=%v", r.route, url.QueryEscape(segURL))
		rewritten++
	}

	SegmentsRewritten.Add(float64(rewritten))
	r.log.Debug("manifest rewritten", "url", manifestURL, "segments", rewritten)
	return mpl.Encode().String(), nil
}

// RewriteRemote fetches the playlist at manifestURL and rewrites it.
// Results are cached so bursts of identical requests do not hammer the
// origin server.
func (r *Rewriter) RewriteRemote(ctx context.Context, manifestURL string) (string, error) {
	if r.fetcher == nil {
		return "", errors.New("no manifest fetcher configured")
	}

	CacheQueryCount.Inc()
	key := cacheKey(manifestURL)
	item, err := r.cache.Fetch(key, r.ttl, func() (interface{}, error) {
		CacheMissCount.Inc()
		r.log.Debug("cache miss", "key", key)

		data, err := r.fetcher.FetchManifest(ctx, manifestURL)
		if err != nil {
			return nil, err
		}
		out, err := r.Rewrite(data, manifestURL)
		if err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return item.Value().(string), nil
}

func cacheKey(url string) string {
	return fmt.Sprintf("rewritten::%v", url)
}
