package grabber

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/vodkit/hlsgrab/hls"
	"github.com/vodkit/hlsgrab/pkg/timer"

	"github.com/pkg/errors"
)

func (g Grabber) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g Grabber) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range g.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// fetch retrieves url through the configured transport. Connection
// failures and non-2xx responses come back wrapping ErrTransport.
func (g Grabber) fetch(ctx context.Context, url, kind string) ([]byte, error) {
	rctx, cancel := g.requestContext(ctx)
	defer cancel()

	req, err := g.newRequest(rctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}

	FetchCount.WithLabelValues(kind).Inc()
	g.log.Debug("fetching", "url", url, "kind", kind)

	t := timer.Start()
	res, err := g.httpClient.Do(req)
	defer func() {
		FetchDurationSeconds.WithLabelValues(kind).Add(t.Duration())
	}()

	if err != nil {
		FetchFailureCount.WithLabelValues(kind, failureTransport).Inc()
		return nil, errors.Wrapf(ErrTransport, "%v", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		FetchFailureCount.WithLabelValues(kind, fmt.Sprintf("http%v", res.StatusCode)).Inc()
		g.log.Debug("unexpected http response", "url", url, "code", res.StatusCode)
		return nil, errors.Wrapf(ErrTransport, "status: %v", res.Status)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		FetchFailureCount.WithLabelValues(kind, failureTransport).Inc()
		return nil, errors.Wrapf(ErrTransport, "%v", err)
	}
	FetchSizeBytes.WithLabelValues(kind).Add(float64(len(data)))
	return data, nil
}

// fetchSegment resolves and retrieves a single media segment. Every
// failure except cancellation comes back wrapping ErrSegmentFetch so
// the assembler can skip the segment and carry on.
func (g Grabber) fetchSegment(ctx context.Context, mediaURL string, seg hls.Segment) ([]byte, error) {
	segURL, err := hls.ResolveURL(mediaURL, seg.URI)
	if err != nil {
		return nil, errors.Wrapf(ErrSegmentFetch, "%v: %v", seg.URI, err)
	}
	data, err := g.fetch(ctx, segURL, fetchKindSegment)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, errors.Wrapf(ErrSegmentFetch, "%v: %v", segURL, err)
	}
	return data, nil
}

func (g Grabber) head(ctx context.Context, url string) bool {
	rctx, cancel := g.requestContext(ctx)
	defer cancel()

	req, err := g.newRequest(rctx, http.MethodHead, url)
	if err != nil {
		return false
	}
	res, err := g.httpClient.Do(req)
	if err != nil {
		g.log.Debug("head request failed", "url", url, "err", err)
		return false
	}
	defer res.Body.Close()
	g.log.Debug("checked", "url", url, "code", res.StatusCode)
	return res.StatusCode >= 200 && res.StatusCode < 300
}
