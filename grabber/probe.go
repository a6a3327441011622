package grabber

import (
	"context"

	"github.com/vodkit/hlsgrab/hls"

	"github.com/pkg/errors"
)

type ProbeResult struct {
	URL              string
	Present, Missing []string
	Encrypted        bool
	Key              *hls.EncryptionKey
}

// Probe fetches a media playlist and checks every segment with a HEAD
// request, reporting which ones are actually retrievable.
func (g Grabber) Probe(ctx context.Context, mediaURL string) (*ProbeResult, error) {
	pr := &ProbeResult{
		URL:     mediaURL,
		Present: []string{},
		Missing: []string{},
	}

	data, err := g.fetch(ctx, mediaURL, fetchKindManifest)
	if err != nil {
		return nil, err
	}
	m, err := hls.Parse(data)
	if err != nil {
		return nil, err
	}
	if m.Master {
		return nil, errors.Wrap(hls.ErrInvalidManifest, "expected media playlist, got master")
	}
	if m.Encrypted() {
		pr.Encrypted = true
		k := m.Keys[0]
		pr.Key = &k
	}

	for _, seg := range m.Segments {
		segURL, err := hls.ResolveURL(mediaURL, seg.URI)
		if err != nil {
			pr.Missing = append(pr.Missing, seg.URI)
			continue
		}
		if g.head(ctx, segURL) {
			pr.Present = append(pr.Present, seg.URI)
		} else {
			pr.Missing = append(pr.Missing, seg.URI)
		}
	}
	return pr, nil
}
