package grabber

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"path"

	"github.com/vodkit/hlsgrab/hls"
	"github.com/vodkit/hlsgrab/pkg/dispatcher"
	"github.com/vodkit/hlsgrab/pkg/logging"

	"github.com/pkg/errors"
)

// assemble writes every segment of media playlist m, in playlist order,
// into `<outputBase>.ts`. A single segment failure is skipped, anything
// else aborts. Encrypted playlists abort before the artifact is even
// created, so they never produce output bytes.
func (g Grabber) assemble(ctx context.Context, ll logging.KVLogger, m *hls.Manifest, mediaURL, outputBase string) (*Result, error) {
	if m.Encrypted() {
		key := m.Keys[0]
		keyURL, err := hls.ResolveURL(mediaURL, key.URI)
		if err != nil {
			keyURL = key.URI
		}
		ll.Error("stream is encrypted", "method", key.Method, "key_url", keyURL)
		return nil, errors.Wrapf(ErrStreamEncrypted, "method %v, key at %v", key.Method, keyURL)
	}

	artifact := path.Join(g.outputDir, outputBase+ArtifactExt)
	if err := os.MkdirAll(path.Dir(artifact), os.ModePerm); err != nil {
		return nil, err
	}
	f, err := openArtifact(artifact)
	if err != nil {
		return nil, err
	}

	hasher := GetArtifactHasher()
	out := io.MultiWriter(f, hasher)

	r := &Result{Artifact: artifact}
	if g.parallel > 1 {
		err = g.assembleParallel(ctx, ll, m, mediaURL, out, r)
	} else {
		err = g.assembleSequential(ctx, ll, m, mediaURL, out, r)
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// No rollback, whatever got written stays on disk.
		return nil, err
	}

	r.Checksum = hex.EncodeToString(hasher.Sum(nil))
	return r, nil
}

func (g Grabber) assembleSequential(ctx context.Context, ll logging.KVLogger, m *hls.Manifest, mediaURL string, out io.Writer, r *Result) error {
	for _, seg := range m.Segments {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := g.fetchSegment(ctx, mediaURL, seg)
		if err != nil {
			if !errors.Is(err, ErrSegmentFetch) {
				return err
			}
			g.skipSegment(ll, r, seg, err)
			continue
		}
		if err := g.writeSegment(out, r, data); err != nil {
			return err
		}
	}
	return nil
}

type segmentWork struct {
	g        Grabber
	ctx      context.Context
	mediaURL string
}

func (w segmentWork) Work(t dispatcher.Task) error {
	seg := t.Payload.(hls.Segment)
	data, err := w.g.fetchSegment(w.ctx, w.mediaURL, seg)
	if err != nil {
		return err
	}
	t.SetResult(data)
	return nil
}

// assembleParallel fans segment fetches out to a worker pool, then
// joins the results back strictly in playlist order so the artifact
// comes out identical to a sequential run.
func (g Grabber) assembleParallel(ctx context.Context, ll logging.KVLogger, m *hls.Manifest, mediaURL string, out io.Writer, r *Result) error {
	d := dispatcher.Start(g.parallel, segmentWork{g: g, ctx: ctx, mediaURL: mediaURL}, len(m.Segments))
	defer d.Stop()

	results := make([]*dispatcher.Result, len(m.Segments))
	for i, seg := range m.Segments {
		results[i] = d.Dispatch(seg)
	}

	for i, dr := range results {
		dr.Wait()
		seg := m.Segments[i]
		if dr.Failed() {
			err := dr.Error()
			if !errors.Is(err, ErrSegmentFetch) {
				return err
			}
			g.skipSegment(ll, r, seg, err)
			continue
		}
		if err := g.writeSegment(out, r, dr.Value().([]byte)); err != nil {
			return err
		}
	}
	return nil
}

func (g Grabber) writeSegment(out io.Writer, r *Result, data []byte) error {
	n, err := out.Write(data)
	if err != nil {
		return err
	}
	r.BytesWritten += int64(n)
	r.Segments++
	SegmentsWritten.Inc()
	return nil
}

func (g Grabber) skipSegment(ll logging.KVLogger, r *Result, seg hls.Segment, err error) {
	SegmentsSkipped.Inc()
	r.Skipped = append(r.Skipped, seg.URI)
	ll.Warn("skipping segment", "segment", seg.URI, "index", seg.Index, "err", err)
}
