// Package grabber downloads HLS video streams. It fetches playlists
// through an injected transport, picks the highest resolution variant
// and assembles media segments into a single local artifact.
package grabber

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"hash"
	"net"
	"net/http"
	"time"

	"github.com/vodkit/hlsgrab/hls"
	"github.com/vodkit/hlsgrab/pkg/dispatcher"
	"github.com/vodkit/hlsgrab/pkg/logging"
	"github.com/vodkit/hlsgrab/pkg/logging/zapadapter"
	"github.com/vodkit/hlsgrab/pkg/timer"

	"github.com/c2h5oh/datasize"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
)

const (
	ArtifactExt = ".ts"
	SidecarExt  = ".manifest"
)

const (
	Dev = iota + 1
	Prod
)

// Transport is what the grabber talks to the network through.
type Transport interface {
	Do(req *http.Request) (res *http.Response, err error)
}

type Configuration struct {
	outputDir   string
	headersFile string
	parallel    int
	timeout     time.Duration
	httpClient  Transport
	logLevel    int
}

func Configure() *Configuration {
	return &Configuration{
		outputDir: ".",
		parallel:  1,
		timeout:   30 * time.Second,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				Dial: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 120 * time.Second,
				}).Dial,
				TLSHandshakeTimeout:   30 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
			},
		},
		logLevel: Prod,
	}
}

// OutputDir is where assembled artifacts and their sidecar manifests go.
func (c *Configuration) OutputDir(dir string) *Configuration {
	c.outputDir = dir
	return c
}

// HeadersFile points to a JSON file with HTTP headers to send along with
// every request.
func (c *Configuration) HeadersFile(path string) *Configuration {
	c.headersFile = path
	return c
}

// Parallel sets how many segment fetches may run at once. Artifact
// writes stay ordered regardless.
func (c *Configuration) Parallel(n int) *Configuration {
	if n < 1 {
		n = 1
	}
	c.parallel = n
	return c
}

// Timeout limits every single network call.
func (c *Configuration) Timeout(t time.Duration) *Configuration {
	c.timeout = t
	return c
}

func (c *Configuration) HTTPClient(httpClient Transport) *Configuration {
	c.httpClient = httpClient
	return c
}

// LogLevel sets verbosity of logging. `Dev` outputs a lot of debugging info, `Prod` is more restrained.
func (c *Configuration) LogLevel(l int) *Configuration {
	c.logLevel = l
	return c
}

type Grabber struct {
	*Configuration
	log     logging.KVLogger
	headers Headers
}

// Result is what a finished grab reports back.
type Result struct {
	GID          string
	URL          string
	Artifact     string
	BytesWritten int64
	Segments     int
	Skipped      []string
	Variant      *hls.VariantStream
	Checksum     string
	Duration     float64
}

func New(cfg *Configuration) Grabber {
	g := Grabber{Configuration: cfg}

	zcfg := logging.Prod
	if g.logLevel == Dev {
		zcfg = logging.Dev
	}
	g.log = zapadapter.NewKV(logging.Create("grabber", zcfg).Desugar())
	g.headers = LoadHeaders(g.headersFile)

	dispatcher.RegisterMetrics()

	g.log.Info("grabber configured", "output_dir", g.outputDir, "parallel", g.parallel, "headers", len(g.headers))
	return g
}

func GetArtifactHasher() hash.Hash {
	return sha512.New512_224()
}

func newGID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Grab downloads the video at manifestURL into `<outputBase>.ts` under
// the output dir. Master playlists get their best variant picked first,
// media playlists are assembled directly.
func (g Grabber) Grab(ctx context.Context, manifestURL, outputBase string) (*Result, error) {
	gid := newGID()
	ll := logging.AddGrabRef(g.log, gid)
	tmr := timer.Start()

	ll.Info("starting grab", "url", manifestURL, "output", outputBase)

	data, err := g.fetch(ctx, manifestURL, fetchKindManifest)
	if err != nil {
		return nil, err
	}
	m, err := hls.Parse(data)
	if err != nil {
		return nil, err
	}

	mediaURL := manifestURL
	var variant *hls.VariantStream
	if m.Master {
		variant, err = hls.BestVariant(m.Variants)
		if err != nil {
			return nil, err
		}
		mediaURL, err = hls.ResolveURL(manifestURL, variant.URI)
		if err != nil {
			return nil, err
		}
		ll.Info("variant selected", "resolution", variant.Resolution.String(), "url", mediaURL)

		data, err = g.fetch(ctx, mediaURL, fetchKindManifest)
		if err != nil {
			return nil, err
		}
		m, err = hls.Parse(data)
		if err != nil {
			return nil, err
		}
	}
	if m.Master {
		return nil, errors.Wrap(hls.ErrInvalidManifest, "nested master playlists")
	}

	r, err := g.assemble(ctx, ll, m, mediaURL, outputBase)
	if err != nil {
		return nil, err
	}

	r.GID = gid
	r.URL = manifestURL
	r.Variant = variant
	r.Duration = tmr.Stop()

	if err := g.writeSidecar(r); err != nil {
		ll.Warn("unable to write sidecar manifest", "err", err)
	}

	GrabCount.Inc()
	ll.Info("grab done",
		"artifact", r.Artifact,
		"size", datasize.ByteSize(r.BytesWritten).HumanReadable(),
		"segments", r.Segments,
		"skipped", len(r.Skipped),
		"duration", fmt.Sprintf("%.2f", r.Duration),
	)
	return r, nil
}

// FetchManifest retrieves raw manifest text, headers and timeouts
// applied. Callers outside the grab flow (the rewriter) use it too.
func (g Grabber) FetchManifest(ctx context.Context, url string) ([]byte, error) {
	return g.fetch(ctx, url, fetchKindManifest)
}
