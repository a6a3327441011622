package grabber

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/vodkit/hlsgrab/hls"

	"github.com/Pallinder/go-randomdata"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// FakeTransport is an in-memory Transport for tests. Responses are
// stubbed per URL, anything unknown gets a 404.
type FakeTransport struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	failures  map[string]error
	requests  []*http.Request

	// Hook runs for every incoming request before it is answered.
	Hook func(req *http.Request)
}

type fakeResponse struct {
	status int
	body   []byte
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		responses: map[string]fakeResponse{},
		failures:  map[string]error{},
	}
}

// Stub sets the response for url.
func (t *FakeTransport) Stub(url string, status int, body []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses[url] = fakeResponse{status: status, body: body}
}

// Fail makes requests for url error out at the transport level.
func (t *FakeTransport) Fail(url string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[url] = err
}

func (t *FakeTransport) Do(req *http.Request) (*http.Response, error) {
	if t.Hook != nil {
		t.Hook(req)
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.requests = append(t.requests, req)
	url := req.URL.String()
	ferr, failed := t.failures[url]
	resp, ok := t.responses[url]
	t.mu.Unlock()

	if failed {
		return nil, ferr
	}
	if !ok {
		resp = fakeResponse{status: http.StatusNotFound}
	}
	return &http.Response{
		StatusCode: resp.status,
		Status:     fmt.Sprintf("%v %v", resp.status, http.StatusText(resp.status)),
		Body:       io.NopCloser(bytes.NewReader(resp.body)),
		Request:    req,
	}, nil
}

// Requests returns a copy of everything the transport has seen so far.
func (t *FakeTransport) Requests() []*http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*http.Request{}, t.requests...)
}

// GenerateDummySidecar produces a plausible sidecar document.
func GenerateDummySidecar() *Sidecar {
	return &Sidecar{
		URL:       fmt.Sprintf("https://host/%v/master.m3u8", randomdata.Alphanumeric(32)),
		GID:       newGID(),
		GrabbedAt: time.Now().UTC(),
		Variant:   &hls.Resolution{Width: 1920, Height: 1080},
		Size:      int64(randomdata.Number(1000, 5000000)),
		Checksum:  randomdata.Alphanumeric(56),
		Segments:  randomdata.Number(1, 500),
	}
}

// PopulateArtifact writes a fake artifact of the given size and its
// sidecar under dir.
func PopulateArtifact(t *testing.T, dir, base string, size int) *Sidecar {
	t.Helper()

	artifact := path.Join(dir, base+ArtifactExt)
	err := os.MkdirAll(path.Dir(artifact), os.ModePerm)
	require.NoError(t, err)
	err = os.WriteFile(artifact, bytes.Repeat([]byte{0x47}, size), os.ModePerm)
	require.NoError(t, err)

	sc := GenerateDummySidecar()
	sc.Size = int64(size)
	d, err := yaml.Marshal(sc)
	require.NoError(t, err)
	err = os.WriteFile(sidecarPath(artifact), d, os.ModePerm)
	require.NoError(t, err)
	return sc
}
