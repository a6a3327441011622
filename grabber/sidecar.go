package grabber

import (
	"os"
	"time"

	"github.com/vodkit/hlsgrab/hls"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Sidecar is a YAML document written next to an assembled artifact,
// recording where it came from and what ended up inside.
type Sidecar struct {
	URL       string
	GID       string
	GrabbedAt time.Time
	Variant   *hls.Resolution `yaml:",omitempty,flow"`
	Size      int64
	Checksum  string   `yaml:",omitempty"`
	Segments  int
	Skipped   []string `yaml:",omitempty"`
}

func sidecarPath(artifact string) string {
	return artifact + SidecarExt
}

func (g Grabber) writeSidecar(r *Result) error {
	sc := &Sidecar{
		URL:       r.URL,
		GID:       r.GID,
		GrabbedAt: time.Now(),
		Size:      r.BytesWritten,
		Checksum:  r.Checksum,
		Segments:  r.Segments,
		Skipped:   r.Skipped,
	}
	if r.Variant != nil {
		sc.Variant = r.Variant.Resolution
	}

	d, err := yaml.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(sidecarPath(r.Artifact), d, os.ModePerm)
}

// ReadSidecar loads the sidecar document of an artifact.
func ReadSidecar(artifact string) (*Sidecar, error) {
	sc := &Sidecar{}
	d, err := os.ReadFile(sidecarPath(artifact))
	if err != nil {
		return nil, errors.Wrap(err, "cannot read sidecar file")
	}
	err = yaml.Unmarshal(d, sc)
	if err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal sidecar")
	}
	return sc, nil
}
