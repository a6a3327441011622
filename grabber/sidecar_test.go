package grabber

import (
	"os"
	"path"
	"testing"
	"time"

	"github.com/vodkit/hlsgrab/hls"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidecarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sc := GenerateDummySidecar()
	artifact := path.Join(dir, "video"+ArtifactExt)

	g := New(Configure().OutputDir(dir))
	r := &Result{
		GID:          sc.GID,
		URL:          sc.URL,
		Artifact:     artifact,
		BytesWritten: sc.Size,
		Segments:     sc.Segments,
		Checksum:     sc.Checksum,
		Variant:      &hls.VariantStream{URI: "v/index.m3u8", Resolution: sc.Variant},
	}
	err := g.writeSidecar(r)
	require.NoError(t, err)

	got, err := ReadSidecar(artifact)
	require.NoError(t, err)
	assert.Equal(t, sc.GID, got.GID)
	assert.Equal(t, sc.URL, got.URL)
	assert.Equal(t, sc.Size, got.Size)
	assert.Equal(t, sc.Segments, got.Segments)
	assert.Equal(t, sc.Checksum, got.Checksum)
	require.NotNil(t, got.Variant)
	assert.Equal(t, *sc.Variant, *got.Variant)
	assert.WithinDuration(t, time.Now(), got.GrabbedAt, time.Minute)
}

func TestReadSidecarMissing(t *testing.T) {
	_, err := ReadSidecar(path.Join(t.TempDir(), "nothing.ts"))
	assert.Error(t, err)
}

func TestInventory(t *testing.T) {
	dir := t.TempDir()
	PopulateArtifact(t, dir, "a", 1000)
	PopulateArtifact(t, dir, "nested/b", 2345)
	require.NoError(t, os.WriteFile(path.Join(dir, "notes.txt"), []byte("unrelated"), os.ModePerm))

	ir, err := Inventory(dir)
	require.NoError(t, err)
	require.Len(t, ir.Artifacts, 2)
	assert.EqualValues(t, 3345, ir.TotalSize)

	assert.Equal(t, path.Join(dir, "a.ts"), ir.Artifacts[0].Path)
	assert.EqualValues(t, 1000, ir.Artifacts[0].Size)
	require.NotNil(t, ir.Artifacts[0].Sidecar)
	assert.EqualValues(t, 1000, ir.Artifacts[0].Sidecar.Size)

	assert.Equal(t, path.Join(dir, "nested/b.ts"), ir.Artifacts[1].Path)
	assert.EqualValues(t, 2345, ir.Artifacts[1].Size)
}

func TestInventoryMissingDir(t *testing.T) {
	_, err := Inventory(path.Join(t.TempDir(), "void"))
	assert.Error(t, err)
}
