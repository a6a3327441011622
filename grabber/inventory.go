package grabber

import (
	"os"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

type Artifact struct {
	Path    string
	Size    int64
	Sidecar *Sidecar
}

type InventoryResult struct {
	Artifacts []Artifact
	TotalSize int64
}

// Inventory collects assembled artifacts under dir, attaching sidecar
// data where present.
func Inventory(dir string) (*InventoryResult, error) {
	ir := &InventoryResult{}
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(fullPath string, de *godirwalk.Dirent) error {
			if de.IsDir() || !strings.HasSuffix(de.Name(), ArtifactExt) {
				return nil
			}
			fi, err := os.Stat(fullPath)
			if err != nil {
				return err
			}
			a := Artifact{Path: fullPath, Size: fi.Size()}
			if sc, err := ReadSidecar(fullPath); err == nil {
				a.Sidecar = sc
			}
			ir.Artifacts = append(ir.Artifacts, a)
			ir.TotalSize += fi.Size()
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot walk output dir")
	}
	return ir, nil
}
