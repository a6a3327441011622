// +build linux

package grabber

import (
	"io"
	"os"
	"syscall"

	"github.com/brk0v/directio"
)

type artifactFile struct {
	f   *os.File
	dio *directio.DirectIO
}

func (a *artifactFile) Write(p []byte) (int, error) {
	return a.dio.Write(p)
}

func (a *artifactFile) Close() error {
	if err := a.dio.Flush(); err != nil {
		a.f.Close()
		return err
	}
	return a.f.Close()
}

// openArtifact opens the output file for writing, bypassing the page
// cache so large grabs do not evict everything else from it.
func openArtifact(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|syscall.O_DIRECT, 0666)
	if err == nil {
		dio, derr := directio.New(f)
		if derr == nil {
			return &artifactFile{f: f, dio: dio}, nil
		}
		f.Close()
	}
	// Some filesystems (tmpfs) have no O_DIRECT support.
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
}
