// +build !linux

package grabber

import (
	"io"
	"os"
)

func openArtifact(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
}
