package grabber

import "errors"

var (
	ErrTransport       = errors.New("transport failure")
	ErrStreamEncrypted = errors.New("stream is encrypted")
	ErrSegmentFetch    = errors.New("segment fetch failed")
)
