package hls

import "errors"

var (
	ErrInvalidManifest   = errors.New("invalid m3u8 manifest")
	ErrNoEligibleVariant = errors.New("no variant streams with resolution found")
)
