package hls

import (
	"net/url"

	"github.com/pkg/errors"
)

// ResolveURL makes ref absolute by joining it with the directory part
// of base. Absolute refs pass through unchanged. Variant, key and
// segment URLs all go through here.
func ResolveURL(base, ref string) (string, error) {
	bu, err := url.Parse(base)
	if err != nil {
		return "", errors.Wrapf(err, "cannot parse base url %v", base)
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "cannot parse url %v", ref)
	}
	return bu.ResolveReference(ru).String(), nil
}
