// Package hls deals with M3U8 playlists: parsing them into a structured
// form, picking the best variant stream out of a master playlist and
// resolving the URLs found in them.
package hls

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/pkg/errors"
)

// Resolution is a parsed RESOLUTION attribute of a variant stream.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%vx%v", r.Width, r.Height)
}

// ParseResolution parses a "WxH" attribute value.
func ParseResolution(v string) (*Resolution, error) {
	parts := strings.SplitN(strings.ToLower(v), "x", 2)
	if len(parts) != 2 {
		return nil, errors.Errorf("malformed resolution %q", v)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, errors.Errorf("malformed resolution %q", v)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, errors.Errorf("malformed resolution %q", v)
	}
	return &Resolution{Width: w, Height: h}, nil
}

// VariantStream is one rendition entry of a master playlist.
// Resolution is nil when the EXT-X-STREAM-INF line carries no usable
// RESOLUTION attribute, which makes the stream ineligible for selection.
type VariantStream struct {
	URI        string
	Bandwidth  uint32
	Codecs     string
	Resolution *Resolution
}

// Segment is one media chunk of a media playlist. Index is its position
// in the playlist, counting only real entries.
type Segment struct {
	URI      string
	Index    int
	Duration float64
}

type EncryptionKey struct {
	Method string
	URI    string
}

// Manifest is the parsed form of a playlist. It is either a master
// playlist (Variants set) or a media playlist (Segments, Keys set).
// Manifests are never mutated after Parse, transforms produce new text.
type Manifest struct {
	Master   bool
	Variants []VariantStream
	Segments []Segment
	Keys     []EncryptionKey
}

// Encrypted reports whether the playlist declares any encryption key.
func (m *Manifest) Encrypted() bool {
	return len(m.Keys) > 0
}

func (m *Manifest) addKey(k EncryptionKey) {
	for _, ek := range m.Keys {
		if ek == k {
			return
		}
	}
	m.Keys = append(m.Keys, k)
}

// Parse decodes master or media playlist text, reflecting exactly the
// structure present in it. Variants with a missing or malformed
// RESOLUTION attribute keep a nil Resolution rather than a zero value.
func Parse(data []byte) (*Manifest, error) {
	pl, plType, err := m3u8.DecodeFrom(bytes.NewReader(data), true)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidManifest, err.Error())
	}

	switch plType {
	case m3u8.MASTER:
		mpl := pl.(*m3u8.MasterPlaylist)
		m := &Manifest{Master: true, Variants: make([]VariantStream, 0, len(mpl.Variants))}
		for _, v := range mpl.Variants {
			if v == nil {
				continue
			}
			vs := VariantStream{URI: v.URI, Bandwidth: v.Bandwidth, Codecs: v.Codecs}
			if v.Resolution != "" {
				r, err := ParseResolution(v.Resolution)
				if err != nil {
					logger.Warnw("unusable variant resolution", "value", v.Resolution, "url", v.URI)
				} else {
					vs.Resolution = r
				}
			}
			m.Variants = append(m.Variants, vs)
		}
		return m, nil
	case m3u8.MEDIA:
		mpl := pl.(*m3u8.MediaPlaylist)
		m := &Manifest{}
		if mpl.Key != nil {
			m.addKey(EncryptionKey{Method: mpl.Key.Method, URI: mpl.Key.URI})
		}
		for _, s := range mpl.Segments {
			if s == nil {
				continue
			}
			if s.Key != nil {
				m.addKey(EncryptionKey{Method: s.Key.Method, URI: s.Key.URI})
			}
			m.Segments = append(m.Segments, Segment{URI: s.URI, Index: len(m.Segments), Duration: s.Duration})
		}
		return m, nil
	}
	return nil, errors.Wrap(ErrInvalidManifest, "unrecognized playlist type")
}
