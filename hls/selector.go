package hls

// BestVariant picks the variant stream with the largest resolution
// width. Height is not a tiebreaker, equal widths keep the earliest
// stream in playlist order. Streams without a resolution are skipped.
func BestVariant(variants []VariantStream) (*VariantStream, error) {
	var best *VariantStream
	for i := range variants {
		v := &variants[i]
		if v.Resolution == nil {
			continue
		}
		if best == nil || v.Resolution.Width > best.Resolution.Width {
			best = v
		}
	}
	if best == nil {
		return nil, ErrNoEligibleVariant
	}
	return best, nil
}
