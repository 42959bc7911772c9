package gateway

import "strings"

const (
	pathMarker   = "/ipfs/"
	schemeMarker = "ipfs://"
)

// Ref is a classified image reference
type Ref struct {
	Raw string
	// ContentAddressed is true when the image must be resolved through mirrors
	ContentAddressed bool
	// CID is the content identifier plus any sub-path, set only for content-addressed refs
	CID string
}

// ParseRef classifies an image reference.
// Anything containing /ipfs/ or starting with ipfs:// is content-addressed and its
// CID is everything after the last marker; everything else is a direct URL.
func ParseRef(raw string) Ref {
	ref := Ref{Raw: raw}

	switch {
	case strings.Contains(raw, pathMarker):
		ref.ContentAddressed = true
		ref.CID = raw[strings.LastIndex(raw, pathMarker)+len(pathMarker):]
	case strings.HasPrefix(strings.ToLower(raw), schemeMarker):
		ref.ContentAddressed = true
		ref.CID = strings.TrimPrefix(raw[len(schemeMarker):], "ipfs/")
	}

	if ref.ContentAddressed {
		ref.CID = strings.Trim(ref.CID, "/")
	}

	return ref
}
