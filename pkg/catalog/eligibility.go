package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"pfpharvest/pkg/models"
)

// Eligibility policy names accepted in configuration
const (
	PolicyURIScheme     = "uri-scheme"
	PolicyHTTPSubstring = "http-substring"
	PolicyNonEmpty      = "non-empty"
	PolicyIPFSOnly      = "ipfs-only"
)

// EligibilityPolicy decides whether a record's image reference is worth fetching
type EligibilityPolicy func(rec models.CollectionRecord) bool

// PolicyByName returns the named eligibility policy
func PolicyByName(name string) (EligibilityPolicy, error) {
	switch strings.ToLower(name) {
	case PolicyURIScheme, "":
		return HasURIScheme, nil
	case PolicyHTTPSubstring:
		return ContainsHTTP, nil
	case PolicyNonEmpty:
		return NonEmpty, nil
	case PolicyIPFSOnly:
		return IPFSOnly, nil
	default:
		return nil, fmt.Errorf("unknown eligibility policy %q", name)
	}
}

// HasURIScheme accepts http, https and ipfs references with something after the scheme
func HasURIScheme(rec models.CollectionRecord) bool {
	ref := strings.TrimSpace(rec.ImageRef)
	if ref == "" {
		return false
	}

	u, err := url.Parse(ref)
	if err != nil {
		return false
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "ipfs":
		return u.Host != "" || u.Opaque != "" || strings.Trim(u.Path, "/") != ""
	default:
		return false
	}
}

// ContainsHTTP accepts any reference mentioning http
func ContainsHTTP(rec models.CollectionRecord) bool {
	return strings.Contains(rec.ImageRef, "http")
}

// NonEmpty accepts any non-blank reference
func NonEmpty(rec models.CollectionRecord) bool {
	return strings.TrimSpace(rec.ImageRef) != ""
}

// IPFSOnly accepts content-addressed references only
func IPFSOnly(rec models.CollectionRecord) bool {
	return strings.Contains(rec.ImageRef, "/ipfs/") || strings.HasPrefix(rec.ImageRef, "ipfs://")
}
