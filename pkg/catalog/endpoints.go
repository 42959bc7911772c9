package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is the number of collections requested per page
	DefaultPageSize = 100

	collectionsPath = "/collections"
)

// CollectionsURL builds the collections endpoint URL for one page
func CollectionsURL(baseURL string, limit int, cursor string) string {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("next", cursor)
	}

	return strings.TrimRight(baseURL, "/") + collectionsPath + "?" + params.Encode()
}
