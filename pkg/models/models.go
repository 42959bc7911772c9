package models

// CollectionRecord is one catalog collection reduced to the fields the harvest needs.
// ImageBytes is empty until the fetch stage fills it in.
type CollectionRecord struct {
	Name        string `json:"name"`
	Slug        string `json:"collection"`
	Description string `json:"description"`
	ProjectURL  string `json:"project_url"`
	ImageRef    string `json:"image_url"`
	ImageBytes  []byte `json:"-"`
}

// HasImage reports whether the record carries fetched image bytes
func (r *CollectionRecord) HasImage() bool {
	return len(r.ImageBytes) > 0
}

// DisplayName returns the name used for logging and file naming
func (r *CollectionRecord) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Slug
}
