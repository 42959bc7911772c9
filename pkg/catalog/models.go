package catalog

import (
	"strings"

	errs "pfpharvest/pkg/errors"
	"pfpharvest/pkg/models"
)

// collectionsResponse is the body of GET /collections
type collectionsResponse struct {
	Collections *[]wireCollection `json:"collections"`
	Next        *string           `json:"next"`
}

type wireCollection struct {
	Name        string `json:"name"`
	Collection  string `json:"collection"`
	Description string `json:"description"`
	ProjectURL  string `json:"project_url"`
	ImageURL    string `json:"image_url"`
}

// Page is one page of catalog results
type Page struct {
	Records []models.CollectionRecord
	// Next is the opaque cursor for the following page, empty on the last page
	Next string
}

func (r *collectionsResponse) toPage() (*Page, error) {
	if r.Collections == nil {
		return nil, &errs.CatalogError{Message: "response has no collections field"}
	}

	page := &Page{Records: make([]models.CollectionRecord, 0, len(*r.Collections))}
	for _, c := range *r.Collections {
		page.Records = append(page.Records, c.toRecord())
	}
	if r.Next != nil {
		page.Next = *r.Next
	}

	return page, nil
}

func (c wireCollection) toRecord() models.CollectionRecord {
	return models.CollectionRecord{
		Name:        c.Name,
		Slug:        c.Collection,
		Description: c.Description,
		ProjectURL:  c.ProjectURL,
		ImageRef:    strings.TrimSpace(c.ImageURL),
	}
}
