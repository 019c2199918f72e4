package azsearch

import (
	"fmt"

	"github.com/dsc-chiba-u/flexrag/internal/domain/schema"
)

// Wire DTOs for the Azure AI Search data-plane REST API.

type indexListDTO struct {
	Value []struct {
		Name string `json:"name"`
	} `json:"value"`
}

type indexDTO struct {
	Name   string     `json:"name"`
	Fields []fieldDTO `json:"fields"`
}

// fieldDTO tolerates both capability spellings the service clients have
// exposed over time (searchable vs is_searchable). Pointers distinguish an
// explicit false from a missing flag.
type fieldDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Key  bool   `json:"key"`

	Searchable    *bool `json:"searchable"`
	IsSearchable  *bool `json:"is_searchable"`
	Retrievable   *bool `json:"retrievable"`
	IsRetrievable *bool `json:"is_retrievable"`
	Filterable    *bool `json:"filterable"`
	IsFilterable  *bool `json:"is_filterable"`
	Sortable      *bool `json:"sortable"`
	IsSortable    *bool `json:"is_sortable"`
	Facetable     *bool `json:"facetable"`
	IsFacetable   *bool `json:"is_facetable"`

	Dimensions             int `json:"dimensions"`
	VectorSearchDimensions int `json:"vectorSearchDimensions"`
}

type searchRequestDTO struct {
	Search       string `json:"search"`
	SearchFields string `json:"searchFields,omitempty"`
	Top          int    `json:"top"`
	Count        bool   `json:"count"`
}

type searchResponseDTO struct {
	Count int64            `json:"@odata.count"`
	Value []map[string]any `json:"value"`
}

func (d indexDTO) toDomain() (schema.Schema, error) {
	fields := make([]schema.Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		caps := schema.Capabilities{
			Searchable:  flagSet(f.Searchable, f.IsSearchable),
			Retrievable: retrievableFlag(f.Retrievable, f.IsRetrievable),
			Filterable:  flagSet(f.Filterable, f.IsFilterable),
			Sortable:    flagSet(f.Sortable, f.IsSortable),
			Facetable:   flagSet(f.Facetable, f.IsFacetable),
		}
		dims := f.Dimensions
		if dims == 0 {
			dims = f.VectorSearchDimensions
		}
		fields = append(fields, schema.ReconstructField(f.Name, f.Type, caps, f.Key, dims))
	}
	s, err := schema.New(d.Name, fields)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("normalize index %q: %w", d.Name, err)
	}
	return s, nil
}

// flagSet prefers an explicit true from either capability spelling over a
// missing or false default.
func flagSet(primary, alt *bool) bool {
	if primary != nil && *primary {
		return true
	}
	if alt != nil && *alt {
		return true
	}
	return false
}

// retrievableFlag treats every returned field as retrievable unless the
// service explicitly says otherwise; the wire schema usually carries no
// independent retrievable signal at all.
func retrievableFlag(primary, alt *bool) bool {
	if flagSet(primary, alt) {
		return true
	}
	if primary != nil || alt != nil {
		return false
	}
	return true
}
