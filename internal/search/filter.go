package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"musili-homes-backend/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type FilterParams struct {
	Query       string
	MinPrice    *float64
	MaxPrice    *float64
	Statuses    []string
	Locations   []string
	MinBedrooms *int
	MinSize     *int
	Featured    *bool
	AgentID     *int
	SortBy      string
	Limit       int64
}

// FilterSearch performs advanced search with filters
func (s *SearchClient) FilterSearch(params FilterParams) ([]models.Property, error) {
	var filters []string

	// Price range filter
	if params.MinPrice != nil {
		filters = append(filters, fmt.Sprintf("price >= %f", *params.MinPrice))
	}
	if params.MaxPrice != nil {
		filters = append(filters, fmt.Sprintf("price <= %f", *params.MaxPrice))
	}

	// Status filter
	if len(params.Statuses) > 0 {
		statusFilters := make([]string, len(params.Statuses))
		for i, status := range params.Statuses {
			statusFilters[i] = fmt.Sprintf("status = '%s'", status)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(statusFilters, " OR ")))
	}

	// Location filter
	if len(params.Locations) > 0 {
		locationFilters := make([]string, len(params.Locations))
		for i, location := range params.Locations {
			locationFilters[i] = fmt.Sprintf("location = '%s'", location)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(locationFilters, " OR ")))
	}

	// Physical attribute filters
	if params.MinBedrooms != nil {
		filters = append(filters, fmt.Sprintf("bedrooms >= %d", *params.MinBedrooms))
	}
	if params.MinSize != nil {
		filters = append(filters, fmt.Sprintf("size >= %d", *params.MinSize))
	}

	// Featured filter
	if params.Featured != nil {
		filters = append(filters, fmt.Sprintf("featured = %t", *params.Featured))
	}

	// Agent filter
	if params.AgentID != nil {
		filters = append(filters, fmt.Sprintf("agent_id = %d", *params.AgentID))
	}

	// Combine filters
	var filterStr string
	if len(filters) > 0 {
		filterStr = strings.Join(filters, " AND ")
	}

	// Determine sort order
	var sort []string
	if params.SortBy != "" {
		sort = []string{params.SortBy}
	}

	// Default limit
	if params.Limit == 0 {
		params.Limit = 20
	}

	// Perform search
	searchReq := &meilisearch.SearchRequest{
		Limit: params.Limit,
	}

	if filterStr != "" {
		searchReq.Filter = filterStr
	}

	if len(sort) > 0 {
		searchReq.Sort = sort
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, searchReq)
	if err != nil {
		return nil, err
	}

	// Convert hits to properties
	var properties []models.Property
	for _, hit := range searchRes.Hits {
		// Convert hit to JSON then to Property struct
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var property models.Property
		if err := json.Unmarshal(hitJSON, &property); err != nil {
			continue
		}

		properties = append(properties, property)
	}

	return properties, nil
}
