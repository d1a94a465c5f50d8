package handlers

import (
	"net/http"
	"strconv"

	"musili-homes-backend/internal/config"
	"musili-homes-backend/internal/database"
	"musili-homes-backend/internal/logging"
	"musili-homes-backend/internal/models"
	"musili-homes-backend/internal/search"
	"musili-homes-backend/internal/snapshot"
	"musili-homes-backend/internal/validation"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PropertyHandler handles listing CRUD and search requests
type PropertyHandler struct {
	gdb             *database.GormDB
	replica         *database.DB
	searcher        *search.SearchClient
	snapshotService *snapshot.Service
	cfg             *config.Config
}

// NewPropertyHandler creates a new property handler. replica and searcher
// may be nil when those backends are not configured.
func NewPropertyHandler(gdb *database.GormDB, replica *database.DB, searcher *search.SearchClient, cfg *config.Config) *PropertyHandler {
	return &PropertyHandler{
		gdb:             gdb,
		replica:         replica,
		searcher:        searcher,
		snapshotService: snapshot.NewService(gdb.DB()),
		cfg:             cfg,
	}
}

// propertyRequest is the JSON body for create and update. Featured rides
// alongside the validated fields because it has no validation rules.
type propertyRequest struct {
	validation.PropertyInput
	Featured *bool `json:"featured,omitempty"`
}

// validationOptions builds the rule set from config plus the current agents
func (h *PropertyHandler) validationOptions() (validation.Options, error) {
	opts := validation.DefaultOptions()
	if h.cfg.Import.MinPrice > 0 {
		opts.MinPrice = h.cfg.Import.MinPrice
	}
	if h.cfg.Import.MaxPrice > 0 {
		opts.MaxPrice = h.cfg.Import.MaxPrice
	}
	opts.RequireImages = h.cfg.Import.RequireImages
	opts.StrictMode = h.cfg.Import.StrictMode

	ids, err := h.gdb.AgentIDs()
	if err != nil {
		return opts, err
	}
	opts.AgentIDs = ids
	return opts, nil
}

// ListProperties returns all listings, with optional sorting
func (h *PropertyHandler) ListProperties(c *gin.Context) {
	sortBy := c.DefaultQuery("sort", "")

	properties, err := h.gdb.GetPropertiesWithSort(sortBy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"count":      len(properties),
	})
}

// GetProperty returns a single listing with its agent and images
func (h *PropertyHandler) GetProperty(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}

	property, err := h.gdb.GetPropertyByID(id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, property)
}

// GetFeaturedProperties returns featured listings still on the market
func (h *PropertyHandler) GetFeaturedProperties(c *gin.Context) {
	properties, err := h.gdb.GetFeaturedProperties()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"count":      len(properties),
	})
}

// CreateProperty validates and inserts a new listing
func (h *PropertyHandler) CreateProperty(c *gin.Context) {
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts, err := h.validationOptions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outcome := validation.ValidateForOperation(req.PropertyInput, validation.OperationCreate, opts)
	if !outcome.IsValid {
		c.JSON(http.StatusUnprocessableEntity, outcome)
		return
	}

	property := buildProperty(req)
	if err := h.gdb.CreateProperty(&property); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.propagate(&property)

	c.JSON(http.StatusCreated, gin.H{
		"property": property,
		"warnings": outcome.Warnings,
	})
}

// UpdateProperty validates and applies a partial update. Only supplied
// fields are checked and written.
func (h *PropertyHandler) UpdateProperty(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}

	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.gdb.GetPropertyByID(id); err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	opts, err := h.validationOptions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	outcome := validation.ValidateForOperation(req.PropertyInput, validation.OperationUpdate, opts)
	if !outcome.IsValid {
		c.JSON(http.StatusUnprocessableEntity, outcome)
		return
	}

	fields := updateFields(req)
	if err := h.gdb.UpdatePropertyFields(id, fields); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	property, err := h.gdb.GetPropertyByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.propagate(property)

	c.JSON(http.StatusOK, gin.H{
		"property": property,
		"warnings": outcome.Warnings,
	})
}

// DeleteProperty soft-deletes a listing and removes it from the search
// index and the read replica. The row is purged by cleanup once retention
// expires.
func (h *PropertyHandler) DeleteProperty(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}

	outcome := validation.ValidateForOperation(
		validation.PropertyInput{ID: &id}, validation.OperationDelete, validation.DefaultOptions())
	if !outcome.IsValid {
		c.JSON(http.StatusUnprocessableEntity, outcome)
		return
	}

	property, err := h.gdb.GetPropertyByID(id)
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.gdb.SoftDeleteProperty(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log := logging.GetLogger()
	if err := h.snapshotService.RecordRemoval(property); err != nil {
		log.Warnf("Properties: failed to record removal for %d: %v", id, err)
	}
	if h.searcher != nil {
		if err := h.searcher.RemoveProperty(strconv.Itoa(id)); err != nil {
			log.Warnf("Properties: failed to deindex %d: %v", id, err)
		}
	}
	if h.replica != nil {
		if err := h.replica.DeleteProperty(id); err != nil {
			log.Warnf("Properties: failed to delete %d from replica: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// SearchProperties runs a filtered full-text search over the index
func (h *PropertyHandler) SearchProperties(c *gin.Context) {
	if h.searcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	params := search.FilterParams{
		Query:  c.Query("q"),
		SortBy: c.Query("sort"),
	}

	if v := c.Query("min_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.MinPrice = &f
		}
	}
	if v := c.Query("max_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.MaxPrice = &f
		}
	}
	if v := c.Query("min_bedrooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.MinBedrooms = &n
		}
	}
	if v := c.Query("min_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.MinSize = &n
		}
	}
	if v := c.Query("agent_id"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			params.AgentID = &n
		}
	}
	if v := c.Query("featured"); v != "" {
		featured := v == "true" || v == "1"
		params.Featured = &featured
	}
	if statuses := c.QueryArray("status"); len(statuses) > 0 {
		params.Statuses = statuses
	}
	if locations := c.QueryArray("location"); len(locations) > 0 {
		params.Locations = locations
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			params.Limit = n
		}
	}

	properties, err := h.searcher.FilterSearch(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"count":      len(properties),
	})
}

// ListAgents returns every agent
func (h *PropertyHandler) ListAgents(c *gin.Context) {
	agents, err := h.gdb.GetAllAgents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"agents": agents,
		"count":  len(agents),
	})
}

// propagate pushes the listing's current state to the index and the replica
func (h *PropertyHandler) propagate(property *models.Property) {
	log := logging.GetLogger()
	if h.searcher != nil {
		if err := h.searcher.IndexProperty(property); err != nil {
			log.Warnf("Properties: failed to index %d: %v", property.ID, err)
		}
	}
	if h.replica != nil {
		if err := h.replica.SaveProperty(property); err != nil {
			log.Warnf("Properties: failed to mirror %d to replica: %v", property.ID, err)
		}
	}
}

// buildProperty constructs a listing from a fully validated create request
func buildProperty(req propertyRequest) models.Property {
	in := req.PropertyInput
	p := models.Property{
		Title:       *in.Title,
		Description: *in.Description,
		Price:       *in.Price,
		Location:    *in.Location,
		Address:     *in.Address,
		Bedrooms:    *in.Bedrooms,
		Bathrooms:   *in.Bathrooms,
		Size:        *in.Size,
		Status:      models.PropertyStatus(*in.Status),
		AgentID:     *in.AgentID,
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	return p
}

// updateFields maps supplied request fields to their columns
func updateFields(req propertyRequest) map[string]interface{} {
	in := req.PropertyInput
	fields := make(map[string]interface{})

	if in.Title != nil {
		fields["title"] = *in.Title
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		fields["price"] = *in.Price
	}
	if in.Location != nil {
		fields["location"] = *in.Location
	}
	if in.Address != nil {
		fields["address"] = *in.Address
	}
	if in.Bedrooms != nil {
		fields["bedrooms"] = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		fields["bathrooms"] = *in.Bathrooms
	}
	if in.Size != nil {
		fields["size"] = *in.Size
	}
	if in.Status != nil {
		fields["status"] = *in.Status
	}
	if in.AgentID != nil {
		fields["agent_id"] = *in.AgentID
	}
	if req.Featured != nil {
		fields["featured"] = *req.Featured
	}
	return fields
}
