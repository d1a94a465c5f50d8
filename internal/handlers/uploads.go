package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"musili-homes-backend/internal/config"
	"musili-homes-backend/internal/database"
	"musili-homes-backend/internal/images"
	"musili-homes-backend/internal/logging"
	"musili-homes-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadHandler handles listing photo uploads and on-demand compression
type UploadHandler struct {
	gdb *database.GormDB
	cfg *config.Config
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(gdb *database.GormDB, cfg *config.Config) *UploadHandler {
	return &UploadHandler{gdb: gdb, cfg: cfg}
}

// UploadPropertyImage accepts a multipart photo, smart-compresses it, stores
// the result, and queues variant generation for the worker.
func (h *UploadHandler) UploadPropertyImage(c *gin.Context) {
	propertyID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}

	if _, err := h.gdb.GetPropertyByID(propertyID); err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	file, err := h.readImageUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := images.SmartCompress(*file)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	storedPath, err := h.storeRendition(propertyID, result.File)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	img := &models.PropertyImage{
		PropertyID: propertyID,
		ImageURL:   storedPath,
		Variant:    models.VariantOriginal,
		Width:      result.Dimensions.Width,
		Height:     result.Dimensions.Height,
		SizeBytes:  result.CompressedSize,
	}
	if err := h.gdb.AddPropertyImage(img); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	job := &models.ImageJob{
		PropertyID: propertyID,
		SourcePath: storedPath,
		SourceName: result.File.Name,
	}
	if err := h.gdb.EnqueueImageJob(job); err != nil {
		logging.GetLogger().Errorf("Uploads: failed to enqueue variants for %s: %v", storedPath, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"image":             img,
		"job_id":            job.ID,
		"original_size":     result.OriginalSize,
		"compressed_size":   result.CompressedSize,
		"compression_ratio": result.CompressionRatio,
	})
}

// GetPropertyImages lists stored renditions for a listing
func (h *UploadHandler) GetPropertyImages(c *gin.Context) {
	propertyID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}

	imgs, err := h.gdb.GetImagesForProperty(propertyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"images": imgs,
		"count":  len(imgs),
	})
}

// OptimizeImage compresses an uploaded photo for web delivery without
// storing anything. target_bytes caps the output size when supplied.
func (h *UploadHandler) OptimizeImage(c *gin.Context) {
	file, err := h.readImageUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var targetSize int64
	if v := c.Query("target_bytes"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			targetSize = n
		}
	}

	result, err := images.OptimizeForWeb(*file, targetSize)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.File.Name))
	c.Header("X-Original-Size", strconv.FormatInt(result.OriginalSize, 10))
	c.Header("X-Compressed-Size", strconv.FormatInt(result.CompressedSize, 10))
	c.Data(http.StatusOK, result.File.MIMEType, result.File.Data)
}

// BuildResponsiveSet generates and stores the responsive renditions of an
// uploaded photo synchronously
func (h *UploadHandler) BuildResponsiveSet(c *gin.Context) {
	propertyID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}

	if _, err := h.gdb.GetPropertyByID(propertyID); err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	file, err := h.readImageUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	set, err := images.CreateResponsiveImageSet(*file)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	renditions := map[string]*images.Result{
		"small":  set.Small,
		"medium": set.Medium,
		"large":  set.Large,
	}
	if set.Original != nil {
		renditions["original"] = set.Original
	}

	stored := make([]models.PropertyImage, 0, len(renditions))
	for variant, result := range renditions {
		storedPath, err := h.storeRendition(propertyID, result.File)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		img := models.PropertyImage{
			PropertyID: propertyID,
			ImageURL:   storedPath,
			Variant:    variant,
			Width:      result.Dimensions.Width,
			Height:     result.Dimensions.Height,
			SizeBytes:  result.CompressedSize,
		}
		if err := h.gdb.AddPropertyImage(&img); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		stored = append(stored, img)
	}

	c.JSON(http.StatusCreated, gin.H{
		"images": stored,
		"count":  len(stored),
	})
}

// readImageUpload pulls the multipart "image" field and enforces the size
// and content-type gates before any decoding happens
func (h *UploadHandler) readImageUpload(c *gin.Context) (*images.File, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, fmt.Errorf("no image supplied: %w", err)
	}

	if fileHeader.Size > h.cfg.Uploads.MaxUploadBytes() {
		return nil, fmt.Errorf("image exceeds the %dMB upload limit", h.cfg.Uploads.MaxUploadMB)
	}

	mimeType := uploadMIMEType(fileHeader)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("unsupported content type %q", mimeType)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &images.File{
		Name:     filepath.Base(fileHeader.Filename),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// storeRendition writes image bytes under the property's upload directory
// with a collision-proof name
func (h *UploadHandler) storeRendition(propertyID int, file images.File) (string, error) {
	dir := filepath.Join(h.cfg.Uploads.Dir, fmt.Sprintf("property_%d", propertyID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(file.Name))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return path, nil
}

// uploadMIMEType resolves the declared content type, falling back to the
// file extension when the client sent none
func uploadMIMEType(fileHeader *multipart.FileHeader) string {
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
