package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"musili-homes-backend/internal/csvio"
	"musili-homes-backend/internal/database"
	"musili-homes-backend/internal/logging"
	"musili-homes-backend/internal/search"

	"github.com/gin-gonic/gin"
)

// ImportExportHandler handles CSV import, export and template requests
type ImportExportHandler struct {
	gdb      *database.GormDB
	searcher *search.SearchClient
	maxRows  int
}

// NewImportExportHandler creates a new import/export handler
func NewImportExportHandler(gdb *database.GormDB, searcher *search.SearchClient, maxRows int) *ImportExportHandler {
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &ImportExportHandler{
		gdb:      gdb,
		searcher: searcher,
		maxRows:  maxRows,
	}
}

// ImportCSV parses an uploaded CSV document, inserts the valid rows in one
// transaction, and reports per-row diagnostics for the rest. The document
// comes either as a multipart "file" field or as the raw request body.
func (h *ImportExportHandler) ImportCSV(c *gin.Context) {
	doc, err := readCSVDocument(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if rows := strings.Count(doc, "\n"); rows > h.maxRows {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("document exceeds the %d row import limit", h.maxRows),
		})
		return
	}

	agents, err := h.gdb.GetAllAgents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := csvio.Parse(doc, agents)

	var importedIDs []int
	if len(result.ValidProperties) > 0 {
		importedIDs, err = h.gdb.ImportProperties(result.ValidProperties)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if h.searcher != nil {
			if err := h.searcher.IndexProperties(result.ValidProperties); err != nil {
				logging.GetLogger().Warnf("Import: failed to index %d listings: %v",
					len(result.ValidProperties), err)
			}
		}
	}

	logging.GetLogger().Infof("Import: %d valid, %d invalid of %d rows",
		result.Summary.Valid, result.Summary.Invalid, result.Summary.Total)

	status := http.StatusOK
	if !result.Success {
		// Nothing usable in the document
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, gin.H{
		"success":      result.Success,
		"imported_ids": importedIDs,
		"invalid_rows": result.InvalidRows,
		"summary":      result.Summary,
	})
}

// ExportCSV streams the full book as a CSV attachment
func (h *ImportExportHandler) ExportCSV(c *gin.Context) {
	properties, err := h.gdb.GetAllProperties()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	agents, err := h.gdb.GetAllAgents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	doc := csvio.Serialize(properties, agents)
	filename := fmt.Sprintf("properties_%s.csv", time.Now().Format("2006-01-02"))

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(doc))
}

// DownloadTemplate returns an importable CSV template with one sample row
func (h *ImportExportHandler) DownloadTemplate(c *gin.Context) {
	agents, err := h.gdb.GetAllAgents()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	doc := csvio.GenerateTemplate(agents)

	c.Header("Content-Disposition", `attachment; filename="property_import_template.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(doc))
}

// readCSVDocument extracts the CSV text from the request
func readCSVDocument(c *gin.Context) (string, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("open uploaded file: %w", err)
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("read uploaded file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no CSV document supplied")
	}
	return string(data), nil
}
