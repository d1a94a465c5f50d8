package handlers

import (
	"net/http"
	"strconv"
	"time"

	"musili-homes-backend/internal/cleanup"
	"musili-homes-backend/internal/logging"
	"musili-homes-backend/internal/models"
	"musili-homes-backend/internal/ratelimit"
	"musili-homes-backend/internal/scheduler"
	"musili-homes-backend/internal/snapshot"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminHandler handles back-office administration requests
type AdminHandler struct {
	db              *gorm.DB
	scheduler       *scheduler.Scheduler
	worker          *scheduler.ImageWorker
	limiter         *ratelimit.RateLimiter
	snapshotService *snapshot.Service
	cleanupService  *cleanup.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, sched *scheduler.Scheduler, worker *scheduler.ImageWorker, limiter *ratelimit.RateLimiter) *AdminHandler {
	return &AdminHandler{
		db:              db,
		scheduler:       sched,
		worker:          worker,
		limiter:         limiter,
		snapshotService: snapshot.NewService(db),
		cleanupService:  cleanup.NewService(db),
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	// Listing counts by status
	var total int64
	h.db.Model(&models.Property{}).Count(&total)

	var statusRows []struct {
		Status string
		Count  int64
	}
	h.db.Model(&models.Property{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusRows)

	byStatus := make(map[string]int64, len(statusRows))
	for _, r := range statusRows {
		byStatus[r.Status] = r.Count
	}

	var featured int64
	h.db.Model(&models.Property{}).Where("featured = ?", true).Count(&featured)

	stats["properties"] = map[string]interface{}{
		"total":     total,
		"by_status": byStatus,
		"featured":  featured,
	}

	// Agent count
	var agents int64
	h.db.Model(&models.Agent{}).Count(&agents)
	stats["agents"] = map[string]interface{}{"total": agents}

	// Recent listing activity (last 24 hours)
	last24h := time.Now().AddDate(0, 0, -1)
	var recentlyAdded, recentlyUpdated int64
	h.db.Model(&models.Property{}).Where("created_at >= ?", last24h).Count(&recentlyAdded)
	h.db.Model(&models.Property{}).Where("updated_at >= ?", last24h).Count(&recentlyUpdated)
	stats["recent_activity"] = map[string]interface{}{
		"added_last_24h":   recentlyAdded,
		"updated_last_24h": recentlyUpdated,
	}

	// Snapshot statistics
	var snapshotCount int64
	h.db.Model(&models.PropertySnapshot{}).Count(&snapshotCount)
	stats["snapshots"] = map[string]interface{}{
		"total": snapshotCount,
	}

	// Listing changes (last 7 days)
	last7days := time.Now().AddDate(0, 0, -7)
	var recentChanges int64
	h.db.Model(&models.PropertyChange{}).Where("detected_at >= ?", last7days).Count(&recentChanges)
	stats["changes"] = map[string]interface{}{
		"last_7_days": recentChanges,
	}

	// Delete logs statistics
	deleteStats, err := h.cleanupService.GetDeleteStats()
	if err != nil {
		logging.GetLogger().Warnf("Admin: failed to get delete stats: %v", err)
	} else {
		stats["deletions"] = deleteStats
	}

	// Image queue and rate limiter state
	if h.worker != nil {
		stats["image_queue"] = h.worker.GetQueueStats()
	}
	if h.limiter != nil {
		stats["rate_limit"] = h.limiter.GetStats()
	}

	c.JSON(http.StatusOK, stats)
}

// GetRecentActivity returns recently updated listings
func (h *AdminHandler) GetRecentActivity(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, _ := strconv.Atoi(limitStr)

	var properties []models.Property
	err := h.db.Order("updated_at DESC").Limit(limit).Find(&properties).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"count":      len(properties),
	})
}

// TriggerMaintenance manually runs the nightly maintenance routine
func (h *AdminHandler) TriggerMaintenance(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Scheduler not available",
		})
		return
	}

	log := logging.GetLogger()
	log.Info("Admin: manual maintenance trigger requested")

	// Run in goroutine to avoid blocking
	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			log.Errorf("Admin: manual maintenance failed: %v", err)
		} else {
			log.Info("Admin: manual maintenance completed")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Maintenance job started",
		"status":  "running",
	})
}

// RunCleanup purges soft-deleted listings past retention
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		RetentionDays    int  `json:"retention_days"`
		MaxDeletionCount int  `json:"max_deletion_count"`
		DryRun           bool `json:"dry_run"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config := cleanup.DefaultConfig()
	if req.RetentionDays > 0 {
		config.RetentionDays = req.RetentionDays
	}
	if req.MaxDeletionCount > 0 {
		config.MaxDeletionCount = req.MaxDeletionCount
	}
	config.DryRun = req.DryRun

	log := logging.GetLogger()
	log.Infof("Admin: running cleanup (retention: %d days, max: %d, dry-run: %v)",
		config.RetentionDays, config.MaxDeletionCount, config.DryRun)

	result, err := h.cleanupService.Purge(config)
	if err != nil {
		log.Errorf("Admin: cleanup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetDeleteLogs returns recent delete log entries
func (h *AdminHandler) GetDeleteLogs(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	logs, err := h.cleanupService.GetRecentDeleteLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// GetPropertyHistory returns snapshot history for a listing
func (h *AdminHandler) GetPropertyHistory(c *gin.Context) {
	propertyID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}
	limitStr := c.DefaultQuery("limit", "30")
	limit, _ := strconv.Atoi(limitStr)

	snapshots, err := h.snapshotService.GetPropertyHistory(propertyID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property_id": propertyID,
		"snapshots":   snapshots,
		"count":       len(snapshots),
	})
}

// GetPropertyChanges returns change history for a listing
func (h *AdminHandler) GetPropertyChanges(c *gin.Context) {
	propertyID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property id"})
		return
	}
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	changes, err := h.snapshotService.GetPropertyChanges(propertyID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property_id": propertyID,
		"changes":     changes,
		"count":       len(changes),
	})
}

// GetRecentChanges returns recent changes across all listings
func (h *AdminHandler) GetRecentChanges(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	changes, err := h.snapshotService.GetRecentChanges(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes": changes,
		"count":   len(changes),
	})
}

// GetPriceDrops returns markdowns detected within the window (default 7 days)
func (h *AdminHandler) GetPriceDrops(c *gin.Context) {
	daysStr := c.DefaultQuery("days", "7")
	days, _ := strconv.Atoi(daysStr)
	if days <= 0 {
		days = 7
	}
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	since := time.Now().AddDate(0, 0, -days)
	drops, err := h.snapshotService.GetRecentPriceDrops(since, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"price_drops": drops,
		"count":       len(drops),
	})
}

// GetLocationStats returns listing counts by location
func (h *AdminHandler) GetLocationStats(c *gin.Context) {
	type LocationStat struct {
		Location string `json:"location"`
		Count    int64  `json:"count"`
	}

	var stats []LocationStat
	err := h.db.Model(&models.Property{}).
		Select("location, count(*) as count").
		Where("location IS NOT NULL AND location != ''").
		Group("location").
		Order("count DESC").
		Limit(20).
		Scan(&stats).Error

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"location_stats": stats,
		"count":          len(stats),
	})
}

// GetPriceDistribution returns listing counts by price band (KES)
func (h *AdminHandler) GetPriceDistribution(c *gin.Context) {
	type PriceRange struct {
		RangeLabel string  `json:"range_label"`
		MinPrice   float64 `json:"min_price"`
		MaxPrice   float64 `json:"max_price"`
		Count      int64   `json:"count"`
	}

	ranges := []PriceRange{
		{RangeLabel: "Under 10M", MinPrice: 0, MaxPrice: 10_000_000},
		{RangeLabel: "10M - 25M", MinPrice: 10_000_000, MaxPrice: 25_000_000},
		{RangeLabel: "25M - 50M", MinPrice: 25_000_000, MaxPrice: 50_000_000},
		{RangeLabel: "50M - 100M", MinPrice: 50_000_000, MaxPrice: 100_000_000},
		{RangeLabel: "100M - 250M", MinPrice: 100_000_000, MaxPrice: 250_000_000},
		{RangeLabel: "Over 250M", MinPrice: 250_000_000, MaxPrice: 1_000_000_000_000},
	}

	for i := range ranges {
		var count int64
		h.db.Model(&models.Property{}).
			Where("price >= ? AND price < ?", ranges[i].MinPrice, ranges[i].MaxPrice).
			Count(&count)
		ranges[i].Count = count
	}

	c.JSON(http.StatusOK, gin.H{
		"price_distribution": ranges,
	})
}

// GetQueueStats returns image job queue statistics
func (h *AdminHandler) GetQueueStats(c *gin.Context) {
	if h.worker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image worker not available"})
		return
	}
	c.JSON(http.StatusOK, h.worker.GetQueueStats())
}
