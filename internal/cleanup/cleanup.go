package cleanup

import (
	"fmt"
	"time"

	"musili-homes-backend/internal/logging"
	"musili-homes-backend/internal/models"

	"gorm.io/gorm"
)

// Service purges soft-deleted listings once their retention window expires
type Service struct {
	db *gorm.DB
}

// NewService creates a new cleanup service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Config holds configuration for cleanup operations
type Config struct {
	RetentionDays    int  // Days to keep soft-deleted listings before purging
	MaxDeletionCount int  // Maximum number of listings to purge in one run (safety limit)
	DryRun           bool // If true, only log what would be purged
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		RetentionDays:    30,
		MaxDeletionCount: 1000,
		DryRun:           false,
	}
}

// Result holds the outcome of a cleanup run
type Result struct {
	TargetCount       int       `json:"target_count"`       // Listings eligible for purging
	DeletedCount      int       `json:"deleted_count"`      // Listings actually purged
	ErrorCount        int       `json:"error_count"`        // Errors encountered
	DryRun            bool      `json:"dry_run"`            // Whether this was a dry run
	ExecutedAt        time.Time `json:"executed_at"`        // When the cleanup ran
	DeletedProperties []int     `json:"deleted_properties"` // IDs of purged listings
	Errors            []string  `json:"errors,omitempty"`   // Error messages
}

// FindExpiredProperties finds soft-deleted listings whose deleted_at is older
// than the retention window
func (s *Service) FindExpiredProperties(retentionDays int) ([]models.Property, error) {
	var properties []models.Property

	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	err := s.db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoffDate).
		Find(&properties).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find expired properties: %w", err)
	}

	logging.GetLogger().Infof("Cleanup: found %d listings expired before %s",
		len(properties), cutoffDate.Format("2006-01-02"))
	return properties, nil
}

// Purge physically deletes expired listings along with their images and
// pending jobs, leaving an audit row in delete_logs for each
func (s *Service) Purge(config Config) (*Result, error) {
	log := logging.GetLogger()

	result := &Result{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now(),
	}

	expiredProperties, err := s.FindExpiredProperties(config.RetentionDays)
	if err != nil {
		return nil, err
	}

	result.TargetCount = len(expiredProperties)

	if result.TargetCount == 0 {
		log.Info("Cleanup: no expired listings found")
		return result, nil
	}

	// Safety check: abort if too many listings would be purged
	if result.TargetCount > config.MaxDeletionCount {
		return nil, fmt.Errorf("safety check failed: %d listings exceed max deletion limit of %d",
			result.TargetCount, config.MaxDeletionCount)
	}

	log.Infof("Cleanup: starting, %d listings to purge (retention: %d days, dry-run: %v)",
		result.TargetCount, config.RetentionDays, config.DryRun)

	for _, prop := range expiredProperties {
		if config.DryRun {
			log.Infof("Cleanup: [DRY-RUN] would purge listing %d (%s, deleted %s)",
				prop.ID, prop.Title, prop.DeletedAt.Time.Format("2006-01-02"))
			result.DeletedProperties = append(result.DeletedProperties, prop.ID)
			result.DeletedCount++
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			deleteLog := models.DeleteLog{
				PropertyID: prop.ID,
				Title:      prop.Title,
				Location:   prop.Location,
				RemovedAt:  prop.DeletedAt.Time,
				Reason:     models.DeleteReasonExpired,
			}
			if err := tx.Create(&deleteLog).Error; err != nil {
				return fmt.Errorf("create delete log: %w", err)
			}

			if err := tx.Where("property_id = ?", prop.ID).Delete(&models.PropertyImage{}).Error; err != nil {
				return fmt.Errorf("delete images: %w", err)
			}

			if err := tx.Where("property_id = ?", prop.ID).Delete(&models.ImageJob{}).Error; err != nil {
				return fmt.Errorf("delete image jobs: %w", err)
			}

			if err := tx.Unscoped().Delete(&models.Property{}, prop.ID).Error; err != nil {
				return fmt.Errorf("delete property: %w", err)
			}

			return nil
		})

		if err != nil {
			errMsg := fmt.Sprintf("listing %d: %v", prop.ID, err)
			log.Errorf("Cleanup: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		log.Infof("Cleanup: purged listing %d (%s)", prop.ID, prop.Title)
		result.DeletedProperties = append(result.DeletedProperties, prop.ID)
		result.DeletedCount++
	}

	log.Infof("Cleanup: completed, %d/%d purged, %d errors (dry-run: %v)",
		result.DeletedCount, result.TargetCount, result.ErrorCount, config.DryRun)

	return result, nil
}

// GetDeleteStats returns statistics about purged listings
func (s *Service) GetDeleteStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var totalDeleted int64
	if err := s.db.Model(&models.DeleteLog{}).Count(&totalDeleted).Error; err != nil {
		return nil, err
	}
	stats["total_deleted"] = totalDeleted

	var reasonCounts []struct {
		Reason string
		Count  int64
	}
	if err := s.db.Model(&models.DeleteLog{}).
		Select("reason, count(*) as count").
		Group("reason").
		Scan(&reasonCounts).Error; err != nil {
		return nil, err
	}

	reasonMap := make(map[string]int64)
	for _, rc := range reasonCounts {
		reasonMap[rc.Reason] = rc.Count
	}
	stats["by_reason"] = reasonMap

	// Recent purges (last 30 days)
	var recentDeleted int64
	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	if err := s.db.Model(&models.DeleteLog{}).
		Where("deleted_at >= ?", thirtyDaysAgo).
		Count(&recentDeleted).Error; err != nil {
		return nil, err
	}
	stats["deleted_last_30_days"] = recentDeleted

	// Soft-deleted listings still within retention
	var pendingPurge int64
	if err := s.db.Unscoped().Model(&models.Property{}).
		Where("deleted_at IS NOT NULL").
		Count(&pendingPurge).Error; err != nil {
		return nil, err
	}
	stats["pending_purge"] = pendingPurge

	return stats, nil
}

// GetRecentDeleteLogs returns recent delete log entries
func (s *Service) GetRecentDeleteLogs(limit int) ([]models.DeleteLog, error) {
	var logs []models.DeleteLog
	err := s.db.Order("deleted_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
