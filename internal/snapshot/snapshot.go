package snapshot

import (
	"fmt"
	"time"

	"musili-homes-backend/internal/logging"
	"musili-homes-backend/internal/models"

	"gorm.io/gorm"
)

// Service records daily listing snapshots and derives change history from them
type Service struct {
	db *gorm.DB
}

// NewService creates a new snapshot service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// DetectChanges compares the current listing state with its most recent
// snapshot before today. A listing with no prior snapshot reports a single
// new-property change.
func (s *Service) DetectChanges(property *models.Property) ([]models.PropertyChange, error) {
	var lastSnapshot models.PropertySnapshot
	today := time.Now().Truncate(24 * time.Hour)

	result := s.db.Where("property_id = ? AND snapshot_at < ?", property.ID, today).
		Order("snapshot_at DESC").
		First(&lastSnapshot)

	if result.Error == gorm.ErrRecordNotFound {
		return []models.PropertyChange{{
			PropertyID: property.ID,
			ChangeType: models.ChangeTypeNew,
			NewValue:   "New property detected",
			DetectedAt: time.Now(),
		}}, nil
	} else if result.Error != nil {
		return nil, result.Error
	}

	changes := []models.PropertyChange{}

	// Price change carries the signed delta so reports can distinguish
	// markdowns from increases
	if property.Price != lastSnapshot.Price {
		magnitude := property.Price - lastSnapshot.Price
		changes = append(changes, models.PropertyChange{
			PropertyID:      property.ID,
			ChangeType:      models.ChangeTypePrice,
			OldValue:        fmt.Sprintf("%.2f", lastSnapshot.Price),
			NewValue:        fmt.Sprintf("%.2f", property.Price),
			ChangeMagnitude: &magnitude,
			DetectedAt:      time.Now(),
		})
	}

	// Status change
	if string(property.Status) != lastSnapshot.Status {
		changes = append(changes, models.PropertyChange{
			PropertyID: property.ID,
			ChangeType: models.ChangeTypeStatus,
			OldValue:   lastSnapshot.Status,
			NewValue:   string(property.Status),
			DetectedAt: time.Now(),
		})
	}

	// Featured flag change
	if property.Featured != lastSnapshot.Featured {
		changes = append(changes, models.PropertyChange{
			PropertyID: property.ID,
			ChangeType: models.ChangeTypeFeatured,
			OldValue:   fmt.Sprintf("%t", lastSnapshot.Featured),
			NewValue:   fmt.Sprintf("%t", property.Featured),
			DetectedAt: time.Now(),
		})
	}

	// Title change
	if property.Title != lastSnapshot.Title {
		changes = append(changes, models.PropertyChange{
			PropertyID: property.ID,
			ChangeType: models.ChangeTypeTitle,
			OldValue:   lastSnapshot.Title,
			NewValue:   property.Title,
			DetectedAt: time.Now(),
		})
	}

	return changes, nil
}

// SaveChanges saves detected changes to the database
func (s *Service) SaveChanges(changes []models.PropertyChange, snapshotID uint) error {
	if len(changes) == 0 {
		return nil
	}

	for i := range changes {
		changes[i].SnapshotID = snapshotID
	}

	return s.db.Create(&changes).Error
}

// CreateSnapshotWithChangeDetection records today's snapshot of the listing,
// upserting on the (property, date) pair, and stores any detected changes.
func (s *Service) CreateSnapshotWithChangeDetection(property *models.Property) error {
	log := logging.GetLogger()

	changes, err := s.DetectChanges(property)
	if err != nil {
		log.WithField("property_id", property.ID).
			Warnf("Snapshot: failed to detect changes: %v", err)
	}

	snapshot := &models.PropertySnapshot{
		PropertyID: property.ID,
		SnapshotAt: time.Now().Truncate(24 * time.Hour),
		Price:      property.Price,
		Status:     string(property.Status),
		Featured:   property.Featured,
		Title:      property.Title,
		ImageCount: len(property.Images),
		HasChanged: len(changes) > 0,
	}

	if len(changes) > 0 {
		snapshot.ChangeNote = fmt.Sprintf("%d changes detected", len(changes))
	}

	// One snapshot per listing per day
	var existing models.PropertySnapshot
	result := s.db.Where("property_id = ? AND snapshot_at = ?", property.ID, snapshot.SnapshotAt).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		if err := s.db.Create(snapshot).Error; err != nil {
			return err
		}
	} else if result.Error != nil {
		return result.Error
	} else {
		snapshot.ID = existing.ID
		if err := s.db.Save(snapshot).Error; err != nil {
			return err
		}
	}

	if len(changes) > 0 {
		if err := s.SaveChanges(changes, snapshot.ID); err != nil {
			log.WithField("property_id", property.ID).
				Warnf("Snapshot: failed to save changes: %v", err)
		} else {
			log.WithField("property_id", property.ID).
				Infof("Snapshot: detected %d changes", len(changes))
		}
	}

	return nil
}

// RecordRemoval logs a removal change for a listing taken off the books
func (s *Service) RecordRemoval(property *models.Property) error {
	change := models.PropertyChange{
		PropertyID: property.ID,
		ChangeType: models.ChangeTypeRemoved,
		OldValue:   string(property.Status),
		NewValue:   "Property removed",
		DetectedAt: time.Now(),
	}
	return s.db.Create(&change).Error
}

// GetPropertyHistory retrieves snapshot history for a listing
func (s *Service) GetPropertyHistory(propertyID int, limit int) ([]models.PropertySnapshot, error) {
	var snapshots []models.PropertySnapshot
	query := s.db.Where("property_id = ?", propertyID).Order("snapshot_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}

	return snapshots, nil
}

// GetPropertyChanges retrieves change history for a single listing
func (s *Service) GetPropertyChanges(propertyID int, limit int) ([]models.PropertyChange, error) {
	var changes []models.PropertyChange
	query := s.db.Where("property_id = ?", propertyID).Order("detected_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&changes).Error; err != nil {
		return nil, err
	}

	return changes, nil
}

// GetRecentChanges retrieves recent changes across all listings
func (s *Service) GetRecentChanges(limit int) ([]models.PropertyChange, error) {
	var changes []models.PropertyChange
	query := s.db.Order("detected_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&changes).Error; err != nil {
		return nil, err
	}

	return changes, nil
}

// GetRecentPriceDrops lists markdowns detected within the window
func (s *Service) GetRecentPriceDrops(since time.Time, limit int) ([]models.PropertyChange, error) {
	var changes []models.PropertyChange
	query := s.db.Where("change_type = ? AND detected_at >= ? AND change_magnitude < 0",
		models.ChangeTypePrice, since).
		Order("detected_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&changes).Error; err != nil {
		return nil, err
	}

	return changes, nil
}
