package database

import (
	"fmt"
	"time"

	"musili-homes-backend/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	// AutoMigrate will create tables if they don't exist
	return gdb.db.AutoMigrate(
		&models.Agent{},
		&models.Property{},
		&models.PropertyImage{},
		&models.ImageJob{},
		&models.PropertySnapshot{},
		&models.PropertyChange{},
		&models.DeleteLog{},
	)
}

// CreateProperty inserts a new listing
func (gdb *GormDB) CreateProperty(p *models.Property) error {
	return gdb.db.Create(p).Error
}

// SaveProperty persists the full current state of a listing
func (gdb *GormDB) SaveProperty(p *models.Property) error {
	return gdb.db.Save(p).Error
}

// UpdatePropertyFields applies a partial update to a listing
func (gdb *GormDB) UpdatePropertyFields(id int, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return gdb.db.Model(&models.Property{}).Where("id = ?", id).Updates(fields).Error
}

// GetPropertyByID retrieves a listing with its agent and images
func (gdb *GormDB) GetPropertyByID(id int) (*models.Property, error) {
	var property models.Property
	err := gdb.db.Preload("Agent").Preload("Images").First(&property, id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetAllProperties retrieves all listings, newest first
func (gdb *GormDB) GetAllProperties() ([]models.Property, error) {
	var properties []models.Property
	err := gdb.db.Preload("Agent").Order("created_at DESC").Find(&properties).Error
	return properties, err
}

// GetPropertiesWithSort retrieves all listings with custom sorting
func (gdb *GormDB) GetPropertiesWithSort(sortBy string) ([]models.Property, error) {
	var properties []models.Property

	var orderClause string
	switch sortBy {
	case "price_asc":
		orderClause = "price ASC"
	case "price_desc":
		orderClause = "price DESC"
	case "size_desc":
		orderClause = "size DESC"
	case "bedrooms_desc":
		orderClause = "bedrooms DESC"
	case "created_at_asc":
		orderClause = "created_at ASC"
	default:
		// Default to newest first
		orderClause = "created_at DESC"
	}

	err := gdb.db.Preload("Agent").Order(orderClause).Find(&properties).Error
	return properties, err
}

// GetFeaturedProperties retrieves featured listings still on the market
func (gdb *GormDB) GetFeaturedProperties() ([]models.Property, error) {
	var properties []models.Property
	err := gdb.db.Preload("Agent").Preload("Images").
		Where("featured = ? AND status IN ?", true, []models.PropertyStatus{models.StatusForSale, models.StatusForRent}).
		Order("created_at DESC").
		Find(&properties).Error
	return properties, err
}

// SoftDeleteProperty removes a listing from view while keeping the row
func (gdb *GormDB) SoftDeleteProperty(id int) error {
	result := gdb.db.Delete(&models.Property{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ImportProperties inserts a validated CSV batch in a single transaction.
// All rows land or none do.
func (gdb *GormDB) ImportProperties(properties []models.Property) ([]int, error) {
	if len(properties) == 0 {
		return nil, nil
	}

	ids := make([]int, 0, len(properties))
	err := gdb.db.Transaction(func(tx *gorm.DB) error {
		for i := range properties {
			properties[i].ID = 0 // always insert, never collide with existing rows
			if err := tx.Create(&properties[i]).Error; err != nil {
				return err
			}
			ids = append(ids, properties[i].ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// GetAllAgents retrieves every agent
func (gdb *GormDB) GetAllAgents() ([]models.Agent, error) {
	var agents []models.Agent
	err := gdb.db.Order("name ASC").Find(&agents).Error
	return agents, err
}

// GetAgentByID retrieves a single agent
func (gdb *GormDB) GetAgentByID(id int) (*models.Agent, error) {
	var agent models.Agent
	err := gdb.db.First(&agent, id).Error
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

// AgentIDs returns the ids of existing agents for referential checks
func (gdb *GormDB) AgentIDs() ([]int, error) {
	var ids []int
	if err := gdb.db.Model(&models.Agent{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// AddPropertyImage records a stored rendition for a listing
func (gdb *GormDB) AddPropertyImage(img *models.PropertyImage) error {
	return gdb.db.Create(img).Error
}

// GetImagesForProperty lists stored renditions for a listing
func (gdb *GormDB) GetImagesForProperty(propertyID int) ([]models.PropertyImage, error) {
	var images []models.PropertyImage
	err := gdb.db.Where("property_id = ?", propertyID).
		Order("sort_order ASC, id ASC").
		Find(&images).Error
	return images, err
}

// EnqueueImageJob queues an uploaded photo for variant generation
func (gdb *GormDB) EnqueueImageJob(job *models.ImageJob) error {
	job.Status = models.JobStatusPending
	return gdb.db.Create(job).Error
}

// ClaimPendingJobs atomically moves up to limit runnable jobs to processing
// and returns them. Failed jobs become runnable once their backoff elapses.
func (gdb *GormDB) ClaimPendingJobs(limit int) ([]models.ImageJob, error) {
	var jobs []models.ImageJob

	err := gdb.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Where("status = ? OR (status = ? AND next_retry_at <= ?)",
			models.JobStatusPending, models.JobStatusFailed, now).
			Order("priority DESC, created_at ASC").
			Limit(limit).
			Find(&jobs).Error; err != nil {
			return err
		}

		for i := range jobs {
			if err := tx.Model(&jobs[i]).Updates(map[string]interface{}{
				"status":   models.JobStatusProcessing,
				"attempts": jobs[i].Attempts + 1,
			}).Error; err != nil {
				return err
			}
			jobs[i].Status = models.JobStatusProcessing
			jobs[i].Attempts++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkJobDone records a successful job
func (gdb *GormDB) MarkJobDone(jobID int64) error {
	now := time.Now()
	return gdb.db.Model(&models.ImageJob{}).Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":       models.JobStatusDone,
			"completed_at": &now,
			"last_error":   "",
		}).Error
}

// MarkJobFailed records a failure and schedules the retry. Jobs past the
// attempt cap are parked as permanent failures.
func (gdb *GormDB) MarkJobFailed(job *models.ImageJob, jobErr error) error {
	updates := map[string]interface{}{
		"last_error": jobErr.Error(),
	}

	if job.Attempts >= models.MaxJobAttempts {
		updates["status"] = models.JobStatusPermanentFail
	} else {
		retryAt := time.Now().Add(models.NextJobRetryDelay(job.Attempts))
		updates["status"] = models.JobStatusFailed
		updates["next_retry_at"] = &retryAt
	}

	return gdb.db.Model(&models.ImageJob{}).Where("id = ?", job.ID).Updates(updates).Error
}

// CountProperties returns listing counts grouped by status
func (gdb *GormDB) CountProperties() (total int64, byStatus map[string]int64, err error) {
	if err = gdb.db.Model(&models.Property{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err = gdb.db.Model(&models.Property{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return 0, nil, err
	}

	byStatus = make(map[string]int64, len(rows))
	for _, r := range rows {
		byStatus[r.Status] = r.Count
	}
	return total, byStatus, nil
}
