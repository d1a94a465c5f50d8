package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"musili-homes-backend/internal/cleanup"
	"musili-homes-backend/internal/config"
	"musili-homes-backend/internal/csvio"
	"musili-homes-backend/internal/database"
	"musili-homes-backend/internal/logging"
	"musili-homes-backend/internal/models"
	"musili-homes-backend/internal/search"
	"musili-homes-backend/internal/snapshot"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the nightly maintenance routine: search reindex, listing
// snapshots with change detection, a CSV export of the book, and retention
// cleanup of soft-deleted listings.
type Scheduler struct {
	cron      *cron.Cron
	gdb       *database.GormDB
	searcher  *search.SearchClient
	snapshot  *snapshot.Service
	cleanup   *cleanup.Service
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(gdb *database.GormDB, searcher *search.SearchClient, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		gdb:      gdb,
		searcher: searcher,
		snapshot: snapshot.NewService(gdb.DB()),
		cleanup:  cleanup.NewService(gdb.DB()),
		config:   cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	log := logging.GetLogger()

	if !s.config.Scheduler.Enabled {
		log.Info("Scheduler: nightly run is disabled in configuration")
		return nil
	}

	// Parse run time (HH:MM format in config)
	cronSpec := s.parseRunTime(s.config.Scheduler.ReindexTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Info("Scheduler: starting nightly maintenance")
		if err := s.runNightly(); err != nil {
			log.Errorf("Scheduler: nightly maintenance failed: %v", err)
		} else {
			log.Info("Scheduler: nightly maintenance completed")
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Infof("Scheduler: started with nightly run at %s (cron: %s)", s.config.Scheduler.ReindexTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		logging.GetLogger().Info("Scheduler: stopped")
	}
}

// runNightly executes the nightly maintenance routine
func (s *Scheduler) runNightly() error {
	log := logging.GetLogger()

	properties, err := s.gdb.GetAllProperties()
	if err != nil {
		return fmt.Errorf("load properties: %w", err)
	}

	log.Infof("Scheduler: %d listings on the books", len(properties))

	// 1. Snapshot every listing, recording price/status/featured/title changes
	snapshotErrors := 0
	for i := range properties {
		if err := s.snapshot.CreateSnapshotWithChangeDetection(&properties[i]); err != nil {
			log.Warnf("Scheduler: snapshot failed for listing %d: %v", properties[i].ID, err)
			snapshotErrors++
		}
	}

	// 2. Rebuild the search index
	if s.searcher != nil {
		if err := s.searcher.IndexProperties(properties); err != nil {
			log.Errorf("Scheduler: reindex failed: %v", err)
		} else {
			log.Infof("Scheduler: reindexed %d listings", len(properties))
		}
	}

	// 3. Write a dated CSV export of the full book
	if err := s.exportSnapshot(properties); err != nil {
		log.Errorf("Scheduler: CSV export failed: %v", err)
	}

	// 4. Purge soft-deleted listings past retention
	if s.config.Cleanup.Enabled {
		result, err := s.cleanup.Purge(cleanup.Config{
			RetentionDays:    s.config.Cleanup.RetentionDays,
			MaxDeletionCount: 1000,
		})
		if err != nil {
			log.Errorf("Scheduler: cleanup failed: %v", err)
		} else if result.DeletedCount > 0 {
			log.Infof("Scheduler: purged %d expired listings", result.DeletedCount)
		}
	}

	if snapshotErrors > 0 {
		log.Warnf("Scheduler: completed with %d snapshot errors", snapshotErrors)
	}

	return nil
}

// exportSnapshot writes the full book to a dated CSV file
func (s *Scheduler) exportSnapshot(properties []models.Property) error {
	dir := s.config.Scheduler.ExportSnapshotDir
	if dir == "" {
		dir = "exports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	agents, err := s.gdb.GetAllAgents()
	if err != nil {
		return fmt.Errorf("load agents: %w", err)
	}

	doc := csvio.Serialize(properties, agents)
	path := filepath.Join(dir, fmt.Sprintf("properties_%s.csv", time.Now().Format("2006-01-02")))
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	logging.GetLogger().Infof("Scheduler: exported %d listings to %s", len(properties), path)
	return nil
}

// RunNow immediately executes the nightly routine (for manual trigger)
func (s *Scheduler) RunNow() error {
	logging.GetLogger().Info("Scheduler: manual trigger")
	return s.runNightly()
}

// parseRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 2:00 AM if parsing fails
	logging.GetLogger().Warnf("Scheduler: failed to parse time %q, using default 02:00", timeStr)
	return "0 2 * * *"
}
