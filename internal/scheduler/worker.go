package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"musili-homes-backend/internal/database"
	"musili-homes-backend/internal/images"
	"musili-homes-backend/internal/logging"
	"musili-homes-backend/internal/models"

	"github.com/sirupsen/logrus"
)

// ImageWorker drains the image job queue: for each uploaded photo it
// generates the preset renditions, stores them on disk, and records
// property_images rows. Failures retry with exponential backoff.
type ImageWorker struct {
	gdb          *database.GormDB
	uploadsDir   string
	pollInterval time.Duration
	batchSize    int
	stopChan     chan struct{}
	running      atomic.Bool
}

// NewImageWorker creates a new image job worker
func NewImageWorker(gdb *database.GormDB, uploadsDir string, pollInterval time.Duration, batchSize int) *ImageWorker {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 5
	}
	return &ImageWorker{
		gdb:          gdb,
		uploadsDir:   uploadsDir,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		stopChan:     make(chan struct{}),
	}
}

// Start starts the worker loop
func (w *ImageWorker) Start() {
	log := logging.GetLogger()
	if !w.running.CompareAndSwap(false, true) {
		log.Warn("ImageWorker: already running")
		return
	}

	log.Infof("ImageWorker: started (poll_interval=%v, batch_size=%d)", w.pollInterval, w.batchSize)

	go w.run()
}

// Stop stops the worker loop
func (w *ImageWorker) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}

	logging.GetLogger().Info("ImageWorker: stopping")
	close(w.stopChan)
}

// IsRunning reports whether the worker loop is active. Safe to call from
// request goroutines while Start or Stop run elsewhere.
func (w *ImageWorker) IsRunning() bool {
	return w.running.Load()
}

// run is the main worker loop
func (w *ImageWorker) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			logging.GetLogger().Info("ImageWorker: stopped")
			return
		case <-ticker.C:
			w.processNextBatch()
		}
	}
}

// processNextBatch claims and processes the next batch of runnable jobs
func (w *ImageWorker) processNextBatch() {
	log := logging.GetLogger()

	jobs, err := w.gdb.ClaimPendingJobs(w.batchSize)
	if err != nil {
		log.Errorf("ImageWorker: failed to claim jobs: %v", err)
		return
	}

	for i := range jobs {
		w.processJob(&jobs[i])
	}
}

// processJob generates and stores all renditions for one uploaded photo
func (w *ImageWorker) processJob(job *models.ImageJob) {
	log := logging.GetLogger().WithFields(logrus.Fields{
		"job_id":      job.ID,
		"property_id": job.PropertyID,
		"attempt":     job.Attempts,
	})

	log.Info("ImageWorker: processing job")

	data, err := os.ReadFile(job.SourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Source gone for good, retrying will never help
			w.markPermanentFail(job, err)
			return
		}
		w.failJob(job, fmt.Errorf("read source: %w", err))
		return
	}

	file := images.File{
		Name:     job.SourceName,
		MIMEType: sniffMIMEType(job.SourceName),
		Data:     data,
	}

	variants, err := images.GenerateImageVariants(file)
	if err != nil {
		w.failJob(job, fmt.Errorf("generate variants: %w", err))
		return
	}

	propertyDir := filepath.Join(w.uploadsDir, fmt.Sprintf("property_%d", job.PropertyID))
	if err := os.MkdirAll(propertyDir, 0o755); err != nil {
		w.failJob(job, fmt.Errorf("create property dir: %w", err))
		return
	}

	for name, result := range variants {
		outPath := filepath.Join(propertyDir, fmt.Sprintf("%s_%s", name, result.File.Name))
		if err := os.WriteFile(outPath, result.File.Data, 0o644); err != nil {
			w.failJob(job, fmt.Errorf("write variant %s: %w", name, err))
			return
		}

		img := &models.PropertyImage{
			PropertyID: job.PropertyID,
			ImageURL:   outPath,
			Variant:    name,
			Width:      result.Dimensions.Width,
			Height:     result.Dimensions.Height,
			SizeBytes:  result.CompressedSize,
		}
		if err := w.gdb.AddPropertyImage(img); err != nil {
			w.failJob(job, fmt.Errorf("record variant %s: %w", name, err))
			return
		}
	}

	if err := w.gdb.MarkJobDone(job.ID); err != nil {
		log.Errorf("ImageWorker: failed to mark job done: %v", err)
		return
	}

	log.Infof("ImageWorker: completed, %d renditions stored", len(variants))
}

// failJob records a retryable failure with backoff
func (w *ImageWorker) failJob(job *models.ImageJob, jobErr error) {
	log := logging.GetLogger()
	log.Warnf("ImageWorker: job %d failed (attempt %d/%d): %v",
		job.ID, job.Attempts, models.MaxJobAttempts, jobErr)

	if err := w.gdb.MarkJobFailed(job, jobErr); err != nil {
		log.Errorf("ImageWorker: failed to record job failure: %v", err)
	}
}

// markPermanentFail parks a job that can never succeed
func (w *ImageWorker) markPermanentFail(job *models.ImageJob, jobErr error) {
	log := logging.GetLogger()
	log.Warnf("ImageWorker: job %d source unreadable, parking permanently: %v", job.ID, jobErr)

	now := time.Now()
	err := w.gdb.DB().Model(&models.ImageJob{}).Where("id = ?", job.ID).
		Updates(map[string]interface{}{
			"status":       models.JobStatusPermanentFail,
			"last_error":   jobErr.Error(),
			"completed_at": &now,
		}).Error
	if err != nil {
		log.Errorf("ImageWorker: failed to park job: %v", err)
	}
}

// sniffMIMEType maps a file name to the upload mime types we accept
func sniffMIMEType(name string) string {
	switch filepath.Ext(name) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// GetQueueStats returns current queue statistics
func (w *ImageWorker) GetQueueStats() map[string]interface{} {
	var stats struct {
		Pending       int64
		Processing    int64
		Done          int64
		Failed        int64
		PermanentFail int64
	}

	db := w.gdb.DB()
	db.Model(&models.ImageJob{}).Where("status = ?", models.JobStatusPending).Count(&stats.Pending)
	db.Model(&models.ImageJob{}).Where("status = ?", models.JobStatusProcessing).Count(&stats.Processing)
	db.Model(&models.ImageJob{}).Where("status = ?", models.JobStatusDone).Count(&stats.Done)
	db.Model(&models.ImageJob{}).Where("status = ?", models.JobStatusFailed).Count(&stats.Failed)
	db.Model(&models.ImageJob{}).Where("status = ?", models.JobStatusPermanentFail).Count(&stats.PermanentFail)

	return map[string]interface{}{
		"pending":        stats.Pending,
		"processing":     stats.Processing,
		"done":           stats.Done,
		"failed":         stats.Failed,
		"permanent_fail": stats.PermanentFail,
		"is_running":     w.running.Load(),
	}
}
