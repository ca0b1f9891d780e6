package utils

import (
	"fmt"
	"log"
	"os"
	"time"

	"coursehub/models"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

func logJanitor(message string) {
	log.Printf("[UPLOAD-JANITOR %s] %s", time.Now().Format(time.RFC3339), message)
}

// SweepStaleUploads fails uploads that have sat in uploading without progress since before
// now-staleAfter.
func SweepStaleUploads(db *gorm.DB, now time.Time, staleAfter time.Duration) (int64, error) {
	res := db.Model(&models.Upload{}).
		Where("status = ? AND updated_at < ?", models.UploadUploading, now.Add(-staleAfter)).
		Updates(map[string]interface{}{
			"status": models.UploadError,
			"error":  "no progress for " + staleAfter.String(),
		})
	return res.RowsAffected, res.Error
}

// PurgeExpiredUploads deletes terminal uploads last touched before now-retention, along with any
// staged file still on disk.
func PurgeExpiredUploads(db *gorm.DB, now time.Time, retention time.Duration) (int64, error) {
	var expired []models.Upload
	err := db.Where("status IN ? AND updated_at < ?",
		[]models.UploadStatus{models.UploadCompleted, models.UploadError}, now.Add(-retention)).
		Find(&expired).Error
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(expired))
	for _, u := range expired {
		ids = append(ids, u.ID)
		if u.LocalPath != "" {
			if err := os.Remove(u.LocalPath); err != nil && !os.IsNotExist(err) {
				logJanitor("Failed to remove " + u.LocalPath + ": " + err.Error())
			}
		}
	}

	res := db.Where("id IN ?", ids).Delete(&models.Upload{})
	return res.RowsAffected, res.Error
}

func runUploadJanitor(db *gorm.DB, staleAfter, retention time.Duration) {
	now := time.Now()

	stale, err := SweepStaleUploads(db, now, staleAfter)
	if err != nil {
		logJanitor("Error sweeping stale uploads: " + err.Error())
	} else if stale > 0 {
		logJanitor(fmt.Sprintf("Marked %d stale upload(s) as error", stale))
	}

	purged, err := PurgeExpiredUploads(db, now, retention)
	if err != nil {
		logJanitor("Error purging expired uploads: " + err.Error())
	} else if purged > 0 {
		logJanitor(fmt.Sprintf("Purged %d expired upload(s)", purged))
	}
}

// InitializeUploadJanitor runs the stale/expired sweep every five minutes.
func InitializeUploadJanitor(db *gorm.DB, staleAfter, retention time.Duration) *cron.Cron {
	logJanitor("Initializing upload janitor...")

	c := cron.New()
	c.AddFunc("*/5 * * * *", func() {
		runUploadJanitor(db, staleAfter, retention)
	})
	c.Start()

	logJanitor("Upload janitor started - runs every 5 minutes")
	return c
}
