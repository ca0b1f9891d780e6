package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"coursehub/models"

	"gorm.io/gorm"
)

var ErrQueueFull = errors.New("upload queue is full")

// DriveUploader is the part of the Drive client the worker needs.
type DriveUploader interface {
	CreateUploadSession(ctx context.Context, req UploadInitRequest, origin string) (*UploadSession, error)
	SetPublic(ctx context.Context, fileID string) error
}

// ChunkSender moves bytes into an open upload session.
type ChunkSender interface {
	Upload(ctx context.Context, sessionURL string, r io.Reader, total int64, onProgress func(sent, total int64)) (string, error)
}

type uploadBatch struct {
	id        string
	adminID   uint
	uploadIDs []string
}

// UploadWorker relays queued uploads to Drive one file at a time.
type UploadWorker struct {
	db       *gorm.DB
	drive    DriveUploader
	sender   ChunkSender
	notifier Notifier

	queue  chan uploadBatch
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
}

// Uploads is the process-wide worker, set in main.
var Uploads *UploadWorker

func NewUploadWorker(db *gorm.DB, drive DriveUploader, sender ChunkSender, notifier Notifier, queueSize int) *UploadWorker {
	if queueSize <= 0 {
		queueSize = 64
	}
	if notifier == nil {
		notifier = logNotifier{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &UploadWorker{
		db:       db,
		drive:    drive,
		sender:   sender,
		notifier: notifier,
		queue:    make(chan uploadBatch, queueSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

func logUpload(format string, args ...interface{}) {
	log.Printf("[UPLOAD-WORKER %s] %s", time.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))
}

// Start launches the worker goroutine.
func (w *UploadWorker) Start() {
	w.startOnce.Do(func() {
		w.started = true
		go w.loop()
		logUpload("Upload worker started")
	})
}

// Stop cancels the in-flight upload (which ends in error) and waits for the worker to exit.
// Batches still queued stay pending and are picked up by Recover on the next start.
func (w *UploadWorker) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		if w.started {
			<-w.done
		}
		logUpload("Upload worker stopped")
	})
}

// Enqueue schedules a batch. Uploads in a batch run in the given order.
func (w *UploadWorker) Enqueue(adminID uint, batchID string, uploadIDs []string) error {
	if len(uploadIDs) == 0 {
		return nil
	}
	select {
	case w.queue <- uploadBatch{id: batchID, adminID: adminID, uploadIDs: uploadIDs}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Recover fails uploads left in uploading by a previous process and re-queues pending ones.
func (w *UploadWorker) Recover() error {
	res := w.db.Model(&models.Upload{}).
		Where("status = ?", models.UploadUploading).
		Updates(map[string]interface{}{
			"status": models.UploadError,
			"error":  "interrupted before completion",
		})
	if res.Error != nil {
		return fmt.Errorf("fail interrupted uploads: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		logUpload("Marked %d interrupted upload(s) as error", res.RowsAffected)
	}

	var pending []models.Upload
	if err := w.db.Where("status = ?", models.UploadPending).Order("created_at asc").Find(&pending).Error; err != nil {
		return fmt.Errorf("load pending uploads: %w", err)
	}

	order := []string{}
	batches := map[string]*uploadBatch{}
	for _, u := range pending {
		b, ok := batches[u.BatchID]
		if !ok {
			b = &uploadBatch{id: u.BatchID, adminID: u.AdminID}
			batches[u.BatchID] = b
			order = append(order, u.BatchID)
		}
		b.uploadIDs = append(b.uploadIDs, u.ID)
	}
	for _, id := range order {
		b := batches[id]
		if err := w.Enqueue(b.adminID, b.id, b.uploadIDs); err != nil {
			return err
		}
	}
	if len(pending) > 0 {
		logUpload("Re-queued %d pending upload(s) in %d batch(es)", len(pending), len(order))
	}
	return nil
}

func (w *UploadWorker) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case b := <-w.queue:
			w.processBatch(b)
		}
	}
}

func (w *UploadWorker) processBatch(b uploadBatch) {
	summary := BatchSummary{BatchID: b.id, Failed: map[string]string{}}

	for _, id := range b.uploadIDs {
		if w.ctx.Err() != nil {
			return
		}

		var u models.Upload
		if err := w.db.Where("id = ?", id).First(&u).Error; err != nil {
			logUpload("Upload %s not found: %v", id, err)
			continue
		}
		if u.Status != models.UploadPending {
			continue
		}

		if err := w.Process(w.ctx, &u); err != nil {
			summary.Failed[u.FileName] = err.Error()
			continue
		}
		summary.Completed = append(summary.Completed, u.FileName)
	}

	var admin models.AdminUser
	if err := w.db.Where("id = ?", b.adminID).First(&admin).Error; err != nil {
		logUpload("Batch %s finished; admin %d not found for notification", b.id, b.adminID)
		return
	}
	if err := w.notifier.NotifyUploadBatch(admin.Name, admin.Email, summary); err != nil {
		logUpload("Failed to notify %s about batch %s: %v", admin.Email, b.id, err)
	}
}

// Process relays one pending upload. It always leaves the upload in a terminal state: completed on
// success, error (with the message kept) otherwise.
func (w *UploadWorker) Process(ctx context.Context, u *models.Upload) error {
	if err := u.Transition(models.UploadUploading); err != nil {
		return err
	}
	u.SetProgress(models.ProgressStarted)
	w.save(u)

	err := w.relay(ctx, u)
	if err != nil {
		if ferr := u.Fail(err); ferr != nil {
			logUpload("Upload %s: %v", u.ID, ferr)
		}
		w.save(u)
		logUpload("Upload %s (%s) failed: %v", u.ID, u.FileName, err)
	} else {
		logUpload("Upload %s (%s) completed: %s", u.ID, u.FileName, u.URL)
	}

	w.removeLocal(u)
	return err
}

func (w *UploadWorker) relay(ctx context.Context, u *models.Upload) error {
	session, err := w.drive.CreateUploadSession(ctx, UploadInitRequest{
		FileName:  u.FileName,
		MimeType:  u.MimeType,
		FileSize:  u.Size,
		CourseID:  u.CourseID,
		YearID:    u.YearID,
		SubjectID: u.SubjectID,
		ChapterID: u.ChapterID,
	}, "")
	if err != nil {
		return fmt.Errorf("initialize upload: %w", err)
	}
	u.SessionURL = session.UploadURL
	u.SetProgress(models.ProgressInitialized)
	w.save(u)

	f, err := os.Open(u.LocalPath)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	fileID, err := w.sender.Upload(ctx, session.UploadURL, f, u.Size, func(sent, total int64) {
		u.BytesSent = sent
		u.SetProgress(models.TransferProgress(sent, total))
		w.save(u)
	})
	if err != nil {
		return err
	}
	u.RemoteID = fileID
	w.save(u)

	if err := w.drive.SetPublic(ctx, fileID); err != nil {
		return fmt.Errorf("set public permission: %w", err)
	}

	if err := u.Complete(fileID, ShareableURL(fileID)); err != nil {
		return err
	}
	w.save(u)
	return nil
}

func (w *UploadWorker) save(u *models.Upload) {
	if err := w.db.Save(u).Error; err != nil {
		logUpload("Failed to persist upload %s: %v", u.ID, err)
	}
}

func (w *UploadWorker) removeLocal(u *models.Upload) {
	if u.LocalPath == "" {
		return
	}
	if err := os.Remove(u.LocalPath); err != nil && !os.IsNotExist(err) {
		logUpload("Failed to remove staged file %s: %v", u.LocalPath, err)
	}
}
