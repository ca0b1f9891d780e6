package models

import (
	"errors"
	"fmt"
	"time"
)

// UploadStatus is the state of a relayed upload.
//
//	pending -> uploading -> completed
//	pending -> error
//	uploading -> error
//
// completed and error are terminal.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadError     UploadStatus = "error"
)

// Progress checkpoints. The byte transfer is scaled into [ProgressInitialized, ProgressInitialized+ProgressTransferSpan]
// so that session initialisation and the permission grant get visible credit.
const (
	ProgressStarted      = 5
	ProgressInitialized  = 15
	ProgressTransferSpan = 75
	ProgressDone         = 100
)

var ErrIllegalTransition = errors.New("illegal upload status transition")

var uploadTransitions = map[UploadStatus][]UploadStatus{
	UploadPending:   {UploadUploading, UploadError},
	UploadUploading: {UploadCompleted, UploadError},
}

// CanTransition reports whether moving from s to next is allowed.
func (s UploadStatus) CanTransition(next UploadStatus) bool {
	for _, allowed := range uploadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s UploadStatus) Terminal() bool {
	return s == UploadCompleted || s == UploadError
}

// Upload tracks one file relayed into Drive.
type Upload struct {
	ID          string       `json:"id" gorm:"primaryKey;size:36"`
	AdminID     uint         `json:"adminId" gorm:"index"`
	BatchID     string       `json:"batchId" gorm:"index;size:36"`
	FileName    string       `json:"fileName" gorm:"not null"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	MimeType    string       `json:"mimeType"`
	Size        int64        `json:"size"`
	CourseID    string       `json:"courseId"`
	YearID      string       `json:"yearId"`
	SubjectID   string       `json:"subjectId"`
	ChapterID   string       `json:"chapterId"`
	Status      UploadStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Progress    int          `json:"progress" gorm:"default:0"`
	BytesSent   int64        `json:"bytesSent" gorm:"default:0"`
	SessionURL  string       `json:"-" gorm:"type:text"`
	LocalPath   string       `json:"-"`
	RemoteID    string       `json:"remoteId"`
	URL         string       `json:"url"`
	Error       string       `json:"error,omitempty" gorm:"type:text"`
	HandedOff   bool         `json:"handedOff" gorm:"default:false"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Location returns the chapter the upload targets.
func (u *Upload) Location() Location {
	return Location{CourseID: u.CourseID, YearID: u.YearID, SubjectID: u.SubjectID, ChapterID: u.ChapterID}
}

// Transition moves the upload to next or returns ErrIllegalTransition.
func (u *Upload) Transition(next UploadStatus) error {
	if u.Status == "" {
		u.Status = UploadPending
	}
	if !u.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, u.Status, next)
	}
	u.Status = next
	return nil
}

// SetProgress raises progress to p. Lower values are ignored so progress never goes backwards.
func (u *Upload) SetProgress(p int) {
	if p > ProgressDone {
		p = ProgressDone
	}
	if p > u.Progress {
		u.Progress = p
	}
}

// Fail moves the upload to error and keeps the message.
func (u *Upload) Fail(cause error) error {
	if err := u.Transition(UploadError); err != nil {
		return err
	}
	if cause != nil {
		u.Error = cause.Error()
	}
	return nil
}

// Complete records the remote object and moves the upload to completed.
func (u *Upload) Complete(remoteID, url string) error {
	if err := u.Transition(UploadCompleted); err != nil {
		return err
	}
	u.RemoteID = remoteID
	u.URL = url
	u.Progress = ProgressDone
	return nil
}

// TransferProgress maps sent/total bytes into the reserved transfer span.
func TransferProgress(sent, total int64) int {
	if total <= 0 {
		return ProgressInitialized + ProgressTransferSpan
	}
	if sent > total {
		sent = total
	}
	return ProgressInitialized + int(sent*ProgressTransferSpan/total)
}
