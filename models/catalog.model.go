package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Course is the root of the catalog hierarchy. ID is the slug of the name at creation time.
type Course struct {
	ID          string    `json:"id" gorm:"primaryKey;size:191"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Order       int       `json:"order" gorm:"column:sort_order;default:0"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Year is nested under a Course.
type Year struct {
	CourseID    string    `json:"courseId" gorm:"primaryKey;size:191"`
	ID          string    `json:"id" gorm:"primaryKey;size:191"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Order       int       `json:"order" gorm:"column:sort_order;default:0"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Subject is nested under a Year.
type Subject struct {
	CourseID    string    `json:"courseId" gorm:"primaryKey;size:191"`
	YearID      string    `json:"yearId" gorm:"primaryKey;size:191"`
	ID          string    `json:"id" gorm:"primaryKey;size:191"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Order       int       `json:"order" gorm:"column:sort_order;default:0"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Chapter is nested under a Subject and owns the content list as a single JSON document.
type Chapter struct {
	CourseID    string         `json:"courseId" gorm:"primaryKey;size:191"`
	YearID      string         `json:"yearId" gorm:"primaryKey;size:191"`
	SubjectID   string         `json:"subjectId" gorm:"primaryKey;size:191"`
	ID          string         `json:"id" gorm:"primaryKey;size:191"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	Order       int            `json:"order" gorm:"column:sort_order;default:0"`
	Content     datatypes.JSON `json:"content" gorm:"column:content"`
	CreatedAt   time.Time      `json:"-"`
	UpdatedAt   time.Time      `json:"-"`
}

// ContentType enumerates the kinds of leaf items a chapter can hold.
type ContentType string

const (
	ContentVideo    ContentType = "video"
	ContentPlaylist ContentType = "playlist"
	ContentNotes    ContentType = "notes"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case ContentVideo, ContentPlaylist, ContentNotes:
		return true
	}
	return false
}

// Content is a leaf item attached to a chapter. Optional fields are omitted when empty so the
// stored JSON carries no stray keys.
type Content struct {
	ID          string      `json:"id"`
	Type        ContentType `json:"type"`
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Thumbnail   string      `json:"thumbnail,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Location addresses a chapter in the hierarchy.
type Location struct {
	CourseID  string `json:"courseId"`
	YearID    string `json:"yearId"`
	SubjectID string `json:"subjectId"`
	ChapterID string `json:"chapterId"`
}

func (l Location) String() string {
	return fmt.Sprintf("courses/%s/years/%s/subjects/%s/chapters/%s", l.CourseID, l.YearID, l.SubjectID, l.ChapterID)
}

// Location returns the address of the chapter.
func (ch *Chapter) Location() Location {
	return Location{CourseID: ch.CourseID, YearID: ch.YearID, SubjectID: ch.SubjectID, ChapterID: ch.ID}
}

// Contents decodes the chapter's content document. Elements that are not valid Content objects
// are skipped.
func (ch *Chapter) Contents() ([]Content, error) {
	if len(ch.Content) == 0 {
		return []Content{}, nil
	}
	var items []Content
	if err := json.Unmarshal(ch.Content, &items); err != nil {
		return nil, fmt.Errorf("decode chapter content: %w", err)
	}
	if items == nil {
		items = []Content{}
	}
	return items, nil
}

// LocatedContent is a content item flattened together with its position in the hierarchy.
type LocatedContent struct {
	Content
	Location
	ChapterName string `json:"chapterName"`

	// Stored is the element exactly as it sits in the chapter document, for equality-based removal.
	Stored any `json:"-"`
}

// Level names a tier of the catalog hierarchy.
type Level int

const (
	LevelCourse Level = iota + 1
	LevelYear
	LevelSubject
	LevelChapter
)

func (l Level) String() string {
	switch l {
	case LevelCourse:
		return "course"
	case LevelYear:
		return "year"
	case LevelSubject:
		return "subject"
	case LevelChapter:
		return "chapter"
	}
	return "unknown"
}

// IDAt returns the id the location holds for the given level.
func (l Location) IDAt(level Level) string {
	switch level {
	case LevelCourse:
		return l.CourseID
	case LevelYear:
		return l.YearID
	case LevelSubject:
		return l.SubjectID
	case LevelChapter:
		return l.ChapterID
	}
	return ""
}

// WithID returns a copy of l with the id for level replaced.
func (l Location) WithID(level Level, id string) Location {
	switch level {
	case LevelCourse:
		l.CourseID = id
	case LevelYear:
		l.YearID = id
	case LevelSubject:
		l.SubjectID = id
	case LevelChapter:
		l.ChapterID = id
	}
	return l
}
