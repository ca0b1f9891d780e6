package repository

import (
	"coursehub/models"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"reflect"
	"sort"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrChapterNotFound = errors.New("chapter not found")
	ErrContentNotFound = errors.New("content not found")
)

// ContentFilter narrows ListContent. Empty fields match everything; Search is a case-insensitive
// substring match on the title.
type ContentFilter struct {
	CourseID  string
	YearID    string
	SubjectID string
	ChapterID string
	Type      models.ContentType
	Search    string
}

// ContentRegistry mutates the content document of a chapter with set semantics.
//
// Items passed to ArrayUnion and ArrayRemove are compared against stored elements by deep
// equality of their JSON form, so an item carrying a field the stored element lacks (even an
// explicit null) does not match.
type ContentRegistry interface {
	ArrayUnion(loc models.Location, items ...any) (int, error)
	ArrayRemove(loc models.Location, items ...any) (int, error)
	MoveContent(from, to models.Location, original, updated any) error
	FindContent(contentID string) (*models.LocatedContent, error)
	ListContent(filter ContentFilter) ([]models.LocatedContent, error)
}

type contentRegistry struct {
	db *gorm.DB
}

// NewContentRegistry creates a registry backed by the chapters table.
func NewContentRegistry(db *gorm.DB) ContentRegistry {
	return &contentRegistry{db: db}
}

// ArrayUnion appends every item not already present and returns how many were added.
func (r *contentRegistry) ArrayUnion(loc models.Location, items ...any) (int, error) {
	var added int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		n, err := arrayUnion(tx, loc, items)
		added = n
		return err
	})
	if err != nil {
		return 0, err
	}
	log.Printf("INFO: [ContentRegistry] Added %d of %d item(s) to %s.", added, len(items), loc)
	return added, nil
}

// ArrayRemove removes every stored element equal to one of items and returns how many were removed.
func (r *contentRegistry) ArrayRemove(loc models.Location, items ...any) (int, error) {
	var removed int
	err := r.db.Transaction(func(tx *gorm.DB) error {
		n, err := arrayRemove(tx, loc, items)
		removed = n
		return err
	})
	if err != nil {
		return 0, err
	}
	log.Printf("INFO: [ContentRegistry] Removed %d item(s) from %s.", removed, loc)
	return removed, nil
}

// MoveContent removes original from one chapter and adds updated to another in a single
// transaction. If original is not stored in from, nothing changes.
func (r *contentRegistry) MoveContent(from, to models.Location, original, updated any) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		removed, err := arrayRemove(tx, from, []any{original})
		if err != nil {
			return err
		}
		if removed == 0 {
			return fmt.Errorf("%w in %s", ErrContentNotFound, from)
		}
		_, err = arrayUnion(tx, to, []any{updated})
		return err
	})
	if err != nil {
		log.Printf("ERROR: [ContentRegistry] Move from %s to %s rolled back: %v", from, to, err)
		return err
	}
	log.Printf("INFO: [ContentRegistry] Moved content from %s to %s.", from, to)
	return nil
}

// FindContent locates a content item by id anywhere in the catalog. The result carries the
// element in its stored form so it can be passed straight to ArrayRemove or MoveContent.
func (r *contentRegistry) FindContent(contentID string) (*models.LocatedContent, error) {
	chapters, err := r.chapters(ContentFilter{})
	if err != nil {
		return nil, err
	}
	for i := range chapters {
		if len(chapters[i].Content) == 0 {
			continue
		}
		var raws []json.RawMessage
		if err := json.Unmarshal(chapters[i].Content, &raws); err != nil {
			log.Printf("WARN: [ContentRegistry] Skipping undecodable content in %s: %v", chapters[i].Location(), err)
			continue
		}
		for _, raw := range raws {
			var item models.Content
			if json.Unmarshal(raw, &item) != nil || item.ID != contentID {
				continue
			}
			var stored any
			if err := json.Unmarshal(raw, &stored); err != nil {
				return nil, fmt.Errorf("decode content %s: %w", contentID, err)
			}
			return &models.LocatedContent{
				Content:     item,
				Location:    chapters[i].Location(),
				ChapterName: chapters[i].Name,
				Stored:      stored,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrContentNotFound, contentID)
}

// ListContent flattens the content of every matching chapter.
func (r *contentRegistry) ListContent(filter ContentFilter) ([]models.LocatedContent, error) {
	chapters, err := r.chapters(filter)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := []models.LocatedContent{}
	for i := range chapters {
		items, err := chapters[i].Contents()
		if err != nil {
			log.Printf("WARN: [ContentRegistry] Skipping undecodable content in %s: %v", chapters[i].Location(), err)
			continue
		}
		for _, item := range items {
			if filter.Type != "" && item.Type != filter.Type {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(item.Title), search) {
				continue
			}
			result = append(result, models.LocatedContent{
				Content:     item,
				Location:    chapters[i].Location(),
				ChapterName: chapters[i].Name,
			})
		}
	}
	return result, nil
}

func (r *contentRegistry) chapters(filter ContentFilter) ([]models.Chapter, error) {
	q := r.db.Model(&models.Chapter{})
	if filter.CourseID != "" {
		q = q.Where("course_id = ?", filter.CourseID)
	}
	if filter.YearID != "" {
		q = q.Where("year_id = ?", filter.YearID)
	}
	if filter.SubjectID != "" {
		q = q.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.ChapterID != "" {
		q = q.Where("id = ?", filter.ChapterID)
	}

	var chapters []models.Chapter
	if err := q.Find(&chapters).Error; err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	sort.SliceStable(chapters, func(i, j int) bool {
		a, b := chapters[i], chapters[j]
		if a.CourseID != b.CourseID {
			return a.CourseID < b.CourseID
		}
		if a.YearID != b.YearID {
			return a.YearID < b.YearID
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Name < b.Name
	})
	return chapters, nil
}

func arrayUnion(tx *gorm.DB, loc models.Location, items []any) (int, error) {
	elems, err := loadElements(tx, loc)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, item := range items {
		clean, err := Clean(item)
		if err != nil {
			return 0, err
		}
		if indexOf(elems, clean) >= 0 {
			continue
		}
		elems = append(elems, clean)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, storeElements(tx, loc, elems)
}

func arrayRemove(tx *gorm.DB, loc models.Location, items []any) (int, error) {
	elems, err := loadElements(tx, loc)
	if err != nil {
		return 0, err
	}

	targets := make([]any, 0, len(items))
	for _, item := range items {
		clean, err := Clean(item)
		if err != nil {
			return 0, err
		}
		targets = append(targets, clean)
	}

	kept := make([]any, 0, len(elems))
	for _, elem := range elems {
		if indexOf(targets, elem) >= 0 {
			continue
		}
		kept = append(kept, elem)
	}

	removed := len(elems) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, storeElements(tx, loc, kept)
}

// Clean round-trips v through JSON, dropping fields that encode as omitted and normalising the
// value into the same shape stored elements decode into.
func Clean(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return out, nil
}

func indexOf(elems []any, target any) int {
	for i, elem := range elems {
		if reflect.DeepEqual(elem, target) {
			return i
		}
	}
	return -1
}

func chapterScope(tx *gorm.DB, loc models.Location) *gorm.DB {
	return tx.Where("course_id = ? AND year_id = ? AND subject_id = ? AND id = ?",
		loc.CourseID, loc.YearID, loc.SubjectID, loc.ChapterID)
}

func loadElements(tx *gorm.DB, loc models.Location) ([]any, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var chapter models.Chapter
	err := chapterScope(q, loc).First(&chapter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrChapterNotFound, loc)
	}
	if err != nil {
		return nil, fmt.Errorf("load chapter %s: %w", loc, err)
	}

	elems := []any{}
	if len(chapter.Content) == 0 {
		return elems, nil
	}
	if err := json.Unmarshal(chapter.Content, &elems); err != nil {
		return nil, fmt.Errorf("decode content of %s: %w", loc, err)
	}
	if elems == nil {
		elems = []any{}
	}
	return elems, nil
}

func storeElements(tx *gorm.DB, loc models.Location, elems []any) error {
	raw, err := json.Marshal(elems)
	if err != nil {
		return fmt.Errorf("encode content of %s: %w", loc, err)
	}
	err = chapterScope(tx.Model(&models.Chapter{}), loc).Update("content", datatypes.JSON(raw)).Error
	if err != nil {
		return fmt.Errorf("store content of %s: %w", loc, err)
	}
	return nil
}
