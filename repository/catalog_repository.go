package repository

import (
	"coursehub/models"
	"coursehub/utils"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
)

var (
	ErrNodeNotFound   = errors.New("catalog entry not found")
	ErrParentNotFound = errors.New("parent entry not found")
	ErrDuplicateID    = errors.New("an entry with this id already exists")
	ErrInvalidName    = errors.New("name does not produce a usable id")
)

// NodeInput is the payload for creating a catalog entry. A nil Order means "after the last sibling".
type NodeInput struct {
	Name        string
	Description string
	Icon        string
	Order       *int
}

// NodeUpdate changes the display fields of an entry. Nil fields are left untouched; the id never changes.
type NodeUpdate struct {
	Name        *string
	Description *string
	Icon        *string
	Order       *int
}

// CatalogRepository reads and edits the Course/Year/Subject/Chapter hierarchy.
type CatalogRepository interface {
	ListCourses() ([]models.Course, error)
	ListYears(courseID string) ([]models.Year, error)
	ListSubjects(courseID, yearID string) ([]models.Subject, error)
	ListChapters(courseID, yearID, subjectID string) ([]models.Chapter, error)
	Get(level models.Level, path models.Location) (interface{}, error)
	GetChapter(loc models.Location) (*models.Chapter, error)
	Create(level models.Level, parent models.Location, in NodeInput) (interface{}, error)
	Update(level models.Level, path models.Location, in NodeUpdate) (interface{}, error)
	Delete(level models.Level, path models.Location) error
}

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository.
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListCourses() ([]models.Course, error) {
	var items []models.Course
	if err := r.db.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	utils.SortCourses(items)
	return items, nil
}

func (r *catalogRepository) ListYears(courseID string) ([]models.Year, error) {
	var items []models.Year
	if err := r.db.Where("course_id = ?", courseID).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list years of %s: %w", courseID, err)
	}
	utils.SortYears(items)
	return items, nil
}

func (r *catalogRepository) ListSubjects(courseID, yearID string) ([]models.Subject, error) {
	var items []models.Subject
	err := r.db.Where("course_id = ? AND year_id = ?", courseID, yearID).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list subjects of %s/%s: %w", courseID, yearID, err)
	}
	utils.SortSubjects(items)
	return items, nil
}

func (r *catalogRepository) ListChapters(courseID, yearID, subjectID string) ([]models.Chapter, error) {
	var items []models.Chapter
	err := r.db.Where("course_id = ? AND year_id = ? AND subject_id = ?", courseID, yearID, subjectID).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list chapters of %s/%s/%s: %w", courseID, yearID, subjectID, err)
	}
	utils.SortChapters(items)
	return items, nil
}

// Get loads the entry at path for the given level.
func (r *catalogRepository) Get(level models.Level, path models.Location) (interface{}, error) {
	node := newNode(level)
	if node == nil {
		return nil, fmt.Errorf("unknown level %d", level)
	}
	err := r.db.Where(nodeScope(level, path)).First(node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s %s", ErrNodeNotFound, level, path.IDAt(level))
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", level, err)
	}
	return node, nil
}

func (r *catalogRepository) GetChapter(loc models.Location) (*models.Chapter, error) {
	node, err := r.Get(models.LevelChapter, loc)
	if err != nil {
		return nil, err
	}
	return node.(*models.Chapter), nil
}

// Create adds an entry under parent. Its id is the slug of the name.
func (r *catalogRepository) Create(level models.Level, parent models.Location, in NodeInput) (interface{}, error) {
	id := utils.Slugify(in.Name)
	if id == "" {
		return nil, ErrInvalidName
	}
	path := parent.WithID(level, id)

	node := newNode(level)
	if node == nil {
		return nil, fmt.Errorf("unknown level %d", level)
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if level > models.LevelCourse {
			parentLevel := level - 1
			err := tx.Where(nodeScope(parentLevel, path)).First(newNode(parentLevel)).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s %s", ErrParentNotFound, parentLevel, path.IDAt(parentLevel))
			}
			if err != nil {
				return err
			}
		}

		var existing int64
		if err := tx.Model(newNode(level)).Where(nodeScope(level, path)).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}

		order := 0
		if in.Order != nil {
			order = *in.Order
		} else {
			var orders []int
			if err := tx.Model(newNode(level)).Where(siblingScope(level, path)).Pluck("sort_order", &orders).Error; err != nil {
				return err
			}
			order = utils.NextOrder(orders)
		}

		fillNode(node, path, in, order)
		return tx.Create(node).Error
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateID) && !errors.Is(err, ErrParentNotFound) {
			log.Printf("ERROR: [CatalogRepository] Failed to create %s %s: %v", level, id, err)
		}
		return nil, err
	}

	log.Printf("INFO: [CatalogRepository] Created %s %s.", level, path)
	return node, nil
}

// Update changes display fields of the entry at path and returns the stored result.
func (r *catalogRepository) Update(level models.Level, path models.Location, in NodeUpdate) (interface{}, error) {
	changes := map[string]interface{}{}
	if in.Name != nil {
		changes["name"] = *in.Name
	}
	if in.Description != nil {
		changes["description"] = *in.Description
	}
	if in.Icon != nil && level != models.LevelChapter {
		changes["icon"] = *in.Icon
	}
	if in.Order != nil {
		changes["sort_order"] = *in.Order
	}

	if _, err := r.Get(level, path); err != nil {
		return nil, err
	}
	if len(changes) > 0 {
		if err := r.db.Model(newNode(level)).Where(nodeScope(level, path)).Updates(changes).Error; err != nil {
			return nil, fmt.Errorf("update %s: %w", level, err)
		}
		log.Printf("INFO: [CatalogRepository] Updated %s %s.", level, path.IDAt(level))
	}
	return r.Get(level, path)
}

// Delete removes the entry and every catalog row beneath it in one transaction. Files in external
// storage are not touched.
func (r *catalogRepository) Delete(level models.Level, path models.Location) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where(nodeScope(level, path)).Delete(newNode(level))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s %s", ErrNodeNotFound, level, path.IDAt(level))
		}

		scope := descendantScope(level, path)
		for child := models.LevelChapter; child > level; child-- {
			if err := tx.Where(scope).Delete(newNode(child)).Error; err != nil {
				return fmt.Errorf("delete %s rows under %s: %w", child, path, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("INFO: [CatalogRepository] Deleted %s %s with its descendants.", level, path.IDAt(level))
	return nil
}

func newNode(level models.Level) interface{} {
	switch level {
	case models.LevelCourse:
		return &models.Course{}
	case models.LevelYear:
		return &models.Year{}
	case models.LevelSubject:
		return &models.Subject{}
	case models.LevelChapter:
		return &models.Chapter{}
	}
	return nil
}

func fillNode(node interface{}, path models.Location, in NodeInput, order int) {
	switch n := node.(type) {
	case *models.Course:
		*n = models.Course{ID: path.CourseID, Name: in.Name, Description: in.Description, Icon: in.Icon, Order: order}
	case *models.Year:
		*n = models.Year{CourseID: path.CourseID, ID: path.YearID, Name: in.Name, Description: in.Description, Icon: in.Icon, Order: order}
	case *models.Subject:
		*n = models.Subject{CourseID: path.CourseID, YearID: path.YearID, ID: path.SubjectID, Name: in.Name, Description: in.Description, Icon: in.Icon, Order: order}
	case *models.Chapter:
		*n = models.Chapter{CourseID: path.CourseID, YearID: path.YearID, SubjectID: path.SubjectID, ID: path.ChapterID, Name: in.Name, Description: in.Description, Order: order}
	}
}

// siblingScope matches every entry sharing the parent of the entry at path.
func siblingScope(level models.Level, path models.Location) map[string]interface{} {
	scope := map[string]interface{}{}
	if level > models.LevelCourse {
		scope["course_id"] = path.CourseID
	}
	if level > models.LevelYear {
		scope["year_id"] = path.YearID
	}
	if level > models.LevelSubject {
		scope["subject_id"] = path.SubjectID
	}
	return scope
}

func nodeScope(level models.Level, path models.Location) map[string]interface{} {
	scope := siblingScope(level, path)
	scope["id"] = path.IDAt(level)
	return scope
}

// descendantScope matches rows of deeper levels that live under the entry at path.
func descendantScope(level models.Level, path models.Location) map[string]interface{} {
	return siblingScope(level+1, path)
}
