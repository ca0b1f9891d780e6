package utils

import (
	"regexp"
	"sort"
	"strings"

	"coursehub/models"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]`)
)

// Slugify derives a catalog id from a display name: lowercase, whitespace runs become '-',
// everything outside [a-z0-9-] is dropped.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespaceRun.ReplaceAllString(s, "-")
	return nonSlugChars.ReplaceAllString(s, "")
}

// NextOrder returns max(orders)+1, or 1 when there are no siblings.
func NextOrder(orders []int) int {
	if len(orders) == 0 {
		return 1
	}
	max := orders[0]
	for _, o := range orders[1:] {
		if o > max {
			max = o
		}
	}
	return max + 1
}

// SortCourses orders by Order ascending, ties by name.
func SortCourses(items []models.Course) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].Name < items[j].Name
	})
}

func SortYears(items []models.Year) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].Name < items[j].Name
	})
}

func SortSubjects(items []models.Subject) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].Name < items[j].Name
	})
}

func SortChapters(items []models.Chapter) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Order != items[j].Order {
			return items[i].Order < items[j].Order
		}
		return items[i].Name < items[j].Name
	})
}
