package main

import (
	"coursehub/config"
	"coursehub/database"
	"coursehub/models"
	"coursehub/repository"
	"coursehub/utils"
	"encoding/csv"
	"errors"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Imports a catalog from CSV. Columns: course, year, subject, chapter, type, title, url, description.
// Missing levels are created; rows with a type, title and url attach content to the chapter unless
// the chapter already holds an item with that url.
func main() {
	path := flag.String("file", "catalog.csv", "CSV file to import")
	flag.Parse()

	config.LoadConfig()
	database.ConnectDb()

	file, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) < 2 {
		log.Fatal("CSV file is empty or has only headers")
	}

	db := database.Database.Db
	stats := importRows(repository.NewCatalogRepository(db), repository.NewContentRegistry(db), records)

	log.Printf("=== Import Complete ===")
	log.Printf("Entries created: %d", stats.created)
	log.Printf("Content added: %d", stats.added)
	log.Printf("Skipped: %d", stats.skipped)
}

type importStats struct {
	created int
	added   int
	skipped int
}

var levelColumns = []struct {
	level  models.Level
	column string
}{
	{models.LevelCourse, "course"},
	{models.LevelYear, "year"},
	{models.LevelSubject, "subject"},
	{models.LevelChapter, "chapter"},
}

func importRows(catalog repository.CatalogRepository, registry repository.ContentRegistry, records [][]string) importStats {
	headerIndex := make(map[string]int)
	for i, h := range records[0] {
		headerIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}
	log.Printf("Total rows to import: %d", len(records)-1)

	var stats importStats
	for i, row := range records[1:] {
		loc, created, err := ensurePath(catalog, row, headerIndex)
		stats.created += created
		if err != nil {
			log.Printf("Row %d: %v", i+2, err)
			stats.skipped++
			continue
		}

		item := models.Content{
			Type:        models.ContentType(strings.ToLower(getField(row, headerIndex, "type"))),
			Title:       getField(row, headerIndex, "title"),
			URL:         getField(row, headerIndex, "url"),
			Description: getField(row, headerIndex, "description"),
		}
		if item.Type == "" && item.URL == "" {
			continue
		}
		if !item.Type.Valid() || item.Title == "" || item.URL == "" {
			log.Printf("Row %d: incomplete content (type=%q title=%q url=%q)", i+2, item.Type, item.Title, item.URL)
			stats.skipped++
			continue
		}

		chapter, err := catalog.GetChapter(loc)
		if err != nil {
			log.Printf("Row %d: %v", i+2, err)
			stats.skipped++
			continue
		}
		existing, _ := chapter.Contents()
		if hasURL(existing, item.URL) {
			stats.skipped++
			continue
		}

		if ref, ok := utils.DetectYouTube(item.URL); ok && item.Type == models.ContentVideo && item.Thumbnail == "" {
			item.Thumbnail = utils.VideoThumbnail(ref.ID)
		}
		item.ID = uuid.New().String()
		if _, err := registry.ArrayUnion(loc, item); err != nil {
			log.Printf("Row %d: %v", i+2, err)
			stats.skipped++
			continue
		}
		stats.added++
	}
	return stats
}

// ensurePath creates every level named in the row that does not exist yet and returns the chapter location.
func ensurePath(catalog repository.CatalogRepository, row []string, headerIndex map[string]int) (models.Location, int, error) {
	loc := models.Location{}
	created := 0
	for _, lc := range levelColumns {
		name := getField(row, headerIndex, lc.column)
		if name == "" {
			return loc, created, errors.New("missing " + lc.column)
		}
		id := utils.Slugify(name)
		if _, err := catalog.Create(lc.level, loc, repository.NodeInput{Name: name}); err == nil {
			created++
		} else if !errors.Is(err, repository.ErrDuplicateID) {
			return loc, created, err
		}
		loc = loc.WithID(lc.level, id)
	}
	return loc, created, nil
}

func hasURL(items []models.Content, url string) bool {
	for _, item := range items {
		if item.URL == url {
			return true
		}
	}
	return false
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
