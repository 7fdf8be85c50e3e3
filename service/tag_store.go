package service

import (
	"errors"
	"strings"

	"medialib/content-api/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrTagNotFound    = errors.New("tag not found")
	ErrTagNameTooLong = errors.New("tag name is too long")
)

const maxTagNameLen = 50

// TagStore maps tag names to rows, creating them on first use. Names
// are unique; two requests introducing the same name at once both go
// through the conflict-ignoring insert and end up observing one row.
type TagStore struct {
	DB *gorm.DB
}

func NewTagStore(db *gorm.DB) *TagStore {
	return &TagStore{DB: db}
}

// ParseNames turns raw form values into a clean, ordered, deduplicated
// name list. The tags field arrives either as a repeated form field or
// as a single comma-delimited string, both shapes are accepted.
func ParseNames(values []string) []string {
	if len(values) == 1 && strings.Contains(values[0], ",") {
		values = strings.Split(values[0], ",")
	}

	names := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}

		names = append(names, v)
	}

	return names
}

// FindOrCreateMany resolves every name to a persisted tag, creating the
// missing ones. Result order follows the input order.
func (s *TagStore) FindOrCreateMany(names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return []model.Tag{}, nil
	}

	for _, name := range names {
		if len(name) > maxTagNameLen {
			return nil, ErrTagNameTooLong
		}
	}

	rows := make([]model.Tag, 0, len(names))
	for _, name := range names {
		rows = append(rows, model.Tag{Name: name})
	}

	err := s.DB.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).
		Error
	if err != nil {
		return nil, err
	}

	// Conflicting rows don't get their IDs filled in, so fetch the
	// whole set back
	var found []model.Tag
	err = s.DB.
		Where("name IN ?", names).
		Find(&found).
		Error
	if err != nil {
		return nil, err
	}

	byName := make(map[string]model.Tag, len(found))
	for _, t := range found {
		byName[t.Name] = t
	}

	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		if t, ok := byName[name]; ok {
			tags = append(tags, t)
		}
	}

	return tags, nil
}

// FindAll returns every tag ordered by name.
func (s *TagStore) FindAll() ([]model.Tag, error) {
	tags := []model.Tag{}

	err := s.DB.
		Order("name asc").
		Find(&tags).
		Error
	if err != nil {
		return nil, err
	}

	return tags, nil
}

// FindByID returns one tag with its associated contents attached.
func (s *TagStore) FindByID(id uint) (*model.Tag, error) {
	var tag model.Tag

	err := s.DB.
		Preload("Contents").
		First(&tag, id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}

	return &tag, nil
}
