package service

import (
	"errors"
	"fmt"
	"math"
	"mime/multipart"
	"strings"

	"medialib/content-api/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrContentNotFound = errors.New("content not found")
	ErrTitleMissing    = errors.New("title can't be empty")
	ErrTitleTooLong    = errors.New("title is too long")
	ErrInvalidType     = errors.New("type must be image or video")
)

const (
	maxTitleLen  = 200
	defaultLimit = 20
)

// ContentList is the paginated listing envelope.
type ContentList struct {
	Data       []model.Content `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

// ListFilter narrows a listing. Zero values mean no filter, all set
// filters combine with AND.
type ListFilter struct {
	Type    string
	Keyword string
	Tag     string
}

// CreateInput carries the metadata fields of a new content.
type CreateInput struct {
	Title       string
	Description string
	Type        string
	IsPublic    *bool
	TagNames    []string
}

// UpdatePatch distinguishes absent fields (nil) from fields explicitly
// set to a zero value. IsPublic in particular must apply even when the
// new value is false, which is why none of these are plain values.
// A nil TagNames leaves the association set alone, an empty one clears
// it.
type UpdatePatch struct {
	Title       *string
	Description *string
	IsPublic    *bool
	TagNames    []string
}

// Contents orchestrates the media store, the tag store and the content
// rows behind the four content use cases.
type Contents struct {
	DB    *gorm.DB
	Media *MediaStore
	Tags  *TagStore
}

func NewContents(db *gorm.DB, media *MediaStore, tags *TagStore) *Contents {
	return &Contents{DB: db, Media: media, Tags: tags}
}

// List returns one page of contents matching the filter, newest first,
// with tags attached and the pre-pagination total.
func (s *Contents) List(page, limit int, f ListFilter) (*ContentList, error) {
	// Bad paging values fall back to defaults instead of erroring
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	base := func() *gorm.DB {
		q := s.DB.Model(&model.Content{})

		if f.Type != "" {
			q = q.Where("contents.type = ?", f.Type)
		}

		if f.Keyword != "" {
			k := "%" + f.Keyword + "%"
			q = q.Where("(contents.title LIKE ? OR contents.description LIKE ?)", k, k)
		}

		if f.Tag != "" {
			q = q.
				Joins("JOIN content_tags ON content_tags.content_id = contents.id").
				Joins("JOIN tags ON tags.id = content_tags.tag_id").
				Where("tags.name = ?", f.Tag)
		}

		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count contents, %w", err)
	}

	items := []model.Content{}
	err := base().
		Preload("Tags").
		Order("contents.created_at desc, contents.id asc").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list contents, %w", err)
	}

	for i := range items {
		if items[i].Tags == nil {
			items[i].Tags = []model.Tag{}
		}
	}

	return &ContentList{
		Data:       items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Get returns one content with its tags attached.
func (s *Contents) Get(id uint) (*model.Content, error) {
	var content model.Content

	err := s.DB.
		Preload("Tags").
		First(&content, id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}

	if content.Tags == nil {
		content.Tags = []model.Tag{}
	}

	return &content, nil
}

// Create validates the metadata, resolves the tags, places the file and
// inserts the row together with its associations in one transaction.
// The upload itself must have passed validation before this is called,
// so no row can exist for a rejected file.
func (s *Contents) Create(in CreateInput, fh *multipart.FileHeader) (*model.Content, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleMissing
	}
	if len(title) > maxTitleLen {
		return nil, ErrTitleTooLong
	}

	if in.Type != "image" && in.Type != "video" {
		return nil, ErrInvalidType
	}

	tags, err := s.Tags.FindOrCreateMany(in.TagNames)
	if err != nil {
		return nil, err
	}

	rel, err := s.Media.PlaceUpload(fh)
	if err != nil {
		return nil, err
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	content := model.Content{
		Title:       title,
		Description: in.Description,
		Type:        in.Type,
		FilePath:    rel,
		IsPublic:    isPublic,
		Tags:        tags,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// The tags already exist, only the row and the join rows
		// get inserted here
		return tx.Omit("Tags.*").Create(&content).Error
	})
	if err != nil {
		// The row never landed, don't leak the placed file
		if delErr := s.Media.Delete(rel); delErr != nil {
			zap.L().Warn("Failed to clean up file after failed insert", zap.String("path", rel), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to save content, %w", err)
	}

	if content.Tags == nil {
		content.Tags = []model.Tag{}
	}

	return &content, nil
}

// Update applies a partial patch, optionally replacing the backing file
// and the whole tag set. Omitted fields keep their values.
func (s *Contents) Update(id uint, patch UpdatePatch, fh *multipart.FileHeader) (*model.Content, error) {
	content, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, ErrTitleMissing
		}
		if len(title) > maxTitleLen {
			return nil, ErrTitleTooLong
		}
		content.Title = title
	}

	if patch.Description != nil {
		content.Description = *patch.Description
	}

	// An explicit false must still apply, hence the pointer
	if patch.IsPublic != nil {
		content.IsPublic = *patch.IsPublic
	}

	if fh != nil {
		// The old file may already be gone, Delete treats that as
		// success
		if err := s.Media.Delete(content.FilePath); err != nil {
			return nil, err
		}

		rel, err := s.Media.PlaceUpload(fh)
		if err != nil {
			return nil, err
		}
		content.FilePath = rel
	}

	if patch.TagNames != nil {
		tags, err := s.Tags.FindOrCreateMany(patch.TagNames)
		if err != nil {
			return nil, err
		}

		err = s.DB.Model(content).Association("Tags").Replace(&tags)
		if err != nil {
			return nil, fmt.Errorf("failed to replace tags, %w", err)
		}
		content.Tags = tags
	}

	err = s.DB.Omit("Tags").Save(content).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save content, %w", err)
	}

	return s.Get(id)
}

// Remove deletes a content, its backing file and its thumbnail. Tags
// are a shared vocabulary and stay around even when nothing references
// them anymore.
func (s *Contents) Remove(id uint) error {
	content, err := s.Get(id)
	if err != nil {
		return err
	}

	if err := s.Media.Delete(content.FilePath); err != nil {
		return err
	}

	if content.ThumbnailPath != "" {
		if err := s.Media.Delete(content.ThumbnailPath); err != nil {
			return err
		}
	}

	// Select(Associations) drops the join rows, not the tags
	err = s.DB.Select(clause.Associations).Delete(content).Error
	if err != nil {
		return fmt.Errorf("failed to delete content, %w", err)
	}

	return nil
}
