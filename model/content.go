// Package model defines database models
package model

import "time"

// Content is a single managed media item. The backing file lives under
// the media root at FilePath and is owned by this row: placed on upload,
// removed on replacement and deletion.
type Content struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	// Either "image" or "video". Fixed at creation, updates never touch it
	Type     string `gorm:"size:16;not null;index" json:"type"`
	FilePath string `gorm:"not null" json:"filePath"`
	// Reserved, nothing populates this yet
	ThumbnailPath string `json:"thumbnailPath"`
	IsPublic      bool   `gorm:"default:true" json:"isPublic"`
	// External user reference, stays empty until auth exists
	CreatedBy *uint     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Tags      []Tag     `gorm:"many2many:content_tags" json:"tags"`
}
