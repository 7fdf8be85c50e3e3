package model

// Tag is a shared label. Names are unique, tags are never deleted when
// the contents referencing them go away.
type Tag struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Contents []Content `gorm:"many2many:content_tags" json:"contents,omitempty"`
}
