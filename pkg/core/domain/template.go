package domain

import "time"

// TemplateStatus controls whether a template shows up in the public catalog.
type TemplateStatus string

const (
	TemplateStatusPublished TemplateStatus = "published"
	TemplateStatusUnlisted  TemplateStatus = "unlisted"
)

// Template is a reusable bio page skeleton. EditableContent holds the
// encoded default content handed to the editor.
type Template struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Category        string         `json:"category"`
	Description     string         `json:"description"`
	Status          TemplateStatus `json:"status"`
	ThumbnailURL    string         `json:"thumbnail_url"`
	EditableContent []byte         `json:"editable_content,omitempty"`
	CreatorID       string         `json:"creator_id,omitempty"` // empty for platform seeds
	CreatedAt       time.Time      `json:"created_at"`
}

// Categories offered in the gallery.
var Categories = []string{
	"Digital Creators",
	"Video & Photography",
	"Music & Performances",
	"Brand & Commerce",
	"Communities",
	"Fitness & Coaching",
	"Travel & Real Estate",
	"Fashion",
	"Food",
	"Clothing",
	"Design",
	"Tech & Gaming",
	"Influencers & Bloggers",
}

// IsKnownCategory reports whether category is one of Categories.
func IsKnownCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
