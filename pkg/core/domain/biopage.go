package domain

import "time"

// BioPage is a published page built from a template. There is one page per
// (user, template) pair and it is looked up publicly by its ShareID.
type BioPage struct {
	UserID        string         `json:"user_id"`
	TemplateID    string         `json:"template_id"`
	Title         string         `json:"title"`
	BioText       string         `json:"bio_text"`
	SocialHandles []SocialHandle `json:"social_handles"`
	Links         []Link         `json:"links"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ShareID returns the public lookup key for the page.
func (p *BioPage) ShareID() ShareID {
	return NewShareID(p.UserID, p.TemplateID)
}
