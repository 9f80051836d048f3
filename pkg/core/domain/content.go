package domain

// SocialHandle is a profile link on a social platform.
type SocialHandle struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Username string `json:"username"`
	URL      string `json:"url"`
}

// Link is a free-form link shown on a bio page.
type Link struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// EditableContent is the editor state a template carries as its default
// content, and the shape a user customizes before publishing.
type EditableContent struct {
	Title         string         `json:"title"`
	BioText       string         `json:"bioText"`
	SocialHandles []SocialHandle `json:"socialHandles"`
	Links         []Link         `json:"links"`
}
