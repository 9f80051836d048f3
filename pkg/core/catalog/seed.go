// Package catalog holds the bundled seed templates shown when the store has
// none or cannot be reached.
package catalog

import (
	"encoding/json"
	"time"

	"github.com/caffeinepub/liinks/pkg/core/domain"
)

var seedCreatedAt = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

type seed struct {
	id, name, category, description, thumbnail string
	content                                    domain.EditableContent
}

var seeds = []seed{
	{
		id:          "seed-creator-glow",
		name:        "Creator Glow",
		category:    "Digital Creators",
		description: "A bright gradient page for creators who post every day.",
		thumbnail:   "/assets/templates/creator-glow.png",
		content: domain.EditableContent{
			Title:   "Your Creator Name",
			BioText: "Making things on the internet. New drops every week.",
			SocialHandles: []domain.SocialHandle{
				{ID: "handle-0", Platform: "instagram", Username: "yourname", URL: "https://instagram.com/yourname"},
				{ID: "handle-1", Platform: "youtube", Username: "yourname", URL: "https://youtube.com/@yourname"},
			},
			Links: []domain.Link{
				{ID: "link-0", Title: "Latest video", URL: "https://youtube.com/@yourname", Description: "Watch the newest upload"},
			},
		},
	},
	{
		id:          "seed-lens-frame",
		name:        "Lens Frame",
		category:    "Video & Photography",
		description: "Minimal dark layout that lets your portfolio speak.",
		thumbnail:   "/assets/templates/lens-frame.png",
		content: domain.EditableContent{
			Title:   "Studio Name",
			BioText: "Photographer and filmmaker. Available for commissions.",
			Links: []domain.Link{
				{ID: "link-0", Title: "Portfolio", URL: "https://example.com/portfolio", Description: "Selected work"},
				{ID: "link-1", Title: "Book a shoot", URL: "https://example.com/book", Description: ""},
			},
		},
	},
	{
		id:          "seed-stage-lights",
		name:        "Stage Lights",
		category:    "Music & Performances",
		description: "Tour dates, streaming links and merch in one place.",
		thumbnail:   "/assets/templates/stage-lights.png",
		content: domain.EditableContent{
			Title:   "Band Name",
			BioText: "New single out now. Catch us on tour.",
			SocialHandles: []domain.SocialHandle{
				{ID: "handle-0", Platform: "spotify", Username: "bandname", URL: "https://open.spotify.com/artist/bandname"},
			},
		},
	},
	{
		id:          "seed-storefront",
		name:        "Storefront",
		category:    "Brand & Commerce",
		description: "Clean product-first layout for small brands.",
		thumbnail:   "/assets/templates/storefront.png",
		content: domain.EditableContent{
			Title:   "Brand Name",
			BioText: "Handmade goods shipped within 48 hours.",
			Links: []domain.Link{
				{ID: "link-0", Title: "Shop", URL: "https://example.com/shop", Description: "Browse the collection"},
			},
		},
	},
	{
		id:          "seed-coach-pulse",
		name:        "Coach Pulse",
		category:    "Fitness & Coaching",
		description: "Energetic page for trainers with booking links.",
		thumbnail:   "/assets/templates/coach-pulse.png",
	},
	{
		id:          "seed-runway",
		name:        "Runway",
		category:    "Fashion",
		description: "Editorial typography for fashion labels and stylists.",
		thumbnail:   "/assets/templates/runway.png",
		content: domain.EditableContent{
			Title:   "Label Name",
			BioText: "Spring collection now live.",
		},
	},
}

// Seeds returns a fresh copy of the seed catalog, in catalog order.
func Seeds() []domain.Template {
	out := make([]domain.Template, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, domain.Template{
			ID:              s.id,
			Name:            s.name,
			Category:        s.category,
			Description:     s.description,
			Status:          domain.TemplateStatusPublished,
			ThumbnailURL:    s.thumbnail,
			EditableContent: encode(s.content),
			CreatedAt:       seedCreatedAt,
		})
	}
	return out
}

// encode leaves templates without default content empty so the editor falls
// back to the template name and description.
func encode(c domain.EditableContent) []byte {
	if c.Title == "" && c.BioText == "" && len(c.SocialHandles) == 0 && len(c.Links) == 0 {
		return nil
	}
	if c.SocialHandles == nil {
		c.SocialHandles = []domain.SocialHandle{}
	}
	if c.Links == nil {
		c.Links = []domain.Link{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	return b
}
