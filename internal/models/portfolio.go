package models

import (
	"time"

	"github.com/lib/pq"
)

// PortfolioCategoryID enumerates the service areas shown on the portfolio.
type PortfolioCategoryID string

const (
	CategoryScripting PortfolioCategoryID = "scripting"
	CategoryVFX       PortfolioCategoryID = "vfx"
	CategoryBuilding  PortfolioCategoryID = "building"
	CategoryUIUX      PortfolioCategoryID = "uiux"
)

// Valid reports whether the category is one of the known service areas.
func (c PortfolioCategoryID) Valid() bool {
	switch c {
	case CategoryScripting, CategoryVFX, CategoryBuilding, CategoryUIUX:
		return true
	}
	return false
}

// Project is a read-only portfolio entry shown to visitors.
type Project struct {
	ID             string              `db:"id" json:"id"`
	Category       PortfolioCategoryID `db:"category" json:"category"`
	Title          string              `db:"title" json:"title"`
	ShortCaption   string              `db:"short_caption" json:"short_caption"`
	Description    string              `db:"description" json:"description"`
	ThumbnailURL   string              `db:"thumbnail_url" json:"thumbnail_url"`
	VideoURL       *string             `db:"video_url" json:"video_url,omitempty"`
	Images         pq.StringArray      `db:"images" json:"images"`
	Tags           pq.StringArray      `db:"tags" json:"tags"`
	Skills         pq.StringArray      `db:"skills" json:"skills"`
	CompletionDate time.Time           `db:"completion_date" json:"completion_date"`
	Featured       bool                `db:"featured" json:"featured"`
}

// PortfolioCategory describes a service area. The catalogue is fixed in code;
// only projects live in the database.
type PortfolioCategory struct {
	ID              PortfolioCategoryID `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Featured        bool                `json:"featured,omitempty"`
	ExperienceYears int                 `json:"experience_years,omitempty"`
}

// PortfolioCategories is the fixed catalogue of service areas.
var PortfolioCategories = []PortfolioCategory{
	{ID: CategoryScripting, Name: "Scripting", Description: "Gameplay systems, tooling, and automation", Featured: true, ExperienceYears: 6},
	{ID: CategoryVFX, Name: "VFX", Description: "Particles, shaders, and visual polish", ExperienceYears: 4},
	{ID: CategoryBuilding, Name: "Building", Description: "Environment and level construction", ExperienceYears: 5},
	{ID: CategoryUIUX, Name: "UI/UX", Description: "Interface layouts and user flows", ExperienceYears: 3},
}
