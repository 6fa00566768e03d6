package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Source identifies where a candidate business record originated.
type Source string

const (
	SourceMapData        Source = "map_data"
	SourceDirectorySite  Source = "directory_site"
	SourceUserSubmitted  Source = "user_submitted"
	SourceDiscoveryCrawl Source = "discovery_crawl"
)

// BusinessStatus tracks a candidate through the curation lifecycle.
type BusinessStatus string

const (
	StatusPending    BusinessStatus = "pending"
	StatusResearched BusinessStatus = "researched"
	StatusEnriched   BusinessStatus = "enriched"
	StatusVerified   BusinessStatus = "verified"
	StatusRejected   BusinessStatus = "rejected"
)

// CandidateBusiness is an unreviewed business record awaiting curation.
// Records from tag-based map sources carry a stable ExternalID ("node/123")
// used for deduplication; listing-site records fall back to a
// provenance-derived identifier.
type CandidateBusiness struct {
	ID           uuid.UUID         `json:"id"`
	ExternalID   *string           `json:"external_id,omitempty"`
	Name         string            `json:"name"`
	Slug         *string           `json:"slug,omitempty"`
	Address      *string           `json:"address,omitempty"`
	Phone        *string           `json:"phone,omitempty"`
	Website      *string           `json:"website,omitempty"`
	Email        *string           `json:"email,omitempty"`
	Latitude     *float64          `json:"latitude,omitempty"`
	Longitude    *float64          `json:"longitude,omitempty"`
	OpeningHours map[string]string `json:"opening_hours,omitempty"`
	Source       Source            `json:"source"`
	Status       BusinessStatus    `json:"status"`
	CityID       *uuid.UUID        `json:"city_id,omitempty"`
	CategoryID   *uuid.UUID        `json:"category_id,omitempty"`
	RegionID     *uuid.UUID        `json:"region_id,omitempty"`
	Raw          json.RawMessage   `json:"raw"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// BusinessTranslation holds locale-specific enrichment text for a business.
// One row per (business, locale), written with upsert semantics so the batch
// import can be re-run safely.
type BusinessTranslation struct {
	BusinessID  uuid.UUID `json:"business_id"`
	Locale      string    `json:"locale"`
	Summary     *string   `json:"summary,omitempty"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
