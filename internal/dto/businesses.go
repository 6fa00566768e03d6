package dto

import "time"

// ListFilter contains query parameters for business listing endpoints.
type ListFilter struct {
	Q            string
	Category     string
	City         string
	Status       string
	Source       string
	UpdatedSince *time.Time
	Page         int
	PerPage      int
}
