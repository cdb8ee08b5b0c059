package main

import (
	"time"

	"github.com/complyport/deadlines/deadline"
)

// API request and response models.

// CreateTenantRequest is the body for creating a tenant.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// TenantResponse is a tenant in API responses.
type TenantResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateCompanyRequest is the body for registering a company.
type CreateCompanyRequest struct {
	Name    string                     `json:"name"`
	Anchors deadline.CompanyAnchorData `json:"anchors"`
}

// CompanyResponse is a company in API responses.
type CompanyResponse struct {
	ID        string                     `json:"id"`
	Name      string                     `json:"name"`
	Active    bool                       `json:"active"`
	Anchors   deadline.CompanyAnchorData `json:"anchors"`
	CreatedAt time.Time                  `json:"createdAt"`
	UpdatedAt time.Time                  `json:"updatedAt"`
}

// CompanyPreviewRequest is the body for a company-scoped preview. The
// company's anchor data comes from the store, not the body.
type CompanyPreviewRequest struct {
	Rules            []*deadline.DeadlineRule `json:"rules"`
	ServiceStartDate *time.Time               `json:"serviceStartDate,omitempty"`
	Exclusions       []deadline.Exclusion     `json:"exclusions,omitempty"`
	Now              time.Time                `json:"now,omitempty"`
	RenderCap        int                      `json:"renderCap,omitempty"`
}

// CurrentPreviewResponse is the freshest preview held by the mirror
// coordinator.
type CurrentPreviewResponse struct {
	Result        *deadline.PreviewResult `json:"result"`
	Authoritative bool                    `json:"authoritative"`
}

// MetricsResponse exposes the process counters.
type MetricsResponse struct {
	TotalErrors    int64 `json:"totalErrors"`
	TotalWarnings  int64 `json:"totalWarnings"`
	Total5xxErrors int64 `json:"total5xxErrors"`
	Total4xxErrors int64 `json:"total4xxErrors"`
	PreviewsServed int64 `json:"previewsServed"`
	PreviewsCached int64 `json:"previewsCached"`
	RuleWarnings   int64 `json:"ruleWarnings"`
}

// ErrorResponse is an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
