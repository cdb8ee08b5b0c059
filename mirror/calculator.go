package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/complyport/deadlines/deadline"
)

// HTTPCalculator calls the remote calculation service's preview endpoint.
// The request body is the engine's own PreviewRequest encoding, so the
// local and authoritative paths share one wire shape.
type HTTPCalculator struct {
	// BaseURL of the calculation service, without trailing slash.
	BaseURL string

	// Client defaults to a 15s-timeout client when nil.
	Client *http.Client
}

func (h *HTTPCalculator) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

// Calculate posts the request to the remote preview endpoint and decodes
// the authoritative result.
func (h *HTTPCalculator) Calculate(ctx context.Context, req deadline.PreviewRequest) (*deadline.PreviewResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/api/v1/preview", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client().Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calculation service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calculation service returned status %d", resp.StatusCode)
	}

	var result remoteResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode calculation response: %w", err)
	}

	return result.toPreviewResult(), nil
}

// remoteResult mirrors PreviewResult with warnings as the plain strings
// the service emits.
type remoteResult struct {
	Deadlines    []deadline.GeneratedDeadline `json:"deadlines"`
	Warnings     []string                     `json:"warnings"`
	TotalCount   int                          `json:"totalCount"`
	HiddenCount  int                          `json:"hiddenCount"`
	OverdueCount int                          `json:"overdueCount"`
}

func (r *remoteResult) toPreviewResult() *deadline.PreviewResult {
	warnings := make([]deadline.Warning, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		warnings = append(warnings, deadline.Warning{Detail: w})
	}
	return &deadline.PreviewResult{
		Deadlines:    r.Deadlines,
		Warnings:     warnings,
		TotalCount:   r.TotalCount,
		HiddenCount:  r.HiddenCount,
		OverdueCount: r.OverdueCount,
	}
}
