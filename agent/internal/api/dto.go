package api

import (
	"focus-guard/agent/internal/bypass"
	"focus-guard/agent/internal/models"
	"focus-guard/agent/internal/service"
)

type CheckRequest struct {
	Hostname string `json:"hostname"`
}

type DecisionResponse struct {
	Allowed   bool             `json:"allowed"`
	Path      string           `json:"path,omitempty"`
	BlockType models.BlockType `json:"blockType,omitempty"`
}

type CheckResponse struct {
	Hostname    string             `json:"hostname"`
	Gated       bool               `json:"gated"`
	Platform    models.Platform    `json:"platform,omitempty"`
	Category    models.CategoryKey `json:"category,omitempty"`
	Decision    DecisionResponse   `json:"decision"`
	RedirectURL string             `json:"redirectUrl,omitempty"`
}

func newCheckResponse(r service.CheckResult) CheckResponse {
	return CheckResponse{
		Hostname: r.Hostname,
		Gated:    r.Gated,
		Platform: r.Platform,
		Category: r.Category,
		Decision: DecisionResponse{
			Allowed:   r.Decision.Allowed,
			Path:      string(r.Decision.Path),
			BlockType: r.Decision.BlockType,
		},
		RedirectURL: r.RedirectURL,
	}
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

type ReasonResponse struct {
	Accepted bool          `json:"accepted"`
	Bypass   bypass.Status `json:"bypass"`
}

type ReasonCheckResponse struct {
	Acceptable bool   `json:"acceptable"`
	Problem    string `json:"problem,omitempty"`
}

type RedirectResponse struct {
	URL string `json:"url"`
}

type PatchRequest struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Value    any    `json:"value"`
}

type ResetVisitsRequest struct {
	Platforms []models.Platform `json:"platforms"`
}

type StatsResponse struct {
	Window     string                  `json:"window"`
	Total      int                     `json:"total"`
	ByAction   map[models.Action]int   `json:"byAction"`
	ByPlatform map[models.Platform]int `json:"byPlatform"`
	Reasons    int                     `json:"reasons"`
}
