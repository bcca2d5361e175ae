// internal/workers/writer/initialize-prompts/models.go
package initializeprompts

import "iq-bot/internal/models"

// Input restricts initialization to the listed templates; empty means all.
type Input struct {
	TemplateIDs []string `json:"templateIds,omitempty"`
}

type Output struct {
	Summary models.InitSummary `json:"summary"`
	Sources []string           `json:"sources"`
}
