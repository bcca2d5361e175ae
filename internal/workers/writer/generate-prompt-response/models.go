// internal/workers/writer/generate-prompt-response/models.go
package generatepromptresponse

import "iq-bot/internal/models"

// Input selects one record (templateId and promptId) or every record of a
// template (templateId only).
type Input struct {
	TemplateID string `json:"templateId"`
	PromptID   string `json:"promptId,omitempty"`
}

type Output struct {
	Response  *models.GeneratedResponse `json:"response,omitempty"`
	Results   []models.ResponseResult   `json:"results,omitempty"`
	Generated int                       `json:"generated"`
	Cached    int                       `json:"cached"`
	Failed    int                       `json:"failed"`
}
