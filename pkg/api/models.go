package api

import (
	"github.com/gofrs/uuid"

	"moderation/pkg/moderation"
)

type ModerationResponse struct {
	ReviewID uuid.UUID          `json:"review_id"`
	Verdict  moderation.Verdict `json:"verdict"`
}

type CleanTextRequest struct {
	Text *string `json:"text"`
}

type CleanTextResponse struct {
	Text string `json:"text"`
}
