package dto

import (
	"time"

	"github.com/google/uuid"
)

// ProfileFieldResponse is the public view of one slot; embeddings are
// internal and only surfaced as a presence flag.
type ProfileFieldResponse struct {
	RawText      string     `json:"raw_text"`
	ExpandedText string     `json:"expanded_text"`
	HasEmbedding bool       `json:"has_embedding"`
	LastUpdated  *time.Time `json:"last_updated,omitempty"`
}

type ProfileResponse struct {
	UserID uuid.UUID `json:"user_id"`

	WhoYouAre            ProfileFieldResponse `json:"who_you_are"`
	WhoYouAreLookingFor  ProfileFieldResponse `json:"who_you_are_looking_for"`
	MentoringSubjects    ProfileFieldResponse `json:"mentoring_subjects"`
	ProfessionalServices ProfileFieldResponse `json:"professional_services"`

	IsOnline           bool      `json:"is_online"`
	LastSeen           time.Time `json:"last_seen"`
	IsAvailableForChat bool      `json:"is_available_for_chat"`
	Visibility         string    `json:"visibility"`
	IsComplete         bool      `json:"is_complete"`
}
