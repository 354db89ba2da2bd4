package dto

import (
	"time"

	"github.com/google/uuid"
)

type MatchResponse struct {
	PeerUserID uuid.UUID `json:"peer_user_id"`
	Similarity float64   `json:"similarity"`
	MatchType  string    `json:"match_type"`
	Reasons    []string  `json:"reasons,omitempty"`
	ComputedAt time.Time `json:"computed_at"`
}

type ActiveUserResponse struct {
	UserID             uuid.UUID `json:"user_id"`
	IsOnline           bool      `json:"is_online"`
	IsAvailableForChat bool      `json:"is_available_for_chat"`
	LastSeen           time.Time `json:"last_seen"`
	Visibility         string    `json:"visibility"`
}
