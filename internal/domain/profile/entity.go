package profile

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("profile not found")

// Slot identifies one of the four semantic profile fields.
type Slot string

const (
	SlotWhoYouAre            Slot = "whoYouAre"
	SlotWhoYouAreLookingFor  Slot = "whoYouAreLookingFor"
	SlotMentoringSubjects    Slot = "mentoringSubjects"
	SlotProfessionalServices Slot = "professionalServices"
)

// AllSlots lists the slots in their canonical order.
var AllSlots = []Slot{
	SlotWhoYouAre,
	SlotWhoYouAreLookingFor,
	SlotMentoringSubjects,
	SlotProfessionalServices,
}

func ValidSlot(s Slot) bool {
	switch s {
	case SlotWhoYouAre, SlotWhoYouAreLookingFor, SlotMentoringSubjects, SlotProfessionalServices:
		return true
	default:
		return false
	}
}

type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityMatchedOnly Visibility = "matched_only"
	VisibilityPrivate     Visibility = "private"
)

// Field holds the raw text, AI-expanded text and embedding for one slot.
// Embedding is derived from ExpandedText; a RawText change leaves both
// stale until the next expansion pass.
type Field struct {
	RawText      string    `json:"raw_text"`
	ExpandedText string    `json:"expanded_text"`
	Embedding    []float64 `json:"embedding,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
}

// CachedMatch is one entry of a profile's cached match list, overwritten
// wholesale on each recomputation.
type CachedMatch struct {
	PeerUserID uuid.UUID `json:"peer_user_id"`
	Similarity float64   `json:"similarity"`
	MatchType  string    `json:"match_type"`
	Reasons    []string  `json:"reasons,omitempty"`
	ComputedAt time.Time `json:"computed_at"`
}

type Profile struct {
	UserID uuid.UUID

	WhoYouAre            Field
	WhoYouAreLookingFor  Field
	MentoringSubjects    Field
	ProfessionalServices Field

	IsOnline           bool
	LastSeen           time.Time
	IsAvailableForChat bool
	Visibility         Visibility

	CachedMatches []CachedMatch

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New returns an empty profile with default status flags, created lazily
// on first access for a user.
func New(userID uuid.UUID) *Profile {
	return &Profile{
		UserID:             userID,
		IsAvailableForChat: true,
		Visibility:         VisibilityPublic,
	}
}

// Field returns a pointer to the field backing the given slot, or nil for
// an unknown slot.
func (p *Profile) Field(s Slot) *Field {
	if p == nil {
		return nil
	}
	switch s {
	case SlotWhoYouAre:
		return &p.WhoYouAre
	case SlotWhoYouAreLookingFor:
		return &p.WhoYouAreLookingFor
	case SlotMentoringSubjects:
		return &p.MentoringSubjects
	case SlotProfessionalServices:
		return &p.ProfessionalServices
	default:
		return nil
	}
}

// IsComplete holds iff both whoYouAre and whoYouAreLookingFor have
// non-empty raw text after trimming. No other field is required.
func (p *Profile) IsComplete() bool {
	if p == nil {
		return false
	}
	return strings.TrimSpace(p.WhoYouAre.RawText) != "" &&
		strings.TrimSpace(p.WhoYouAreLookingFor.RawText) != ""
}
