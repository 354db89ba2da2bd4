package matching

import (
	"sort"

	"github.com/google/uuid"
)

// Empirical tuning values carried over unchanged; they have no documented
// derivation, so treat them as configuration rather than truth.
const (
	SimilarityThreshold   = 0.6
	MutualThreshold       = 0.75
	OverlapThreshold      = 0.6
	ReasonGoodThreshold   = 0.7
	ReasonStrongThreshold = 0.8

	MaxMatches = 10

	maxReasons = 3
)

type MatchType string

const (
	MatchMutual   MatchType = "mutual"
	MatchSeeking  MatchType = "seeking"
	MatchOffering MatchType = "offering"
	MatchGeneral  MatchType = "general"
)

const (
	ReasonMutual         = "Strong mutual compatibility"
	ReasonSeeking        = "They match what you're looking for"
	ReasonOffering       = "You match what they're looking for"
	ReasonSubjects       = "Overlapping expertise areas"
	ReasonServices       = "Similar service offerings"
	ReasonSeekingStrong  = "Excellent fit for your learning goals"
	ReasonSeekingGood    = "Good match for your interests"
	ReasonOfferingStrong = "You're exactly what they need"
	ReasonOfferingGood   = "You could be very helpful to them"
)

// PairScores holds the four directional similarities between a subject and
// one candidate. Seeking is cosine(subject.lookingFor, candidate.whoYouAre)
// and Offering is cosine(subject.whoYouAre, candidate.lookingFor); Subjects
// and Services compare the same slot on both sides.
type PairScores struct {
	Seeking  float64
	Offering float64
	Subjects float64
	Services float64
}

type Classification struct {
	Type    MatchType
	Score   float64
	Reasons []string
}

// Classify resolves a match type and score from pairwise similarities.
// Mutual wins when both directions clear MutualThreshold; otherwise the
// stronger direction wins, with ties going to seeking. Subject and service
// overlap can raise the score but never change the type.
func Classify(s PairScores) Classification {
	c := Classification{Type: MatchGeneral}

	switch {
	case s.Seeking > MutualThreshold && s.Offering > MutualThreshold:
		c.Type = MatchMutual
		c.Score = (s.Seeking + s.Offering) / 2
		c.Reasons = append(c.Reasons, ReasonMutual)
	case s.Offering > s.Seeking:
		c.Type = MatchOffering
		c.Score = s.Offering
		c.Reasons = append(c.Reasons, ReasonOffering)
	case s.Seeking > 0:
		c.Type = MatchSeeking
		c.Score = s.Seeking
		c.Reasons = append(c.Reasons, ReasonSeeking)
	}

	if s.Subjects > OverlapThreshold {
		if s.Subjects > c.Score {
			c.Score = s.Subjects
		}
		c.Reasons = append(c.Reasons, ReasonSubjects)
	}
	if s.Services > OverlapThreshold {
		if s.Services > c.Score {
			c.Score = s.Services
		}
		c.Reasons = append(c.Reasons, ReasonServices)
	}

	if s.Seeking > ReasonStrongThreshold {
		c.Reasons = append(c.Reasons, ReasonSeekingStrong)
	} else if s.Seeking > ReasonGoodThreshold {
		c.Reasons = append(c.Reasons, ReasonSeekingGood)
	}
	if s.Offering > ReasonStrongThreshold {
		c.Reasons = append(c.Reasons, ReasonOfferingStrong)
	} else if s.Offering > ReasonGoodThreshold {
		c.Reasons = append(c.Reasons, ReasonOfferingGood)
	}

	if len(c.Reasons) > maxReasons {
		c.Reasons = c.Reasons[:maxReasons]
	}
	return c
}

// Entry pairs a candidate with its classification, in discovery order.
type Entry struct {
	PeerID uuid.UUID
	Classification
}

// Rank drops entries at or below SimilarityThreshold, sorts the survivors
// by score descending (stable, so ties keep discovery order) and caps the
// result at MaxMatches.
func Rank(entries []Entry) []Entry {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Score > SimilarityThreshold {
			kept = append(kept, e)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if len(kept) > MaxMatches {
		kept = kept[:MaxMatches]
	}
	return kept
}
