package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"peer-match/internal/database"
	"peer-match/internal/domain/profile"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `
	user_id,
	who_you_are_raw, who_you_are_expanded, COALESCE(who_you_are_embedding, 'null'::jsonb), who_you_are_updated_at,
	looking_for_raw, looking_for_expanded, COALESCE(looking_for_embedding, 'null'::jsonb), looking_for_updated_at,
	mentoring_subjects_raw, mentoring_subjects_expanded, COALESCE(mentoring_subjects_embedding, 'null'::jsonb), mentoring_subjects_updated_at,
	professional_services_raw, professional_services_expanded, COALESCE(professional_services_embedding, 'null'::jsonb), professional_services_updated_at,
	is_online, last_seen, is_available_for_chat, visibility,
	cached_matches, created_at, updated_at`

// candidate pool: available for chat with both required slots filled.
const candidateFilter = `
	is_available_for_chat
	AND btrim(who_you_are_raw) <> ''
	AND btrim(looking_for_raw) <> ''`

type ProfileRepository struct {
	db database.DB
}

func NewProfileRepository(db database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	row := r.db.QueryRow(
		ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`,
		userID,
	)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	matches, err := marshalMatches(p.CachedMatches)
	if err != nil {
		return err
	}

	embeddings := make([][]byte, 0, len(profile.AllSlots))
	for _, s := range profile.AllSlots {
		b, err := marshalEmbedding(p.Field(s).Embedding)
		if err != nil {
			return err
		}
		embeddings = append(embeddings, b)
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO profiles (
			user_id,
			who_you_are_raw, who_you_are_expanded, who_you_are_embedding, who_you_are_updated_at,
			looking_for_raw, looking_for_expanded, looking_for_embedding, looking_for_updated_at,
			mentoring_subjects_raw, mentoring_subjects_expanded, mentoring_subjects_embedding, mentoring_subjects_updated_at,
			professional_services_raw, professional_services_expanded, professional_services_embedding, professional_services_updated_at,
			is_online, last_seen, is_available_for_chat, visibility, cached_matches
		) VALUES (
			$1,
			$2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13,
			$14, $15, $16, $17,
			$18, $19, $20, $21, $22
		)
		ON CONFLICT (user_id) DO UPDATE SET
			who_you_are_raw = EXCLUDED.who_you_are_raw,
			who_you_are_expanded = EXCLUDED.who_you_are_expanded,
			who_you_are_embedding = EXCLUDED.who_you_are_embedding,
			who_you_are_updated_at = EXCLUDED.who_you_are_updated_at,
			looking_for_raw = EXCLUDED.looking_for_raw,
			looking_for_expanded = EXCLUDED.looking_for_expanded,
			looking_for_embedding = EXCLUDED.looking_for_embedding,
			looking_for_updated_at = EXCLUDED.looking_for_updated_at,
			mentoring_subjects_raw = EXCLUDED.mentoring_subjects_raw,
			mentoring_subjects_expanded = EXCLUDED.mentoring_subjects_expanded,
			mentoring_subjects_embedding = EXCLUDED.mentoring_subjects_embedding,
			mentoring_subjects_updated_at = EXCLUDED.mentoring_subjects_updated_at,
			professional_services_raw = EXCLUDED.professional_services_raw,
			professional_services_expanded = EXCLUDED.professional_services_expanded,
			professional_services_embedding = EXCLUDED.professional_services_embedding,
			professional_services_updated_at = EXCLUDED.professional_services_updated_at,
			is_online = EXCLUDED.is_online,
			last_seen = EXCLUDED.last_seen,
			is_available_for_chat = EXCLUDED.is_available_for_chat,
			visibility = EXCLUDED.visibility,
			cached_matches = EXCLUDED.cached_matches,
			updated_at = now()`,
		p.UserID,
		p.WhoYouAre.RawText, p.WhoYouAre.ExpandedText, embeddings[0], orNow(p.WhoYouAre.LastUpdated),
		p.WhoYouAreLookingFor.RawText, p.WhoYouAreLookingFor.ExpandedText, embeddings[1], orNow(p.WhoYouAreLookingFor.LastUpdated),
		p.MentoringSubjects.RawText, p.MentoringSubjects.ExpandedText, embeddings[2], orNow(p.MentoringSubjects.LastUpdated),
		p.ProfessionalServices.RawText, p.ProfessionalServices.ExpandedText, embeddings[3], orNow(p.ProfessionalServices.LastUpdated),
		p.IsOnline, orNow(p.LastSeen), p.IsAvailableForChat, string(p.Visibility), matches,
	)
	return err
}

func (r *ProfileRepository) UpdateStatus(ctx context.Context, userID uuid.UUID, isOnline, isAvailableForChat bool, lastSeen time.Time) error {
	affected, err := r.db.Exec(
		ctx,
		`UPDATE profiles
		SET is_online = $2, is_available_for_chat = $3, last_seen = $4, updated_at = now()
		WHERE user_id = $1`,
		userID, isOnline, isAvailableForChat, lastSeen,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) UpdateCachedMatches(ctx context.Context, userID uuid.UUID, matches []profile.CachedMatch) error {
	b, err := marshalMatches(matches)
	if err != nil {
		return err
	}
	affected, err := r.db.Exec(
		ctx,
		`UPDATE profiles SET cached_matches = $2, updated_at = now() WHERE user_id = $1`,
		userID, b,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return profile.ErrNotFound
	}
	return nil
}

func (r *ProfileRepository) FindCandidates(ctx context.Context, excludeUserID uuid.UUID) ([]*profile.Profile, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT `+profileColumns+` FROM profiles
		WHERE user_id <> $1 AND `+candidateFilter+`
		ORDER BY created_at`,
		excludeUserID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (r *ProfileRepository) FindActive(ctx context.Context, excludeUserID uuid.UUID, limit int) ([]*profile.Profile, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(
		ctx,
		`SELECT `+profileColumns+` FROM profiles
		WHERE user_id <> $1 AND is_online AND is_available_for_chat
		ORDER BY last_seen DESC
		LIMIT $2`,
		excludeUserID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProfiles(rows)
}

func (r *ProfileRepository) FindRecentlyActive(ctx context.Context, excludeUserID uuid.UUID, since time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT user_id FROM profiles
		WHERE user_id <> $1 AND is_available_for_chat AND last_seen >= $2
		ORDER BY last_seen DESC`,
		excludeUserID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type profileRow interface {
	Scan(dest ...any) error
}

func scanProfile(row profileRow) (*profile.Profile, error) {
	var (
		p          profile.Profile
		visibility string
		embeddings [4][]byte
		matches    []byte
	)

	err := row.Scan(
		&p.UserID,
		&p.WhoYouAre.RawText, &p.WhoYouAre.ExpandedText, &embeddings[0], &p.WhoYouAre.LastUpdated,
		&p.WhoYouAreLookingFor.RawText, &p.WhoYouAreLookingFor.ExpandedText, &embeddings[1], &p.WhoYouAreLookingFor.LastUpdated,
		&p.MentoringSubjects.RawText, &p.MentoringSubjects.ExpandedText, &embeddings[2], &p.MentoringSubjects.LastUpdated,
		&p.ProfessionalServices.RawText, &p.ProfessionalServices.ExpandedText, &embeddings[3], &p.ProfessionalServices.LastUpdated,
		&p.IsOnline, &p.LastSeen, &p.IsAvailableForChat, &visibility,
		&matches, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Visibility = profile.Visibility(visibility)

	for i, s := range profile.AllSlots {
		if err := json.Unmarshal(embeddings[i], &p.Field(s).Embedding); err != nil {
			return nil, err
		}
	}
	if len(matches) > 0 {
		if err := json.Unmarshal(matches, &p.CachedMatches); err != nil {
			return nil, err
		}
	}

	return &p, nil
}

func collectProfiles(rows database.Rows) ([]*profile.Profile, error) {
	out := make([]*profile.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func marshalEmbedding(v []float64) ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func marshalMatches(m []profile.CachedMatch) ([]byte, error) {
	if m == nil {
		m = []profile.CachedMatch{}
	}
	return json.Marshal(m)
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
