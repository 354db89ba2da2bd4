package handler

import (
	"errors"

	"peer-match/internal/delivery/http/dto"
	"peer-match/internal/delivery/http/middleware"
	"peer-match/internal/domain/profile"
	"peer-match/internal/pkg/response"
	"peer-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type ProfileHandler struct {
	uc usecase.ProfileUsecase
}

type updateProfileRequest struct {
	WhoYouAre            *string `json:"who_you_are"`
	WhoYouAreLookingFor  *string `json:"who_you_are_looking_for"`
	MentoringSubjects    *string `json:"mentoring_subjects"`
	ProfessionalServices *string `json:"professional_services"`
}

type updateStatusRequest struct {
	IsOnline           *bool `json:"is_online"`
	IsAvailableForChat *bool `json:"is_available_for_chat"`
}

func NewProfileHandler(uc usecase.ProfileUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/profile", h.Get)
	r.Put("/profile", h.Update)
	r.Post("/reprocess-profile", h.Reprocess)
	r.Put("/status", h.UpdateStatus)
}

func (h *ProfileHandler) Get(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	p, err := h.uc.GetProfile(c.Context(), userID)
	if err != nil {
		return mapProfileUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, toProfileResponse(p))
}

func (h *ProfileHandler) Update(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req updateProfileRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	edits := map[profile.Slot]string{}
	if req.WhoYouAre != nil {
		edits[profile.SlotWhoYouAre] = *req.WhoYouAre
	}
	if req.WhoYouAreLookingFor != nil {
		edits[profile.SlotWhoYouAreLookingFor] = *req.WhoYouAreLookingFor
	}
	if req.MentoringSubjects != nil {
		edits[profile.SlotMentoringSubjects] = *req.MentoringSubjects
	}
	if req.ProfessionalServices != nil {
		edits[profile.SlotProfessionalServices] = *req.ProfessionalServices
	}
	if len(edits) == 0 {
		return middleware.NewAppError(fiber.StatusBadRequest, "No profile fields provided", nil, nil)
	}

	p, err := h.uc.ApplyEdits(c.Context(), userID, edits)
	if err != nil {
		return mapProfileUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, toProfileResponse(p))
}

func (h *ProfileHandler) Reprocess(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	p, err := h.uc.Reprocess(c.Context(), userID)
	if err != nil {
		return mapProfileUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, toProfileResponse(p))
}

func (h *ProfileHandler) UpdateStatus(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	var req updateStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	if req.IsOnline == nil || req.IsAvailableForChat == nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "is_online and is_available_for_chat are required", nil, nil)
	}

	if err := h.uc.UpdateStatus(c.Context(), userID, *req.IsOnline, *req.IsAvailableForChat); err != nil {
		return mapProfileUsecaseError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func toProfileResponse(p *profile.Profile) dto.ProfileResponse {
	return dto.ProfileResponse{
		UserID:               p.UserID,
		WhoYouAre:            toFieldResponse(p.WhoYouAre),
		WhoYouAreLookingFor:  toFieldResponse(p.WhoYouAreLookingFor),
		MentoringSubjects:    toFieldResponse(p.MentoringSubjects),
		ProfessionalServices: toFieldResponse(p.ProfessionalServices),
		IsOnline:             p.IsOnline,
		LastSeen:             p.LastSeen,
		IsAvailableForChat:   p.IsAvailableForChat,
		Visibility:           string(p.Visibility),
		IsComplete:           p.IsComplete(),
	}
}

func toFieldResponse(f profile.Field) dto.ProfileFieldResponse {
	out := dto.ProfileFieldResponse{
		RawText:      f.RawText,
		ExpandedText: f.ExpandedText,
		HasEmbedding: len(f.Embedding) > 0,
	}
	if !f.LastUpdated.IsZero() {
		t := f.LastUpdated
		out.LastUpdated = &t
	}
	return out
}

func mapProfileUsecaseError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
