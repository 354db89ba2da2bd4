package handler

import (
	"errors"

	"peer-match/internal/delivery/http/dto"
	"peer-match/internal/delivery/http/middleware"
	"peer-match/internal/pkg/response"
	"peer-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MatchHandler struct {
	uc usecase.MatchingUsecase
}

func NewMatchHandler(uc usecase.MatchingUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/matches", h.GetMatches)
	r.Get("/active-users", h.GetActiveUsers)
}

func (h *MatchHandler) GetMatches(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	matches, err := h.uc.FindMatches(c.Context(), userID)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	out := make([]dto.MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, dto.MatchResponse{
			PeerUserID: m.PeerUserID,
			Similarity: m.Similarity,
			MatchType:  m.MatchType,
			Reasons:    m.Reasons,
			ComputedAt: m.ComputedAt,
		})
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func (h *MatchHandler) GetActiveUsers(c fiber.Ctx) error {
	userID, ok := c.Locals(middleware.CtxUserIDKey).(uuid.UUID)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	users, err := h.uc.GetActiveUsers(c.Context(), userID)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}

	out := make([]dto.ActiveUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.ActiveUserResponse{
			UserID:             u.UserID,
			IsOnline:           u.IsOnline,
			IsAvailableForChat: u.IsAvailableForChat,
			LastSeen:           u.LastSeen,
			Visibility:         string(u.Visibility),
		})
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func mapMatchingUsecaseError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
