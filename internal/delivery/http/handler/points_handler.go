package handler

import (
	"errors"
	"time"

	"trailstatus/internal/delivery/http/middleware"
	"trailstatus/internal/infrastructure/cache"
	"trailstatus/internal/pkg/response"
	"trailstatus/internal/repository"
	"trailstatus/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type PointResponse struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Latitude  *float64             `json:"latitude,omitempty"`
	Longitude *float64             `json:"longitude,omitempty"`
	Sources   []PointSourceSummary `json:"sources"`
}

type PointSourceSummary struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Label string `json:"label,omitempty"`
}

type PointsHandler struct {
	points repository.PointRepository
	uc     *usecase.ConditionsUsecase
	cache  *cache.Redis
}

func NewPointsHandler(points repository.PointRepository, uc *usecase.ConditionsUsecase, c *cache.Redis) *PointsHandler {
	return &PointsHandler{points: points, uc: uc, cache: c}
}

func (h *PointsHandler) HandleListPoints(c fiber.Ctx) error {
	var cached []PointResponse
	if ok, err := h.cache.GetJSON(c.Context(), cache.PointListKey, &cached); err == nil && ok {
		return response.Success(c, fiber.StatusOK, "success", cached)
	}

	points, err := h.points.ListPoints(c.Context(), 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusInternalServerError, "", nil, err)
	}

	out := make([]PointResponse, 0, len(points))
	for _, p := range points {
		sources := make([]PointSourceSummary, 0, len(p.Sources))
		for _, s := range p.Sources {
			sources = append(sources, PointSourceSummary{
				ID:    s.ID.String(),
				Kind:  string(s.Kind),
				Label: s.Label,
			})
		}
		out = append(out, PointResponse{
			ID:        p.ID.String(),
			Name:      p.Name,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Sources:   sources,
		})
	}

	_ = h.cache.SetJSON(c.Context(), cache.PointListKey, out, 5*time.Minute)

	return response.Success(c, fiber.StatusOK, "success", out)
}

func (h *PointsHandler) HandleGetConditions(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid point id", nil, err)
	}

	conditions, err := h.uc.GetConditions(c.Context(), id)
	if err != nil {
		return mapConditionsError(err)
	}

	return response.Success(c, fiber.StatusOK, "success", conditions)
}

func (h *PointsHandler) HandleForceRefresh(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid point id", nil, err)
	}

	conditions, err := h.uc.ForceRefresh(c.Context(), id)
	if err != nil {
		return mapConditionsError(err)
	}

	return response.Success(c, fiber.StatusOK, "refreshed", conditions)
}

func mapConditionsError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return middleware.NewAppError(fiber.StatusNotFound, "point not found", nil, err)
	}
	return middleware.NewAppError(fiber.StatusInternalServerError, "", nil, err)
}
