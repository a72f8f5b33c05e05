package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edusphere-dev/groupwork-api/internal/dto"
	"github.com/edusphere-dev/groupwork-api/internal/repository"
	"github.com/edusphere-dev/groupwork-api/internal/service"
	"github.com/edusphere-dev/groupwork-api/internal/utils"
)

// FreezeHandler exposes the grading freeze endpoints for group leaders.
type FreezeHandler struct {
	service   service.FreezeService
	activity  service.ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewFreezeHandler builds a freeze handler instance.
func NewFreezeHandler(service service.FreezeService, activity service.ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) *FreezeHandler {
	return &FreezeHandler{
		service:   service,
		activity:  activity,
		validator: validator,
		logger:    logger.With().Str("component", "freeze_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *FreezeHandler) Register(router fiber.Router) {
	router.Post("/projects/:id/freeze", h.freezeProject)
	router.Post("/phases/:id/freeze", h.freezePhase)
	router.Get("/phases/:id/frozen", h.listFrozen)
	router.Get("/activity", h.listActivity)
}

func (h *FreezeHandler) freezeProject(c *fiber.Ctx) error {
	projectID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload, err := h.parseFreezeRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.FreezeProject(c.Context(), projectID, payload.GroupID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "project submissions frozen", report)
}

func (h *FreezeHandler) freezePhase(c *fiber.Ctx) error {
	phaseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload, err := h.parseFreezeRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.FreezePhase(c.Context(), phaseID, payload.GroupID, userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "phase submissions frozen", report)
}

func (h *FreezeHandler) listFrozen(c *fiber.Ctx) error {
	phaseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	groupID, err := parseQueryUint(c, "group_id")
	if err != nil || groupID == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "group_id query parameter is required")
	}

	records, err := h.service.ListFrozen(c.Context(), phaseID, *groupID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "frozen submissions retrieved", records)
}

func (h *FreezeHandler) listActivity(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size")
	}

	filter := repository.ActivityLogFilter{
		Page:       page,
		PageSize:   pageSize,
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	if entityID, err := parseQueryUint(c, "entity_id"); err == nil && entityID != nil {
		filter.EntityID = entityID
	}

	entries, total, err := h.activity.ListRecent(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "activity retrieved", fiber.Map{
		"entries": dto.NewActivityLogResponseSlice(entries),
		"total":   total,
	})
}

func (h *FreezeHandler) parseFreezeRequest(c *fiber.Ctx) (dto.FreezeRequest, error) {
	var payload dto.FreezeRequest
	if err := c.BodyParser(&payload); err != nil {
		return dto.FreezeRequest{}, errors.New("invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return dto.FreezeRequest{}, err
	}
	return payload, nil
}

func (h *FreezeHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrProjectHasNoPhases):
		return utils.SendError(c, fiber.StatusNotFound, "project has no phases")
	case errors.As(err, &validationErrors):
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "validation failed", validationFieldErrors(validationErrors))
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
