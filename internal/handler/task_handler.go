package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/edusphere-dev/groupwork-api/internal/dto"
	"github.com/edusphere-dev/groupwork-api/internal/service"
	"github.com/edusphere-dev/groupwork-api/internal/utils"
)

// TaskHandler serves task views and the submission lifecycle endpoints.
type TaskHandler struct {
	views       service.TaskViewService
	submissions service.SubmissionService
	feedback    service.FeedbackService
	logger      zerolog.Logger
}

// NewTaskHandler builds a task handler instance.
func NewTaskHandler(views service.TaskViewService, submissions service.SubmissionService, feedback service.FeedbackService, logger zerolog.Logger) *TaskHandler {
	return &TaskHandler{
		views:       views,
		submissions: submissions,
		feedback:    feedback,
		logger:      logger.With().Str("component", "task_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *TaskHandler) Register(router fiber.Router) {
	router.Get("/tasks/:id/view", h.taskView)
	router.Get("/tasks/:id/latest-status", h.latestStatus)
	router.Get("/phases/:id/tasks", h.phaseTasks)
	router.Post("/tasks/:id/submissions", h.createSubmission)
	router.Post("/tasks/:id/revisions", h.createRevision)
	router.Post("/submissions/:id/review", h.review)
	router.Post("/submissions/:id/feedback", h.createFeedback)
	router.Get("/submissions/:id/feedback", h.listFeedback)
}

func (h *TaskHandler) taskView(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	studentID := userIDFromContext(c)
	if override, err := parseQueryUint(c, "student_id"); err == nil && override != nil {
		studentID = *override
	}

	view, err := h.views.GetTaskView(c.Context(), taskID, studentID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "task view retrieved", view)
}

func (h *TaskHandler) latestStatus(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.views.GetLatestStatus(c.Context(), taskID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "latest status retrieved", status)
}

func (h *TaskHandler) phaseTasks(c *fiber.Ctx) error {
	phaseID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	views, err := h.views.ListPhaseTaskViews(c.Context(), phaseID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "phase tasks retrieved", views)
}

func (h *TaskHandler) createSubmission(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.CreateSubmission(c.Context(), taskID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "submission created", submission)
}

func (h *TaskHandler) createRevision(c *fiber.Ctx) error {
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RevisionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	revision, err := h.submissions.CreateRevision(c.Context(), taskID, userIDFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "revision created", revision)
}

func (h *TaskHandler) review(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	reviewed, err := h.submissions.Review(c.Context(), submissionID, activityActorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission reviewed", reviewed)
}

func (h *TaskHandler) createFeedback(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FeedbackCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	feedback, err := h.feedback.Create(c.Context(), submissionID, activityActorFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "feedback recorded", feedback)
}

func (h *TaskHandler) listFeedback(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	feedback, err := h.feedback.ListBySubmission(c.Context(), submissionID, c.Query("kind"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback retrieved", feedback)
}

func (h *TaskHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrFeedbackTargetNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrTaskInactive):
		return utils.SendError(c, fiber.StatusConflict, "task is not active")
	case errors.Is(err, service.ErrAttemptsExhausted):
		return utils.SendError(c, fiber.StatusConflict, "maximum attempts reached")
	case errors.Is(err, service.ErrAlreadyReviewed):
		return utils.SendError(c, fiber.StatusConflict, "submission has already been reviewed")
	case errors.Is(err, service.ErrNotAssignee):
		return utils.SendError(c, fiber.StatusForbidden, "task is assigned to a different student")
	case errors.Is(err, service.ErrOriginalMismatch):
		return utils.SendError(c, fiber.StatusBadRequest, "original submission does not belong to this task and student")
	case errors.As(err, &validationErrors):
		return utils.SendErrorWithDetails(c, fiber.StatusBadRequest, "validation failed", validationFieldErrors(validationErrors))
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
