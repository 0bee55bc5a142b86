package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/julianstephens/habitkeep/internal/constants"
	"github.com/julianstephens/habitkeep/internal/logger"
	"github.com/julianstephens/habitkeep/internal/models"
	"github.com/julianstephens/habitkeep/internal/storage"
	"github.com/julianstephens/habitkeep/internal/streak"
	"github.com/julianstephens/habitkeep/internal/validation"
)

// HealthStatus is the /healthz payload.
type HealthStatus struct {
	Status   string `json:"status"`
	Today    string `json:"today"`
	Timezone string `json:"timezone"`
	Version  string `json:"version"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return Success(c, fiber.StatusOK, HealthStatus{
		Status:   "ok",
		Today:    s.today(),
		Timezone: s.loc.String(),
		Version:  constants.Version,
	})
}

// reconcile recomputes the cached streak against the server's today and
// repairs the stored value when it drifted.
func (s *Server) reconcile(ctx context.Context, h models.Habit) models.Habit {
	fixed, err := streak.Reconcile(h, s.today())
	var drift *streak.InconsistentStateError
	if errors.As(err, &drift) {
		logger.Warn("Repairing stored streak", "habit", h.ID, "stored", drift.Stored, "computed", drift.Computed)
		if err := s.store.SetCurrentStreak(ctx, h.ID, drift.Computed); err != nil {
			logger.Error("Failed to repair stored streak", "habit", h.ID, "error", err)
		}
	}
	return fixed
}

func (s *Server) reconcileAll(ctx context.Context, habits []models.Habit) []models.Habit {
	out := make([]models.Habit, 0, len(habits))
	for _, h := range habits {
		out = append(out, s.reconcile(ctx, h))
	}
	return out
}

func isOwner(claims *Claims, h models.Habit) bool {
	return claims != nil && strings.EqualFold(claims.Email, h.OwnerEmail)
}

// fail maps domain errors onto HTTP responses.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	var problems validation.Problems
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NotFound(c, "habit not found")
	case errors.Is(err, streak.ErrAlreadyCompleted), errors.Is(err, storage.ErrAlreadyCompleted):
		return Error(c, fiber.StatusConflict, CodeAlreadyCompleted, "already completed today")
	case errors.As(err, &problems):
		return ValidationError(c, problems.Fields())
	case errors.Is(err, streak.ErrInvalidDate):
		return Error(c, fiber.StatusUnprocessableEntity, CodeValidation, err.Error())
	default:
		logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return Error(c, fiber.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

func (s *Server) listPublic(c *fiber.Ctx) error {
	filter := models.HabitFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Limit:    c.QueryInt("limit", 0),
	}
	if filter.Category != "" && filter.Category != constants.CategoryAll && !validation.IsCategory(filter.Category) {
		return BadRequest(c, "unknown category "+filter.Category)
	}

	habits, err := s.store.ListPublicHabits(c.UserContext(), filter)
	if err != nil {
		return s.fail(c, err)
	}
	return Success(c, fiber.StatusOK, s.reconcileAll(c.UserContext(), habits))
}

func (s *Server) listByOwner(c *fiber.Ctx) error {
	email := c.Params("email")
	claims := ClaimsFrom(c)
	if !strings.EqualFold(claims.Email, email) {
		return Forbidden(c, "habits can only be listed by their owner")
	}

	habits, err := s.store.ListHabitsByOwner(c.UserContext(), claims.Email, c.QueryBool("deleted", false))
	if err != nil {
		return s.fail(c, err)
	}
	return Success(c, fiber.StatusOK, s.reconcileAll(c.UserContext(), habits))
}

func (s *Server) getHabit(c *fiber.Ctx) error {
	h, err := s.store.GetHabit(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	// Private habits are invisible to everyone but their owner.
	if !h.IsPublic && !isOwner(ClaimsFrom(c), h) {
		return NotFound(c, "habit not found")
	}
	return Success(c, fiber.StatusOK, s.reconcile(c.UserContext(), h))
}

func (s *Server) createHabit(c *fiber.Ctx) error {
	var in models.HabitInput
	if err := c.BodyParser(&in); err != nil {
		return BadRequest(c, "invalid request body")
	}
	in.Title = strings.TrimSpace(in.Title)
	if problems := validation.ValidateInput(in); len(problems) > 0 {
		return s.fail(c, problems)
	}

	claims := ClaimsFrom(c)
	now := s.clock.Now().UTC()
	h := models.Habit{
		ID:                uuid.NewString(),
		OwnerEmail:        claims.Email,
		OwnerName:         claims.Name,
		IsPublic:          true,
		CompletionHistory: []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	in.Apply(&h)

	if err := s.store.AddHabit(c.UserContext(), h); err != nil {
		return s.fail(c, err)
	}
	logger.Info("Created habit", "habit", h.ID, "owner", h.OwnerEmail)
	return Success(c, fiber.StatusCreated, h)
}

// ownedHabit loads the :id habit and checks that the caller owns it. When ok
// is false the response has been written and err is the send result.
func (s *Server) ownedHabit(c *fiber.Ctx) (h models.Habit, ok bool, err error) {
	h, err = s.store.GetHabit(c.UserContext(), c.Params("id"))
	if err != nil {
		return models.Habit{}, false, s.fail(c, err)
	}
	if !isOwner(ClaimsFrom(c), h) {
		return models.Habit{}, false, Forbidden(c, "only the owner can modify this habit")
	}
	return h, true, nil
}

// updateHabit edits display fields. Completion history is not writable here.
func (s *Server) updateHabit(c *fiber.Ctx) error {
	h, ok, err := s.ownedHabit(c)
	if !ok {
		return err
	}

	var in models.HabitInput
	if err := c.BodyParser(&in); err != nil {
		return BadRequest(c, "invalid request body")
	}
	in.Title = strings.TrimSpace(in.Title)
	if problems := validation.ValidateInput(in); len(problems) > 0 {
		return s.fail(c, problems)
	}

	in.Apply(&h)
	if err := s.store.UpdateHabit(c.UserContext(), h); err != nil {
		return s.fail(c, err)
	}

	updated, err := s.store.GetHabit(c.UserContext(), h.ID)
	if err != nil {
		return s.fail(c, err)
	}
	return Success(c, fiber.StatusOK, s.reconcile(c.UserContext(), updated))
}

func (s *Server) deleteHabit(c *fiber.Ctx) error {
	h, ok, err := s.ownedHabit(c)
	if !ok {
		return err
	}
	if err := s.store.DeleteHabit(c.UserContext(), h.ID); err != nil {
		return s.fail(c, err)
	}
	logger.Info("Deleted habit", "habit", h.ID)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) restoreHabit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	claims := ClaimsFrom(c)
	id := c.Params("id")

	habits, err := s.store.ListHabitsByOwner(ctx, claims.Email, true)
	if err != nil {
		return s.fail(c, err)
	}
	found := false
	for _, h := range habits {
		if h.ID == id {
			found = true
			break
		}
	}
	if !found {
		return NotFound(c, "habit not found")
	}

	if err := s.store.RestoreHabit(ctx, id); err != nil {
		return s.fail(c, err)
	}
	h, err := s.store.GetHabit(ctx, id)
	if err != nil {
		return s.fail(c, err)
	}
	return Success(c, fiber.StatusOK, s.reconcile(ctx, h))
}

// completeHabit records the server's today for the habit. The day is
// assigned here; a client-supplied date must match it.
func (s *Server) completeHabit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	h, ok, err := s.ownedHabit(c)
	if !ok {
		return err
	}

	today := s.today()
	var req models.CompletionRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return BadRequest(c, "invalid request body")
		}
	}
	if req.Date != "" {
		if err := validation.ValidateDay(req.Date); err != nil {
			return Error(c, fiber.StatusUnprocessableEntity, CodeValidation, err.Error())
		}
		if req.Date != today {
			return Error(c, fiber.StatusUnprocessableEntity, CodeDateMismatch,
				"completions can only be recorded for the server's current day",
				fiber.Map{"date": req.Date, "today": today})
		}
	}

	// Pre-check against the stored history; the unique index below is what
	// actually arbitrates concurrent requests.
	if _, err := streak.RecordCompletion(h, today); err != nil {
		return s.fail(c, err)
	}
	if err := s.store.AddCompletion(ctx, h.ID, today); err != nil {
		return s.fail(c, err)
	}

	history, err := s.store.GetCompletionHistory(ctx, h.ID)
	if err != nil {
		return s.fail(c, err)
	}
	h.CompletionHistory = history
	h.CurrentStreak = streak.Compute(history, today)
	if err := s.store.SetCurrentStreak(ctx, h.ID, h.CurrentStreak); err != nil {
		return s.fail(c, err)
	}

	logger.Info("Recorded completion", "habit", h.ID, "day", today, "streak", h.CurrentStreak)
	return Success(c, fiber.StatusOK, h)
}
