package session

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirasaad/fxconvert/pkg/domain"
	"github.com/amirasaad/fxconvert/pkg/service/converter"
	"github.com/amirasaad/fxconvert/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// heartbeatInterval bounds how long a disconnected event stream goes unnoticed.
const heartbeatInterval = 15 * time.Second

// Routes registers the conversion session endpoints.
func Routes(app *fiber.App, manager *converter.Manager) {
	sessions := app.Group("/api/sessions")
	sessions.Post("/", CreateSession(manager))
	sessions.Get("/:id", GetSession(manager))
	sessions.Put("/:id/amount", SetAmount(manager))
	sessions.Put("/:id/currency", SelectCurrency(manager))
	sessions.Post("/:id/refresh", Refresh(manager))
	sessions.Delete("/:id", DeleteSession(manager))
	sessions.Get("/:id/events", StreamEvents(manager))
}

func lookup(c *fiber.Ctx, manager *converter.Manager) (*converter.Session, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, c.Params("id"))
	}
	return manager.Get(id)
}

// CreateSession starts a session and its first load.
// @Summary Create a conversion session
// @Tags sessions
// @Produce json
// @Success 201 {object} common.Response
// @Router /api/sessions [post]
func CreateSession(manager *converter.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := manager.Create()
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create session", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Session created", s.Snapshot())
	}
}

// GetSession returns the current snapshot.
// @Summary Get a conversion session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /api/sessions/{id} [get]
func GetSession(manager *converter.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := lookup(c, manager)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Session not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Session fetched", s.Snapshot())
	}
}

// SetAmount changes the amount to convert.
// @Summary Set the session amount
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body AmountRequest true "Amount"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Router /api/sessions/{id}/amount [put]
func SetAmount(manager *converter.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := lookup(c, manager)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Session not found", err)
		}
		input, err := common.BindAndValidate[AmountRequest](c)
		if err != nil {
			return nil // error response already written
		}
		if err := s.SetAmount(*input.Amount); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Amount updated", s.Snapshot())
	}
}

// SelectCurrency changes the currency the amount is given in.
// @Summary Select the session currency
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body CurrencyRequest true "Currency"
// @Success 200 {object} common.Response
// @Failure 400 {object} common.ProblemDetails
// @Failure 404 {object} common.ProblemDetails
// @Failure 422 {object} common.ProblemDetails
// @Router /api/sessions/{id}/currency [put]
func SelectCurrency(manager *converter.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := lookup(c, manager)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Session not found", err)
		}
		input, err := common.BindAndValidate[CurrencyRequest](c)
		if err != nil {
			return nil // error response already written
		}
		if err := s.SelectCurrency(input.Code); err != nil {
			return common.ProblemDetailsJSON(c, "Invalid currency", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currency selected", s.Snapshot())
	}
}

// Refresh triggers a new load. It returns before the load completes.
// @Summary Refresh session rates
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 202 {object} common.Response
// @Failure 404 {object} common.ProblemDetails
// @Router /api/sessions/{id}/refresh [post]
func Refresh(manager *converter.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := lookup(c, manager)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Session not found", err)
		}
		s.Load()
		return common.SuccessResponseJSON(c, fiber.StatusAccepted, "Refresh started", s.Snapshot())
	}
}

// DeleteSession closes a session.
// @Summary Close a conversion session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} common.ProblemDetails
// @Router /api/sessions/{id} [delete]
func DeleteSession(manager *converter.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Session not found", domain.ErrSessionNotFound)
		}
		if err := manager.Delete(id); err != nil {
			return common.ProblemDetailsJSON(c, "Session not found", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// StreamEvents streams snapshots as server-sent events until the session
// closes or the client goes away.
// @Summary Stream session snapshots
// @Tags sessions
// @Produce text/event-stream
// @Param id path string true "Session ID"
// @Success 200
// @Failure 404 {object} common.ProblemDetails
// @Router /api/sessions/{id}/events [get]
func StreamEvents(manager *converter.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := lookup(c, manager)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Session not found", err)
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			snapshots := s.Subscribe(ctx)

			ticker := time.NewTicker(heartbeatInterval)
			defer ticker.Stop()
			for {
				select {
				case snap, ok := <-snapshots:
					if !ok {
						return
					}
					if err := writeEvent(w, snap); err != nil {
						return
					}
				case <-ticker.C:
					if _, err := w.WriteString(": ping\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				}
			}
		})
		return nil
	}
}

func writeEvent(w *bufio.Writer, snap converter.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
