package handler

import (
	"strings"
	"time"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/middleware"
	"go-retail-backoffice/internal/repository"
	"go-retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// actor reads the caller set by RequireAuth.
func actor(c *fiber.Ctx) service.Actor {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	name, _ := c.Locals(middleware.LocalUserName).(string)
	email, _ := c.Locals(middleware.LocalUserEmail).(string)
	if id == "" {
		return service.SystemActor
	}
	if name == "" {
		name = "Unknown"
	}
	return service.Actor{ID: id, Name: name, Email: email}
}

func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	id, _ := c.Locals(middleware.LocalUserID).(string)
	userID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.Unauthorized("unauthorized")
	}
	return userID, nil
}

func paramID(c *fiber.Ctx, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid %s ID", what)
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Validation("invalid JSON")
	}
	return nil
}

// dateRange reads optional start_date and end_date query parameters
// (YYYY-MM-DD) as UTC days, the same days the profit report groups by.
// The end day is inclusive.
func dateRange(c *fiber.Ctx) (repository.DateRange, error) {
	var period repository.DateRange
	for _, p := range []struct {
		key string
		dst *time.Time
	}{
		{"start_date", &period.Start},
		{"end_date", &period.End},
	} {
		raw := strings.TrimSpace(c.Query(p.key))
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return period, apperror.Validation("%s must be a date formatted as YYYY-MM-DD", p.key)
		}
		*p.dst = t
	}
	if !period.Start.IsZero() && !period.End.IsZero() && period.End.Before(period.Start) {
		return period, apperror.Validation("end_date must not be before start_date")
	}
	return period, nil
}
