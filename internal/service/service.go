package service

import (
	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/ws"
	"go-retail-backoffice/pkg/validator"

	"github.com/google/uuid"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    string
	Name  string
	Email string
}

// SystemActor is used by scheduled jobs.
var SystemActor = Actor{ID: "system", Name: "System"}

func (a Actor) userID() *uuid.UUID {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return nil
	}
	return &id
}

func (a Actor) event() *ws.Actor {
	return &ws.Actor{ID: a.ID, Name: a.Name, Email: a.Email}
}

// EventPublisher fans committed changes out to live dashboards.
type EventPublisher interface {
	Publish(event ws.Event)
}

func validate(v interface{}) error {
	if errs := validator.ValidateStruct(v); len(errs) > 0 {
		return apperror.Validation("%s", errs[0].Message())
	}
	return nil
}
