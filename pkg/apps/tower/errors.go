package tower

import (
	"errors"
	"net/http"

	"github.com/jgirmay/privacy-tower/internal/api"
	"github.com/jgirmay/privacy-tower/pkg/engine"
	"github.com/jgirmay/privacy-tower/pkg/repository"
	"github.com/jgirmay/privacy-tower/pkg/services/sessions"
)

var errorMappings = []struct {
	target error
	code   string
	status int
}{
	{sessions.ErrSessionNotFound, api.ErrCodeNotFound, http.StatusNotFound},
	{engine.ErrBlockNotFound, api.ErrCodeNotFound, http.StatusNotFound},
	{repository.ErrNotFound, api.ErrCodeNotFound, http.StatusNotFound},
	{sessions.ErrInvalidNickname, api.ErrCodeInvalidRequest, http.StatusBadRequest},
	{engine.ErrInvalidChoice, api.ErrCodeInvalidRequest, http.StatusBadRequest},
	{sessions.ErrBlockUnavailable, api.ErrCodeInvalidState, http.StatusConflict},
	{engine.ErrBlockRemoved, api.ErrCodeInvalidState, http.StatusConflict},
	{engine.ErrNoQuestion, api.ErrCodeInvalidState, http.StatusConflict},
	{engine.ErrInvalidPhase, api.ErrCodeInvalidState, http.StatusConflict},
	{sessions.ErrTooManySessions, api.ErrCodeUnavailable, http.StatusServiceUnavailable},
	{sessions.ErrNoPersistence, api.ErrCodeUnavailable, http.StatusServiceUnavailable},
	{sessions.ErrManagerClosed, api.ErrCodeUnavailable, http.StatusServiceUnavailable},
}

// toAPIError maps domain errors onto response envelopes
func toAPIError(err error) *api.APIError {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return api.NewError(m.code, err.Error(), m.status)
		}
	}
	return api.ErrInternalServer
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
