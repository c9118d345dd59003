package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pairplay/sync-server-go/internal/apperrors"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "s1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"s1"}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{"invalid move", apperrors.InvalidMove("not-one-edit-away"), http.StatusBadRequest, apperrors.ErrCodeInvalidMove},
		{"not participant", apperrors.NotParticipant("carol"), http.StatusForbidden, apperrors.ErrCodeNotParticipant},
		{"not found", apperrors.NotFound("session"), http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"not your turn", apperrors.NotYourTurn("bob"), http.StatusConflict, apperrors.ErrCodeNotYourTurn},
		{"already answered", apperrors.AlreadyAnswered("bob"), http.StatusConflict, apperrors.ErrCodeAlreadyAnswered},
		{"expired", apperrors.SessionExpired("s1"), http.StatusGone, apperrors.ErrCodeSessionExpired},
		{"completed", apperrors.SessionCompleted("s1"), http.StatusGone, apperrors.ErrCodeSessionCompleted},
		{"external", apperrors.External("ledger", errors.New("down")), http.StatusBadGateway, apperrors.ErrCodeExternal},
		{"cache", apperrors.CacheError("find", errors.New("locked")), http.StatusInternalServerError, apperrors.ErrCodeCache},
		{"unknown errors become internal", errors.New("plain"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}
