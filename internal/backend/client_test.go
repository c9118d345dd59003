package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairplay/sync-server-go/internal/model"
)

func ladderSession(id string) *model.Session {
	now := time.Now().Truncate(time.Second)
	return &model.Session{
		ID:           id,
		PairKey:      "alice:bob",
		Participants: [2]string{"alice", "bob"},
		Kind:         model.KindLadder,
		Status:       model.StatusActive,
		Revision:     2,
		CreatedAt:    now,
		ExpiresAt:    now.Add(72 * time.Hour),
		State: model.State{Kind: model.KindLadder, Ladder: &model.LadderState{
			StartWord: "CAT", EndWord: "DOG", Chain: []string{"COT"}, OptimalSteps: 3, Language: "en",
		}},
	}
}

func TestPut(t *testing.T) {
	t.Run("puts the full snapshot on the per-kind route", func(t *testing.T) {
		var gotPath, gotMethod string
		var gotBody model.Session
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotMethod = r.Method
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		require.NoError(t, c.Put(context.Background(), ladderSession("s1")))
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "/v1/ladder-sessions/s1", gotPath)
		assert.Equal(t, "s1", gotBody.ID)
		assert.Equal(t, []string{"COT"}, gotBody.State.Ladder.Chain)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		assert.Error(t, c.Put(context.Background(), ladderSession("s1")))
	})
}

func TestGet(t *testing.T) {
	t.Run("decodes and validates the snapshot", func(t *testing.T) {
		want := ladderSession("s1")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/ladder-sessions/s1", r.URL.Path)
			json.NewEncoder(w).Encode(want)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		got, err := c.Get(context.Background(), model.KindLadder, "s1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Revision, got.Revision)
	})

	t.Run("404 means unknown, not an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		got, err := c.Get(context.Background(), model.KindLadder, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("rejects a malformed snapshot", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":"s1","state":{"kind":"ladder"}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		_, err := c.Get(context.Background(), model.KindLadder, "s1")
		assert.Error(t, err)
	})
}

func TestDelete(t *testing.T) {
	t.Run("deletes the per-kind resource", func(t *testing.T) {
		var gotMethod, gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		require.NoError(t, c.Delete(context.Background(), model.KindQuiz, "s1"))
		assert.Equal(t, http.MethodDelete, gotMethod)
		assert.Equal(t, "/v1/quiz-sessions/s1", gotPath)
	})

	t.Run("already gone is fine", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		assert.NoError(t, c.Delete(context.Background(), model.KindQuiz, "s1"))
	})
}
