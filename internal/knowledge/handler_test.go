package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	gotQuery string
	gotLimit int
	result   []string
	err      error
}

func (s *stubSearcher) Search(_ context.Context, query string, limit int) ([]string, error) {
	s.gotQuery, s.gotLimit = query, limit
	return s.result, s.err
}

func TestHandler_Search(t *testing.T) {
	s := &stubSearcher{result: []string{"Rinse gently with salt water."}}
	h := NewHandler(s, 3)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/search?q=rinse+mouth&limit=2", nil)
	rec := httptest.NewRecorder()
	h.Search(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rinse mouth", s.gotQuery)
	assert.Equal(t, 2, s.gotLimit)

	var body struct {
		Data SearchResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []string{"Rinse gently with salt water."}, body.Data.Snippets)
}

func TestHandler_SearchDefaultsLimit(t *testing.T) {
	s := &stubSearcher{}
	h := NewHandler(s, 3)

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/search?q=pain", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, s.gotLimit)
}

func TestHandler_SearchRejectsBadInput(t *testing.T) {
	h := NewHandler(&stubSearcher{}, 3)

	for _, target := range []string{
		"/api/v1/knowledge/search",
		"/api/v1/knowledge/search?q=%20",
		"/api/v1/knowledge/search?q=pain&limit=0",
		"/api/v1/knowledge/search?q=pain&limit=abc",
		"/api/v1/knowledge/search?q=pain&limit=50",
	} {
		rec := httptest.NewRecorder()
		h.Search(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandler_SearchStoreError(t *testing.T) {
	h := NewHandler(&stubSearcher{err: errors.New("db down")}, 3)

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/v1/knowledge/search?q=pain", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
