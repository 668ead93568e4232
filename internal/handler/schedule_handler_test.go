package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightsteps/clinic-scheduling-api/internal/models"
	"github.com/brightsteps/clinic-scheduling-api/internal/service"
	"github.com/brightsteps/clinic-scheduling-api/pkg/config"
)

type memBlockRepo struct {
	blocks map[string]models.Block
	nextID int
}

func newMemBlockRepo() *memBlockRepo {
	return &memBlockRepo{blocks: map[string]models.Block{}}
}

func (r *memBlockRepo) ListByDate(_ context.Context, date string) ([]models.Block, error) {
	var out []models.Block
	for _, b := range r.blocks {
		if b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBlockRepo) List(_ context.Context, _ models.BlockFilter) ([]models.Block, error) {
	var out []models.Block
	for _, b := range r.blocks {
		out = append(out, b)
	}
	return out, nil
}

func (r *memBlockRepo) ListForProviderInRange(_ context.Context, role models.ProviderRole, providerID, dateFrom, dateTo string) ([]models.Block, error) {
	var out []models.Block
	for _, b := range r.blocks {
		if b.ProviderRole == role && b.ProviderID == providerID && b.Date >= dateFrom && b.Date <= dateTo {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBlockRepo) FindByID(_ context.Context, id string) (*models.Block, error) {
	b, ok := r.blocks[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := b
	return &copied, nil
}

func (r *memBlockRepo) Create(_ context.Context, block *models.Block) error {
	r.nextID++
	block.ID = fmt.Sprintf("blk-%d", r.nextID)
	r.blocks[block.ID] = *block
	return nil
}

func (r *memBlockRepo) Update(_ context.Context, block *models.Block) error {
	if _, ok := r.blocks[block.ID]; !ok {
		return sql.ErrNoRows
	}
	r.blocks[block.ID] = *block
	return nil
}

func newScheduleRouter(t *testing.T) (*gin.Engine, *memBlockRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemBlockRepo()
	svc := service.NewScheduleService(repo, nil, nil, nil, nil, config.SchedulingConfig{MinSlotMinutes: 15}, nil, nil)
	exporter := service.NewExportService(repo, nil, nil, nil)
	handler := NewScheduleHandler(svc, exporter)

	router := gin.New()
	router.GET("/schedule", handler.ListByDate)
	router.GET("/schedule/export", handler.Export)
	router.POST("/schedule/blocks", handler.Create)
	router.PATCH("/schedule/blocks/:id", handler.Update)
	router.DELETE("/schedule/blocks/:id", handler.Cancel)
	return router, repo
}

func postBlock(t *testing.T, router *gin.Engine, payload map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/schedule/blocks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func blockPayload() map[string]interface{} {
	return map[string]interface{}{
		"date":          "2026-03-02",
		"start":         "09:00",
		"end":           "10:00",
		"provider_role": "RBT",
		"provider_id":   "rbt-1",
		"patient_id":    "pat-1",
	}
}

func TestScheduleCreateAndList(t *testing.T) {
	router, _ := newScheduleRouter(t)

	w := postBlock(t, router, blockPayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.Block `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Data.ID)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/schedule?date=2026-03-02", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var listed struct {
		Data []models.Block `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Data, 1)
}

func TestScheduleConflictReturns409WithDetails(t *testing.T) {
	router, _ := newScheduleRouter(t)

	require.Equal(t, http.StatusCreated, postBlock(t, router, blockPayload()).Code)

	overlap := blockPayload()
	overlap["start"] = "09:30"
	overlap["end"] = "10:30"
	overlap["patient_id"] = "pat-2"
	w := postBlock(t, router, overlap)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Conflicts []models.BlockConflict `json:"conflicts"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
	require.Len(t, envelope.Error.Details.Conflicts, 1)
	assert.Equal(t, models.ConflictProvider, envelope.Error.Details.Conflicts[0].Kind)
}

func TestScheduleValidationReturns400(t *testing.T) {
	router, _ := newScheduleRouter(t)

	short := blockPayload()
	short["end"] = "09:10"
	w := postBlock(t, router, short)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleCancelThenRebook(t *testing.T) {
	router, _ := newScheduleRouter(t)

	w := postBlock(t, router, blockPayload())
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data models.Block `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/schedule/blocks/"+created.Data.ID, nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// The slot is free again.
	assert.Equal(t, http.StatusCreated, postBlock(t, router, blockPayload()).Code)
}

func TestScheduleExportCSV(t *testing.T) {
	router, _ := newScheduleRouter(t)
	require.Equal(t, http.StatusCreated, postBlock(t, router, blockPayload()).Code)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/schedule/export?date=2026-03-02&format=csv", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Body.String(), "09:00,10:00")
}
