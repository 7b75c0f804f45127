package api

import (
	"context"
	"errors"
	"net/http"

	"meal-ledger/internal/app"
	"meal-ledger/internal/catalog"
	"meal-ledger/internal/clipper"
	"meal-ledger/internal/ledger"
	"meal-ledger/internal/metrics"
	"meal-ledger/internal/shopping"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Service is the set of caller operations exposed over HTTP.
type Service interface {
	Foods() []catalog.Food
	Food(name string) (catalog.Food, error)
	AddFood(ctx context.Context, name string, ingredients []catalog.IngredientInput) (catalog.Food, error)
	RenameFood(ctx context.Context, oldName, newName string) (catalog.Food, error)
	RemoveFood(ctx context.Context, name string) error
	AddIngredient(ctx context.Context, food string, in catalog.IngredientInput) (catalog.Ingredient, error)
	EditIngredient(ctx context.Context, food, id string, in catalog.IngredientInput) (catalog.Ingredient, error)
	RemoveIngredient(ctx context.Context, food, id string) error

	SetCoordinates(c ledger.Coordinates) (ledger.Coordinates, error)
	Coordinates() ledger.Coordinates
	RecordConsumption(ctx context.Context, food string) (ledger.Outcome, error)
	RecordConsumptionAt(ctx context.Context, food string, coords ledger.Coordinates) (ledger.Outcome, error)
	RemoveUsage(ctx context.Context, key ledger.Key, food string) error
	ClearEntry(ctx context.Context, key ledger.Key) (int, error)
	ActiveEntries() []ledger.Entry
	EntriesForDate(date string) []ledger.Entry

	BuildShoppingList(date string) shopping.ShoppingList
	ExportShoppingList(ctx context.Context, date string) (shopping.ShoppingList, string, error)
	ImportFood(ctx context.Context, url string) (catalog.Food, error)
	Stats() app.Stats
}

// Handler serves the JSON endpoints.
type Handler struct {
	svc     Service
	dataDir string
	logger  *zap.Logger
}

// NewHandler creates a new Handler. dataDir is reported on by /health.
func NewHandler(svc Service, dataDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, dataDir: dataDir, logger: logger}
}

type foodRequest struct {
	Name        string                    `json:"name" binding:"required"`
	Ingredients []catalog.IngredientInput `json:"ingredients"`
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

type consumptionRequest struct {
	Food        string              `json:"food" binding:"required"`
	Coordinates *ledger.Coordinates `json:"coordinates"`
}

type importRequest struct {
	URL string `json:"url" binding:"required"`
}

type locationResult struct {
	Location ledger.Location   `json:"location"`
	Persons  int               `json:"persons"`
	Key      string            `json:"key"`
	Usage    *ledger.FoodUsage `json:"usage,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type consumptionResponse struct {
	Food    string           `json:"food"`
	Partial bool             `json:"partial"`
	Results []locationResult `json:"results"`
}

type entryResponse struct {
	Key    string             `json:"key"`
	Fields ledger.Key         `json:"fields"`
	Usages []ledger.FoodUsage `json:"usages"`
}

// Health reports runtime and record statistics.
func (h *Handler) Health(c *gin.Context) {
	s := h.svc.Stats()
	c.JSON(http.StatusOK, metrics.NewReport(h.dataDir, metrics.RecordCounts{
		Foods:   s.Foods,
		Entries: s.Entries,
		Usages:  s.Usages,
	}))
}

func (h *Handler) ListFoods(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Foods())
}

func (h *Handler) GetFood(c *gin.Context) {
	food, err := h.svc.Food(c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

func (h *Handler) CreateFood(c *gin.Context) {
	var req foodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	food, err := h.svc.AddFood(c.Request.Context(), req.Name, req.Ingredients)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, food)
}

func (h *Handler) RenameFood(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	food, err := h.svc.RenameFood(c.Request.Context(), c.Param("name"), req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, food)
}

func (h *Handler) DeleteFood(c *gin.Context) {
	if err := h.svc.RemoveFood(c.Request.Context(), c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AddIngredient(c *gin.Context) {
	var in catalog.IngredientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ing, err := h.svc.AddIngredient(c.Request.Context(), c.Param("name"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ing)
}

func (h *Handler) EditIngredient(c *gin.Context) {
	var in catalog.IngredientInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ing, err := h.svc.EditIngredient(c.Request.Context(), c.Param("name"), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}

func (h *Handler) DeleteIngredient(c *gin.Context) {
	if err := h.svc.RemoveIngredient(c.Request.Context(), c.Param("name"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetCoordinates(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Coordinates())
}

func (h *Handler) SetCoordinates(c *gin.Context) {
	var coords ledger.Coordinates
	if err := c.ShouldBindJSON(&coords); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	set, err := h.svc.SetCoordinates(coords)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// RecordConsumption records a food against the body's coordinates, or the
// current context when none are given.
func (h *Handler) RecordConsumption(c *gin.Context) {
	var req consumptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		outcome ledger.Outcome
		err     error
	)
	if req.Coordinates != nil {
		outcome, err = h.svc.RecordConsumptionAt(c.Request.Context(), req.Food, *req.Coordinates)
	} else {
		outcome, err = h.svc.RecordConsumption(c.Request.Context(), req.Food)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := consumptionResponse{Food: outcome.Food, Partial: outcome.Partial(), Results: make([]locationResult, 0, len(outcome.Results))}
	for _, r := range outcome.Results {
		lr := locationResult{Location: r.Location, Persons: r.Persons, Key: r.Key.String(), Usage: r.Usage}
		if r.Err != nil {
			lr.Error = r.Err.Error()
		}
		resp.Results = append(resp.Results, lr)
	}
	c.JSON(http.StatusCreated, resp)
}

// ListEntries returns the entries of ?date=, or those matching the current
// context when no date is given.
func (h *Handler) ListEntries(c *gin.Context) {
	var entries []ledger.Entry
	if date := c.Query("date"); date != "" {
		entries = h.svc.EntriesForDate(date)
	} else {
		entries = h.svc.ActiveEntries()
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, entryResponse{Key: e.Key.String(), Fields: e.Key, Usages: e.Usages})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DeleteUsage(c *gin.Context) {
	key, err := ledger.ParseKey(c.Param("key"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.RemoveUsage(c.Request.Context(), key, c.Param("food")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ClearEntry(c *gin.Context) {
	key, err := ledger.ParseKey(c.Param("key"))
	if err != nil {
		h.fail(c, err)
		return
	}
	n, err := h.svc.ClearEntry(c.Request.Context(), key)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key.String(), "cleared": n})
}

func (h *Handler) GetShoppingList(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.BuildShoppingList(c.Param("date")))
}

func (h *Handler) ExportShoppingList(c *gin.Context) {
	list, path, err := h.svc.ExportShoppingList(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": path, "list": list})
}

func (h *Handler) ImportFood(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	food, err := h.svc.ImportFood(c.Request.Context(), req.URL)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, food)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps a domain error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrDuplicateName), errors.Is(err, ledger.ErrDuplicateUsage):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrFoodNotFound),
		errors.Is(err, catalog.ErrIngredientNotFound),
		errors.Is(err, ledger.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrInvalidFood),
		errors.Is(err, ledger.ErrInvalidCoordinates),
		errors.Is(err, ledger.ErrInvalidKey):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNoActivePersons),
		errors.Is(err, clipper.ErrNoTitle),
		errors.Is(err, clipper.ErrNoIngredients):
		return http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrCapacity):
		return http.StatusInsufficientStorage
	case errors.Is(err, app.ErrImportDisabled), errors.Is(err, app.ErrExportDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
