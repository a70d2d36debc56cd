package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/expensehub/internal/cache"
	"github.com/geocoder89/expensehub/internal/config"
	"github.com/geocoder89/expensehub/internal/domain/expense"
	"github.com/geocoder89/expensehub/internal/http/middlewares"
	"github.com/geocoder89/expensehub/internal/observability"
	"github.com/geocoder89/expensehub/internal/utils"
	"github.com/gin-gonic/gin"
)

type ExpensesStore interface {
	Create(ctx context.Context, req expense.CreateExpenseRequest, userID string) (expense.Expense, error)
	List(ctx context.Context, f expense.ListFilter) ([]expense.Expense, int, error)
	Update(ctx context.Context, userID, id string, req expense.UpdateExpenseRequest) (expense.Expense, error)
	Delete(ctx context.Context, userID, id string) error
	TotalSummary(ctx context.Context, f expense.StatsFilter) (expense.TotalSummary, error)
	CategorySummaries(ctx context.Context, f expense.StatsFilter) ([]expense.CategorySummary, error)
	MonthlySummaries(ctx context.Context, f expense.StatsFilter) ([]expense.MonthlySummary, error)
}

type ExpensesHandler struct {
	store      ExpensesStore
	statsCache *cache.Cache
	prom       *observability.Prom
}

func NewExpensesHandler(store ExpensesStore, statsCache *cache.Cache, prom *observability.Prom) *ExpensesHandler {
	return &ExpensesHandler{store: store, statsCache: statsCache, prom: prom}
}

// GET /expenses
func (h *ExpensesHandler) List(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Not authorized, token failed")
		return
	}

	filter, page, limit, errs := parseListQuery(ctx, userID)
	if len(errs) > 0 {
		RespondValidationFailed(ctx, errs)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	expenses, total, err := h.store.List(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Server error while fetching expenses")
		return
	}

	totalPages := (total + limit - 1) / limit

	RespondOK(ctx, "", gin.H{
		"expenses": expenses,
		"pagination": Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: limit,
		},
	})
}

// POST /expenses
func (h *ExpensesHandler) Create(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Not authorized, token failed")
		return
	}

	var req expense.CreateExpenseRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	e, err := h.store.Create(cctx, req, userID)
	if err != nil {
		RespondInternal(ctx, "Server error while creating expense")
		return
	}

	h.invalidateStats(userID)

	RespondCreated(ctx, "Expense created successfully", gin.H{"expense": e})
}

// PUT /expenses/:id
func (h *ExpensesHandler) Update(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Not authorized, token failed")
		return
	}

	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondValidationFailed(ctx, []FieldError{{
			Msg:      "Expense id must be a valid UUID",
			Param:    "id",
			Location: "params",
		}})
		return
	}

	var req expense.UpdateExpenseRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	e, err := h.store.Update(cctx, userID, id, req)
	if err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			RespondNotFound(ctx, "Expense not found")
			return
		}

		RespondInternal(ctx, "Server error while updating expense")
		return
	}

	h.invalidateStats(userID)

	RespondOK(ctx, "Expense updated successfully", gin.H{"expense": e})
}

// DELETE /expenses/:id
func (h *ExpensesHandler) Delete(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Not authorized, token failed")
		return
	}

	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondValidationFailed(ctx, []FieldError{{
			Msg:      "Expense id must be a valid UUID",
			Param:    "id",
			Location: "params",
		}})
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.store.Delete(cctx, userID, id); err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			RespondNotFound(ctx, "Expense not found")
			return
		}

		RespondInternal(ctx, "Server error while deleting expense")
		return
	}

	h.invalidateStats(userID)

	RespondOK(ctx, "Expense deleted successfully", nil)
}

// GET /expenses/stats
//
// Three independent read-only aggregates; they may observe slightly different
// snapshots when writes race reads, which is acceptable for dashboard data.
func (h *ExpensesHandler) Stats(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "Not authorized, token failed")
		return
	}

	filter, errs := parseStatsQuery(ctx, userID)
	if len(errs) > 0 {
		RespondValidationFailed(ctx, errs)
		return
	}

	key := statsCacheKey(filter)
	if h.statsCache != nil {
		if v, ok := h.statsCache.Get(key); ok {
			if stats, ok := v.(expense.Stats); ok {
				if h.prom != nil {
					h.prom.StatsCacheHits.Inc()
				}
				RespondOK(ctx, "", stats)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	total, err := h.store.TotalSummary(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Server error while fetching statistics")
		return
	}

	byCategory, err := h.store.CategorySummaries(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Server error while fetching statistics")
		return
	}

	monthly, err := h.store.MonthlySummaries(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Server error while fetching statistics")
		return
	}

	stats := expense.Stats{
		Total:      total,
		ByCategory: byCategory,
		Monthly:    monthly,
	}

	if h.statsCache != nil {
		if h.prom != nil {
			h.prom.StatsCacheMisses.Inc()
		}
		h.statsCache.Set(key, stats)
	}

	RespondOK(ctx, "", stats)
}

func (h *ExpensesHandler) invalidateStats(userID string) {
	if h.statsCache != nil {
		h.statsCache.DeletePrefix("stats:" + userID + ":")
	}
}

func statsCacheKey(f expense.StatsFilter) string {
	key := "stats:" + f.UserID + ":"
	if f.From != nil {
		key += f.From.UTC().Format(time.RFC3339)
	}
	key += ":"
	if f.To != nil {
		key += f.To.UTC().Format(time.RFC3339)
	}
	return key
}
