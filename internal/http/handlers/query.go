package handlers

import (
	"strconv"
	"time"

	"github.com/geocoder89/expensehub/internal/domain/expense"
	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// parseListQuery validates every optional list parameter and reports all
// violations together. Nothing touches the store until this passes.
func parseListQuery(ctx *gin.Context, userID string) (expense.ListFilter, int, int, []FieldError) {
	var errs []FieldError

	page := defaultPage
	if raw := ctx.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errs = append(errs, queryError("Page must be a positive integer", "page"))
		} else {
			page = n
		}
	}

	limit := defaultLimit
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			errs = append(errs, queryError("Limit must be between 1 and 100", "limit"))
		} else {
			limit = n
		}
	}

	filter := expense.ListFilter{
		UserID: userID,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	if raw := ctx.Query("category"); raw != "" {
		category, ok := expense.ParseCategory(raw)
		if !ok {
			errs = append(errs, queryError("Invalid category", "category"))
		} else {
			filter.Category = &category
		}
	}

	from, to, rangeErrs := parseDateRange(ctx)
	errs = append(errs, rangeErrs...)
	filter.From = from
	filter.To = to

	if raw := ctx.Query("search"); raw != "" {
		search := raw
		filter.Search = &search
	}

	return filter, page, limit, errs
}

func parseStatsQuery(ctx *gin.Context, userID string) (expense.StatsFilter, []FieldError) {
	filter := expense.StatsFilter{UserID: userID}

	from, to, errs := parseDateRange(ctx)
	filter.From = from
	filter.To = to

	return filter, errs
}

// parseDateRange reads the optional inclusive bounds; each side is
// independently optional.
func parseDateRange(ctx *gin.Context) (from, to *time.Time, errs []FieldError) {
	if raw := ctx.Query("startDate"); raw != "" {
		t, err := expense.ParseDate(raw)
		if err != nil {
			errs = append(errs, queryError("Start date must be a valid date", "startDate"))
		} else {
			from = &t
		}
	}

	if raw := ctx.Query("endDate"); raw != "" {
		t, err := expense.ParseDate(raw)
		if err != nil {
			errs = append(errs, queryError("End date must be a valid date", "endDate"))
		} else {
			to = &t
		}
	}

	return from, to, errs
}

func queryError(msg, param string) FieldError {
	return FieldError{Msg: msg, Param: param, Location: "query"}
}
