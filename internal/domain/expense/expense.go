package expense

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Expense struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Amount      float64   `json:"amount"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("expense not found")

type CreateExpenseRequest struct {
	Title       string   `json:"title" binding:"required,notblank,min=1,max=100"`
	Amount      float64  `json:"amount" binding:"required,gt=0,lte=999999.99"`
	Category    string   `json:"category" binding:"required,expense_category"`
	Description string   `json:"description" binding:"omitempty,max=500"`
	Date        *APIDate `json:"date" binding:"omitempty"`
}

// UpdateExpenseRequest carries partial updates. Every field is a pointer so
// "not supplied" and "supplied" are distinguishable; in particular a client
// can clear the description with an explicit empty string.
type UpdateExpenseRequest struct {
	Title       *string  `json:"title" binding:"omitempty,notblank,min=1,max=100"`
	Amount      *float64 `json:"amount" binding:"omitempty,gt=0,lte=999999.99"`
	Category    *string  `json:"category" binding:"omitempty,expense_category"`
	Description *string  `json:"description" binding:"omitempty,max=500"`
	Date        *APIDate `json:"date" binding:"omitempty"`
}

// NewFromCreateRequest builds a persistable Expense for the given owner.
// The owner always comes from the verified credential, never from the body.
func NewFromCreateRequest(req CreateExpenseRequest, userID string) Expense {
	now := time.Now().UTC()

	date := now
	if req.Date != nil {
		date = req.Date.Time()
	}

	category, _ := ParseCategory(req.Category)

	return Expense{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Amount:      req.Amount,
		Category:    category,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
