package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/expensehub/internal/domain/expense"
	"github.com/geocoder89/expensehub/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

func bindRouter() *gin.Engine {
	r := gin.New()
	r.POST("/expenses", func(ctx *gin.Context) {
		var req expense.CreateExpenseRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})

	return r
}

func postBind(t *testing.T, body string) (*httptest.ResponseRecorder, handlers.Response) {
	t.Helper()

	r := bindRouter()

	req := httptest.NewRequest(http.MethodPost, "/expenses", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp handlers.Response
	if w.Code != http.StatusCreated {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal error response: %v body=%s", err, w.Body.String())
		}
	}

	return w, resp
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	w, resp := postBind(t, `{"title":"go"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if resp.Success {
		t.Fatalf("success must be false on validation errors")
	}
	if resp.Message != "Validation failed" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range resp.Errors {
		found[fieldErr.Param] = fieldErr
	}

	for _, param := range []string{"amount", "category"} {
		fieldErr, ok := found[param]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", param, resp.Errors)
		}
		if fieldErr.Location != "body" {
			t.Fatalf("field %q location = %q, want body", param, fieldErr.Location)
		}
		if fieldErr.Msg == "" {
			t.Fatalf("field %q should include a non-empty message", param)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	w, resp := postBind(t, `{"title":"Lunch","amount":"ten","category":"Other"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if len(resp.Errors) != 1 {
		t.Fatalf("expected a single type error, got %+v", resp.Errors)
	}
	if resp.Errors[0].Param != "amount" {
		t.Fatalf("param = %q, want amount", resp.Errors[0].Param)
	}
}

func TestBindJSON_InvalidDateReportedOnDateField(t *testing.T) {
	w, resp := postBind(t, `{"title":"Lunch","amount":10,"category":"Other","date":"next tuesday"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if len(resp.Errors) != 1 || resp.Errors[0].Param != "date" {
		t.Fatalf("expected one date error, got %+v", resp.Errors)
	}
}

func TestBindJSON_MalformedBody(t *testing.T) {
	w, resp := postBind(t, `{"title": "Lunch",`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	if len(resp.Errors) != 1 || resp.Errors[0].Msg != "Invalid request body" {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
}
