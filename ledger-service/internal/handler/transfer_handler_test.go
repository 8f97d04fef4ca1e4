package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Gcbank-Online/glcbank/ledger-service/internal/command"
	"github.com/Gcbank-Online/glcbank/ledger-service/internal/repository/memory"
	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/Gcbank-Online/glcbank/shared/cqrs"
	"github.com/Gcbank-Online/glcbank/shared/middleware"
	"github.com/Gcbank-Online/glcbank/shared/models"
	"github.com/gin-gonic/gin"
)

// ---- mock implementations ----

type mockTransferExecutor struct {
	executeFn func(cqrs.TransferCommand) (*models.TransferResult, error)
	got       *cqrs.TransferCommand
}

func (m *mockTransferExecutor) Execute(_ context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error) {
	m.got = &cmd
	if m.executeFn != nil {
		return m.executeFn(cmd)
	}
	return nil, errors.New("not configured")
}

// ---- helpers ----

func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newTransferTestRouter(engine TransferExecutor, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuth(authUserID))
	h := NewTransferHandler(engine)
	r.POST("/v1/transfers", h.CreateTransfer)
	return r
}

func doRequest(router *gin.Engine, method, url, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, url, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var testTransferResult = &models.TransferResult{
	TransferID: "trf-001",
	From:       models.Account{ID: "acc-1", AccountNumber: "10000001", UserID: "usr-001", Balance: 7450},
	To:         models.Account{ID: "acc-2", AccountNumber: "10000002", UserID: "usr-002", Balance: 7550},
}

const validTransferBody = `{"from_account_number":"10000001","to_account_number":"10000002","amount":25.50,"note":"rent"}`

// ---- tests ----

func TestCreateTransfer(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		executeFn      func(cqrs.TransferCommand) (*models.TransferResult, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "success - transfer between accounts",
			body:           validTransferBody,
			executeFn:      func(cqrs.TransferCommand) (*models.TransferResult, error) { return testTransferResult, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "success - amount as string",
			body:           `{"from_account_number":"10000001","to_account_number":"10000002","amount":"25.50"}`,
			executeFn:      func(cqrs.TransferCommand) (*models.TransferResult, error) { return testTransferResult, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - malformed json",
			body:           `{"from_account_number":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "bad request - missing amount",
			body:           `{"from_account_number":"10000001","to_account_number":"10000002"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "bad request - same account",
			body:           `{"from_account_number":"10000001","to_account_number":"10000001","amount":1}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "bad request - note too long",
			body:           `{"from_account_number":"10000001","to_account_number":"10000002","amount":1,"note":"` + strings.Repeat("x", 501) + `"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "bad request - engine rejects amount",
			body: validTransferBody,
			executeFn: func(cqrs.TransferCommand) (*models.TransferResult, error) {
				return nil, apperrors.New(apperrors.CodeValidation, "Amount must be greater than zero")
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name: "forbidden - not the owner",
			body: validTransferBody,
			executeFn: func(cqrs.TransferCommand) (*models.TransferResult, error) {
				return nil, apperrors.New(apperrors.CodeUnauthorized, "Unauthorized to transfer from this account")
			},
			expectedStatus: http.StatusForbidden,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name: "not found - account does not exist",
			body: validTransferBody,
			executeFn: func(cqrs.TransferCommand) (*models.TransferResult, error) {
				return nil, apperrors.New(apperrors.CodeAccountNotFound, "One or both accounts not found")
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "ACCOUNT_NOT_FOUND",
		},
		{
			name: "conflict - lock timeout",
			body: validTransferBody,
			executeFn: func(cqrs.TransferCommand) (*models.TransferResult, error) {
				return nil, apperrors.New(apperrors.CodeConcurrencyTimeout, "Accounts are busy, retry the transfer")
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "CONCURRENCY_TIMEOUT",
		},
		{
			name: "unprocessable entity - insufficient funds",
			body: validTransferBody,
			executeFn: func(cqrs.TransferCommand) (*models.TransferResult, error) {
				return nil, apperrors.New(apperrors.CodeInsufficientFunds, "Insufficient funds")
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "INSUFFICIENT_FUNDS",
		},
		{
			name: "internal error - storage failure",
			body: validTransferBody,
			executeFn: func(cqrs.TransferCommand) (*models.TransferResult, error) {
				return nil, errors.New("pq: connection refused")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "STORAGE_ERROR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockTransferExecutor{executeFn: tt.executeFn}
			router := newTransferTestRouter(engine, "usr-001")
			w := doRequest(router, http.MethodPost, "/v1/transfers", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedCode == "" {
				return
			}
			var resp struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if resp.Code != tt.expectedCode {
				t.Errorf("expected code %s got %s", tt.expectedCode, resp.Code)
			}
		})
	}
}

func TestCreateTransferResponseBody(t *testing.T) {
	engine := &mockTransferExecutor{
		executeFn: func(cqrs.TransferCommand) (*models.TransferResult, error) { return testTransferResult, nil },
	}
	router := newTransferTestRouter(engine, "usr-001")
	w := doRequest(router, http.MethodPost, "/v1/transfers", validTransferBody)

	var resp TransferResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Message != "Transfer successful" || resp.TransferID != "trf-001" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.FromAccount.Balance != "74.50" || resp.ToAccount.Balance != "75.50" {
		t.Errorf("unexpected balances: %+v", resp)
	}

	if engine.got == nil {
		t.Fatal("engine was not called")
	}
	if engine.got.RequestingUserID != "usr-001" {
		t.Errorf("expected user from token, got %q", engine.got.RequestingUserID)
	}
	if engine.got.Amount.String() != "25.5" {
		t.Errorf("expected amount 25.5, got %s", engine.got.Amount.String())
	}
	if engine.got.Note != "rent" {
		t.Errorf("expected note to pass through, got %q", engine.got.Note)
	}
}

func TestCreateTransferHidesStorageCause(t *testing.T) {
	engine := &mockTransferExecutor{
		executeFn: func(cqrs.TransferCommand) (*models.TransferResult, error) {
			return nil, apperrors.Wrap(apperrors.CodeStorage, apperrors.GenericStorageMessage, errors.New("pq: relation \"accounts\" does not exist"))
		},
	}
	router := newTransferTestRouter(engine, "usr-001")
	w := doRequest(router, http.MethodPost, "/v1/transfers", validTransferBody)

	var resp middleware.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Message != "Transfer failed" {
		t.Errorf("expected generic message, got %q", resp.Message)
	}
	if strings.Contains(w.Body.String(), "relation") {
		t.Errorf("storage cause leaked: %s", w.Body.String())
	}
}

func TestCreateTransferMarksConflictRetryable(t *testing.T) {
	engine := &mockTransferExecutor{
		executeFn: func(cqrs.TransferCommand) (*models.TransferResult, error) {
			return nil, apperrors.New(apperrors.CodeConcurrencyTimeout, "Accounts are busy, retry the transfer")
		},
	}
	router := newTransferTestRouter(engine, "usr-001")
	w := doRequest(router, http.MethodPost, "/v1/transfers", validTransferBody)

	var resp middleware.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !resp.Retryable {
		t.Errorf("expected retryable flag, got %s", w.Body.String())
	}
}

func TestCreateTransferRejectsHugeExponentQuickly(t *testing.T) {
	store := memory.NewStore(time.Second)
	if _, err := store.OpenAccount("usr-001", "10000001", 10000); err != nil {
		t.Fatal(err)
	}
	if _, err := store.OpenAccount("usr-002", "10000002", 0); err != nil {
		t.Fatal(err)
	}
	router := newTransferTestRouter(command.NewTransferEngine(store, nil, nil), "usr-001")

	for _, amount := range []string{`1e10000000`, `"1e10000000"`} {
		start := time.Now()
		w := doRequest(router, http.MethodPost, "/v1/transfers",
			`{"from_account_number":"10000001","to_account_number":"10000002","amount":`+amount+`}`)
		elapsed := time.Since(start)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("amount %s: expected 400 got %d; body: %s", amount, w.Code, w.Body.String())
		}
		var resp middleware.ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if resp.Code != "VALIDATION_ERROR" {
			t.Errorf("amount %s: expected VALIDATION_ERROR got %s", amount, resp.Code)
		}
		if elapsed > time.Second {
			t.Errorf("amount %s: rejection took %s", amount, elapsed)
		}
		if len(store.Entries()) != 0 {
			t.Errorf("amount %s: expected no ledger entries", amount)
		}
	}
}
