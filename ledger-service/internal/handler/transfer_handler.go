package handler

import (
	"context"
	"net/http"

	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/Gcbank-Online/glcbank/shared/cqrs"
	"github.com/Gcbank-Online/glcbank/shared/middleware"
	"github.com/Gcbank-Online/glcbank/shared/models"
	"github.com/Gcbank-Online/glcbank/shared/money"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransferExecutor defines the write-side operation used by TransferHandler.
type TransferExecutor interface {
	Execute(ctx context.Context, cmd cqrs.TransferCommand) (*models.TransferResult, error)
}

type TransferHandler struct {
	engine TransferExecutor
}

// TransferRequest accepts amount as a JSON number or string; either decodes
// straight into a decimal without passing through float64.
type TransferRequest struct {
	FromAccountNumber string           `json:"from_account_number" validate:"required"`
	ToAccountNumber   string           `json:"to_account_number" validate:"required,nefield=FromAccountNumber"`
	Amount            *decimal.Decimal `json:"amount" validate:"required"`
	Note              string           `json:"note" validate:"max=500"`
}

type TransferResponse struct {
	Message     string             `json:"message"`
	TransferID  string             `json:"transfer_id"`
	FromAccount models.AccountView `json:"from_account"`
	ToAccount   models.AccountView `json:"to_account"`
}

func NewTransferHandler(engine TransferExecutor) *TransferHandler {
	return &TransferHandler{engine: engine}
}

func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, apperrors.CodeValidation, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	result, err := h.engine.Execute(c.Request.Context(), cqrs.TransferCommand{
		RequestingUserID:  userID,
		FromAccountNumber: req.FromAccountNumber,
		ToAccountNumber:   req.ToAccountNumber,
		Amount:            *req.Amount,
		Note:              req.Note,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, TransferResponse{
		Message:    "Transfer successful",
		TransferID: result.TransferID,
		FromAccount: models.AccountView{
			AccountNumber: result.From.AccountNumber,
			Balance:       money.Format(result.From.Balance),
		},
		ToAccount: models.AccountView{
			AccountNumber: result.To.AccountNumber,
			Balance:       money.Format(result.To.Balance),
		},
	})
}
