package handler

import (
	"context"
	"net/http"

	"github.com/Gcbank-Online/glcbank/shared/apperrors"
	"github.com/Gcbank-Online/glcbank/shared/cqrs"
	"github.com/Gcbank-Online/glcbank/shared/middleware"
	"github.com/Gcbank-Online/glcbank/shared/models"
	"github.com/gin-gonic/gin"
)

// TransactionQuerier defines the read-side operation used by TransactionHandler.
type TransactionQuerier interface {
	ListOwnTransactions(ctx context.Context, q cqrs.ListOwnTransactionsQuery) ([]models.LedgerEntryView, error)
}

type TransactionHandler struct {
	queries TransactionQuerier
}

type ListTransactionsParams struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

type ListTransactionsResponse struct {
	Transactions []models.LedgerEntryView `json:"transactions"`
}

func NewTransactionHandler(queries TransactionQuerier) *TransactionHandler {
	return &TransactionHandler{queries: queries}
}

func (h *TransactionHandler) ListOwnTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var params ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, apperrors.CodeValidation, "limit and offset must be integers")
		return
	}

	views, err := h.queries.ListOwnTransactions(c.Request.Context(), cqrs.ListOwnTransactionsQuery{
		UserID: userID,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	if views == nil {
		views = []models.LedgerEntryView{}
	}
	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: views})
}
