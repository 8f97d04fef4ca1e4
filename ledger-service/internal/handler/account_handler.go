package handler

import (
	"context"
	"net/http"

	"github.com/Gcbank-Online/glcbank/shared/cqrs"
	"github.com/Gcbank-Online/glcbank/shared/middleware"
	"github.com/Gcbank-Online/glcbank/shared/models"
	"github.com/gin-gonic/gin"
)

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetOwnAccount(ctx context.Context, q cqrs.GetOwnAccountQuery) (*models.AccountView, error)
	ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error)
	LookupAccount(ctx context.Context, q cqrs.LookupAccountQuery) (*models.AccountLookupView, error)
}

type AccountHandler struct {
	queries AccountQuerier
}

type ListAccountsResponse struct {
	Accounts []models.AccountView `json:"accounts"`
}

func NewAccountHandler(queries AccountQuerier) *AccountHandler {
	return &AccountHandler{queries: queries}
}

func (h *AccountHandler) GetOwnAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetOwnAccount(c.Request.Context(), cqrs.GetOwnAccountQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	views, err := h.queries.ListAccounts(c.Request.Context(), cqrs.ListAccountsQuery{UserID: userID})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	if views == nil {
		views = []models.AccountView{}
	}
	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: views})
}

// LookupAccount is open to any authenticated caller so a sender can confirm a
// recipient before transferring.
func (h *AccountHandler) LookupAccount(c *gin.Context) {
	view, err := h.queries.LookupAccount(c.Request.Context(), cqrs.LookupAccountQuery{
		AccountNumber: c.Param("accountNumber"),
	})
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
