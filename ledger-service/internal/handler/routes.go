package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the ledger API. Every /v1 route runs behind auth.
func RegisterRoutes(router gin.IRouter, auth gin.HandlerFunc, transfers *TransferHandler, accounts *AccountHandler, transactions *TransactionHandler) {
	v1 := router.Group("/v1", auth)
	{
		v1.POST("/transfers", transfers.CreateTransfer)
		v1.GET("/me/account", accounts.GetOwnAccount)
		v1.GET("/me/transactions", transactions.ListOwnTransactions)
		v1.GET("/accounts", accounts.ListAccounts)
		v1.GET("/accounts/lookup/:accountNumber", accounts.LookupAccount)
	}
}
