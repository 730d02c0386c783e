package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/reports ---
// Revenue, order count, top 5 sellers and the latest transactions, all
// computed straight off the ledger's collections.
func GetSalesReport(c *gin.Context) {
	c.JSON(http.StatusOK, Ledger.Sales(10))
}

// --- GET: /api/reports/valuation ---
// GetStockValuation calculates the total monetary value of all physical inventory
func GetStockValuation(c *gin.Context) {
	c.JSON(http.StatusOK, Ledger.StockValuation())
}
