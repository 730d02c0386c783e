package handlers

import (
	"errors"
	"net/http"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest defines what the POS screen sends us
type CheckoutRequest struct {
	Items []struct {
		ProductID string   `json:"id" binding:"required"`
		Quantity  float64  `json:"quantity" binding:"required,gt=0"`
		Price     *float64 `json:"price"` // set for variable-price (weighed) goods
	} `json:"items" binding:"required,dive"`
	CustomerID    string `json:"customerId"`
	PaymentMethod string `json:"paymentMethod"`
	Status        string `json:"status"`
}

// --- POST: Checkout the cart ---
func Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusCompleted
	}
	method := req.PaymentMethod
	if method == "" {
		if status == models.StatusQueued {
			method = models.PayPending
		} else {
			method = models.PayCash
		}
	}

	// Validation happens before any state is touched: a guest cannot buy on
	// the credit account.
	if method == models.PayAccount && req.CustomerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot use credit account for guest orders"})
		return
	}

	// Freeze product snapshots into the line items. A cart line whose product
	// vanished since the screen loaded keeps its sent price; the engine will
	// skip its stock decrement.
	items := make([]models.TransactionItem, 0, len(req.Items))
	for _, line := range req.Items {
		item := models.TransactionItem{ProductID: line.ProductID, Quantity: line.Quantity}
		if p, ok := Ledger.ProductByID(line.ProductID); ok {
			item.Name = p.Name
			item.Variant = p.Variant
			item.Price = p.Price
			item.Cost = p.Cost
			if p.IsVariablePrice && line.Price != nil {
				item.Price = *line.Price
			}
		} else if line.Price != nil {
			item.Price = *line.Price
		}
		items = append(items, item)
	}

	tx := Ledger.Checkout(items, req.CustomerID, method, status)
	c.JSON(http.StatusOK, tx)
}

// --- GET: Transaction history (chronological, oldest first) ---
func GetTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, Ledger.Transactions())
}

// --- GET: Orders, optionally filtered by status (?status=queued) ---
func GetOrders(c *gin.Context) {
	status := c.Query("status")
	all := Ledger.Transactions()
	if status == "" {
		c.JSON(http.StatusOK, all)
		return
	}

	filtered := make([]models.Transaction, 0)
	for _, tx := range all {
		if tx.Status == status {
			filtered = append(filtered, tx)
		}
	}
	c.JSON(http.StatusOK, filtered)
}

type orderStatusRequest struct {
	Status        string `json:"status" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
}

// --- PUT: Move an order through the queue ---
func UpdateOrderStatus(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
		return
	}

	tx, err := Ledger.UpdateOrderStatus(c.Param("id"), req.Status, req.PaymentMethod)
	switch {
	case errors.Is(err, ledger.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, ledger.ErrGuestAccountOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot use credit account for guest orders"})
	case errors.Is(err, ledger.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Order can no longer change status"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
	default:
		c.JSON(http.StatusOK, tx)
	}
}

// --- DELETE: Drop a transaction from history ---
// Only used when a queued order is resumed back into the cart; its effects
// were never applied twice, so no reversal happens here.
func DeleteTransaction(c *gin.Context) {
	if !Ledger.DeleteTransaction(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction removed"})
}
