package handlers

import (
	"errors"
	"net/http"
	"time"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

// --- GET: List all customers ---
func GetCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, Ledger.Customers())
}

// --- POST: Add a new customer ---
func AddCustomer(c *gin.Context) {
	var newCustomer models.Customer
	if err := c.ShouldBindJSON(&newCustomer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if newCustomer.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer name is required"})
		return
	}
	if newCustomer.LastVisit.IsZero() {
		newCustomer.LastVisit = time.Now()
	}

	c.JSON(http.StatusCreated, Ledger.AddCustomer(newCustomer))
}

// --- PUT: Replace a customer by id ---
func UpdateCustomer(c *gin.Context) {
	var customer models.Customer
	if err := c.ShouldBindJSON(&customer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	customer.ID = c.Param("id")

	updated, err := Ledger.UpdateCustomer(customer)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// --- DELETE: Remove a customer ---
// Refused while they still owe (or are owed) money.
func DeleteCustomer(c *gin.Context) {
	err := Ledger.DeleteCustomer(c.Param("id"))
	switch {
	case errors.Is(err, ledger.ErrCustomerHasBalance):
		c.JSON(http.StatusConflict, gin.H{"error": "Customer has an outstanding balance. Settle it before deleting."})
	case errors.Is(err, ledger.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
	}
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

// --- POST: Record a payment against a customer's balance ---
func RecordPayment(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	tx, err := Ledger.RecordPayment(c.Param("id"), req.Amount)
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid amount greater than zero"})
	case errors.Is(err, ledger.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
	default:
		c.JSON(http.StatusOK, tx)
	}
}

// --- POST: Give credit (manual ledger adjustment) ---
// Books an item-less account sale, growing the customer's balance without
// touching stock. Used for old paper-book debts being brought into the app.
func GiveCredit(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid amount greater than zero"})
		return
	}

	customer, ok := Ledger.CustomerByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	tx := Ledger.RecordSale(models.Transaction{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		Items:         []models.TransactionItem{},
		Subtotal:      req.Amount,
		Total:         req.Amount,
		Type:          models.TxTypeSale,
		PaymentMethod: models.PayAccount,
		Status:        models.StatusCompleted,
	})
	c.JSON(http.StatusOK, tx)
}
