package models

import (
	"time"
)

// User - The staff member logging into the terminal
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'cashier'
	CreatedAt    time.Time `json:"created_at"`
}

// Product - The Inventory
// Variant groups products sharing a Name into a family (e.g. "Rice" / "5kg").
type Product struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Variant         string  `json:"variant,omitempty"`
	Seller          string  `json:"seller,omitempty"`
	Category        string  `json:"category,omitempty"`
	Price           float64 `json:"price"`
	Cost            float64 `json:"cost"`
	Stock           float64 `json:"stock"`
	MinStockLevel   float64 `json:"minStockLevel"`
	IsVariablePrice bool    `json:"isVariablePrice,omitempty"` // loose/weighed goods
}

// Customer - The credit ledger side of the shop.
// Balance is signed: positive means the customer owes the shop.
// Balance and TotalSpent are derived exclusively from the transaction stream.
type Customer struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	Company        string    `json:"company,omitempty"`
	Manager        string    `json:"manager,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	Balance        float64   `json:"balance"`
	TotalSpent     float64   `json:"totalSpent"`
	LastVisit      time.Time `json:"lastVisit"`
	FaceDescriptor []float64 `json:"faceDescriptor,omitempty"` // opaque biometric vector, never interpreted here
	SMSEnabled     bool      `json:"smsEnabled,omitempty"`
	SMSTemplateID  string    `json:"smsTemplateId,omitempty"`
}

// Transaction types
const (
	TxTypeSale    = "sale"
	TxTypePayment = "payment"
	TxTypeRefund  = "refund"
)

// Payment methods
const (
	PayCash    = "cash"
	PayAccount = "account"
	PayUPI     = "upi"
	PayPending = "pending"
)

// Transaction statuses
const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// TransactionItem - a product snapshot frozen at sale time.
// Price is captured here, never re-read from current product state.
type TransactionItem struct {
	ProductID string  `json:"id"`
	Name      string  `json:"name"`
	Variant   string  `json:"variant,omitempty"`
	Price     float64 `json:"price"`
	Cost      float64 `json:"cost,omitempty"`
	Quantity  float64 `json:"quantity"`
}

// AppliedCharge - a named signed adjustment frozen into a transaction.
// Fees add to the total, discounts subtract.
type AppliedCharge struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	IsDiscount bool    `json:"isDiscount"`
}

// Transaction - The ledger entry. CustomerID empty means a guest sale.
// Total is computed once at creation and never recomputed implicitly.
type Transaction struct {
	ID            string            `json:"id"`
	CustomerID    string            `json:"customerId,omitempty"`
	CustomerName  string            `json:"customerName,omitempty"`
	Date          time.Time         `json:"date"`
	Items         []TransactionItem `json:"items"`
	Subtotal      float64           `json:"subtotal"`
	Charges       []AppliedCharge   `json:"charges,omitempty"`
	Total         float64           `json:"total"`
	Type          string            `json:"type"`          // sale | payment | refund
	PaymentMethod string            `json:"paymentMethod"` // cash | account | upi | pending
	Status        string            `json:"status"`        // queued | completed | cancelled
}

// ChargeRule triggers
const (
	TriggerAlways           = "always"
	TriggerAmountThreshold  = "amount_threshold"
	TriggerCustomerAssigned = "customer_assigned"
)

// ChargeRule - pure checkout configuration, evaluated per-cart.
// Its output (AppliedCharge) is frozen into the Transaction at creation.
type ChargeRule struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"` // 'percent' | 'fixed'
	Value      float64 `json:"value"`
	IsDiscount bool    `json:"isDiscount"`
	Trigger    string  `json:"trigger"`
	Threshold  float64 `json:"threshold,omitempty"`
	Enabled    bool    `json:"enabled"`
}

// Backup - the export/import envelope. Import re-seeds each collection
// independently; a nil slice means "key absent, leave the collection alone".
type Backup struct {
	Products     []Product     `json:"products"`
	Customers    []Customer    `json:"customers"`
	Transactions []Transaction `json:"transactions"`
	Categories   []string      `json:"categories"`
	ChargeRules  []ChargeRule  `json:"chargeRules"`
	Timestamp    time.Time     `json:"timestamp"`
	Version      int           `json:"version"`
}
