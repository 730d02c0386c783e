package ledger

import (
	"errors"
	"math"
	"sync"
	"time"

	"go-pos-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Persistence keys, one per collection. These double as the field names of the
// backup envelope, so the durable store and the export file stay in sync.
const (
	KeyProducts     = "products"
	KeyCustomers    = "customers"
	KeyTransactions = "transactions"
	KeyCategories   = "categories"
	KeyChargeRules  = "chargeRules"
)

// BackupVersion is stamped on every export envelope.
const BackupVersion = 1

var (
	ErrInvalidAmount       = errors.New("payment amount must be a positive number")
	ErrGuestAccountOrder   = errors.New("cannot use credit account for guest orders")
	ErrCustomerHasBalance  = errors.New("customer has an outstanding balance")
	ErrInvalidTransition   = errors.New("invalid order status transition")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrChargeRuleNotFound  = errors.New("charge rule not found")
)

// Persister is the single door to the persistence fan-out. Calls return
// immediately; the fan-out owns debouncing, retries, and failure logging.
// The engine never learns whether a write landed.
type Persister interface {
	Persist(scopeID, key string, v any)
}

// CreditHook receives a customer-touching transaction and the customer's
// updated snapshot after the mutation committed. Hooks run on their own
// goroutine and must never feed back into engine state.
type CreditHook func(tx models.Transaction, customer models.Customer)

// Engine owns the shop's collections and is the only mutation surface for
// them. Every operation runs to completion under the lock before returning;
// persistence is dispatched after the in-memory state is already authoritative,
// so a crash between the two can lose the latest write (accepted for this
// domain). UI-facing accessors hand out copies, never the live slices.
type Engine struct {
	mu      sync.Mutex
	scopeID string
	store   Persister
	log     zerolog.Logger
	now     func() time.Time

	products     []models.Product
	customers    []models.Customer
	transactions []models.Transaction
	categories   []string
	chargeRules  []models.ChargeRule

	creditHooks []CreditHook
}

func New(scopeID string, store Persister, log zerolog.Logger) *Engine {
	return &Engine{
		scopeID: scopeID,
		store:   store,
		log:     log.With().Str("component", "ledger").Logger(),
		now:     time.Now,
	}
}

// OnCredit registers a post-mutation hook, fired whenever a transaction
// touches a customer who has SMS enabled. Register before serving traffic;
// registration is not synchronized with operations.
func (e *Engine) OnCredit(h CreditHook) {
	e.creditHooks = append(e.creditHooks, h)
}

func (e *Engine) persist(key string, v any) {
	if e.store != nil {
		e.store.Persist(e.scopeID, key, v)
	}
}

func (e *Engine) fireCreditHooks(tx models.Transaction, c models.Customer) {
	if !c.SMSEnabled {
		return
	}
	for _, h := range e.creditHooks {
		go h(tx, c)
	}
}

// --- Sales and payments ---

// Checkout assembles a transaction from a cart and records it. Item prices
// are snapshots taken here; later product edits never touch past sales.
func (e *Engine) Checkout(items []models.TransactionItem, customerID, paymentMethod, status string) models.Transaction {
	e.mu.Lock()
	subtotal := 0.0
	for _, it := range items {
		subtotal += it.Price * it.Quantity
	}
	charges := EvaluateCharges(e.chargeRules, subtotal, customerID)
	tx := models.Transaction{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		Date:          e.now(),
		Items:         items,
		Subtotal:      subtotal,
		Charges:       charges,
		Total:         ChargeTotal(subtotal, charges),
		Type:          models.TxTypeSale,
		PaymentMethod: paymentMethod,
		Status:        status,
	}
	if c := e.findCustomer(customerID); c != nil {
		tx.CustomerName = c.Name
	}
	e.mu.Unlock()

	return e.RecordSale(tx)
}

// RecordSale appends a fully-formed transaction to the ledger and applies its
// stock and customer effects. This is an append-only, best-effort path: a
// line item pointing at a deleted product is skipped, a dangling customer id
// credits nobody, and nothing here rolls back. Stock is adjusted at creation
// regardless of status, queued orders included; cancellation reverses it.
func (e *Engine) RecordSale(tx models.Transaction) models.Transaction {
	e.mu.Lock()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Date.IsZero() {
		tx.Date = e.now()
	}

	e.transactions = append(e.transactions, tx)

	for _, item := range tx.Items {
		if p := e.findProduct(item.ProductID); p != nil {
			p.Stock = Round2(p.Stock - item.Quantity)
		}
	}

	var updated *models.Customer
	if c := e.findCustomer(tx.CustomerID); c != nil {
		e.applyCustomerEffect(c, tx)
		snapshot := *c
		updated = &snapshot
	}

	e.persist(KeyTransactions, e.copyTransactions())
	e.persist(KeyProducts, e.copyProducts())
	e.persist(KeyCustomers, e.copyCustomers())
	e.mu.Unlock()

	if updated != nil {
		e.fireCreditHooks(tx, *updated)
	}

	e.log.Info().
		Str("tx", tx.ID).
		Str("type", tx.Type).
		Str("status", tx.Status).
		Float64("total", tx.Total).
		Msg("transaction recorded")

	return tx
}

// applyCustomerEffect folds one transaction into a customer's running
// figures. A payment reduces what they owe; an account-method sale grows it.
// TotalSpent counts sale amounts, never pure payments. Caller holds the lock.
func (e *Engine) applyCustomerEffect(c *models.Customer, tx models.Transaction) {
	if tx.Type == models.TxTypePayment {
		c.Balance = Round2(c.Balance - tx.Total)
	} else {
		if tx.PaymentMethod == models.PayAccount {
			c.Balance = Round2(c.Balance + tx.Total)
		}
		c.TotalSpent = Round2(c.TotalSpent + tx.Total)
	}
	c.LastVisit = e.now()
}

// RecordPayment settles part of a customer's outstanding balance. This is the
// one ledger path with a hard precondition: the amount must be a positive,
// finite number, checked before any state is touched.
func (e *Engine) RecordPayment(customerID string, amount float64) (models.Transaction, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.Transaction{}, ErrInvalidAmount
	}

	e.mu.Lock()
	c := e.findCustomer(customerID)
	if c == nil {
		e.mu.Unlock()
		return models.Transaction{}, ErrCustomerNotFound
	}
	tx := models.Transaction{
		ID:            uuid.NewString(),
		CustomerID:    customerID,
		CustomerName:  c.Name,
		Date:          e.now(),
		Items:         []models.TransactionItem{},
		Subtotal:      amount,
		Total:         amount,
		Type:          models.TxTypePayment,
		PaymentMethod: models.PayCash,
		Status:        models.StatusCompleted,
	}
	e.mu.Unlock()

	return e.RecordSale(tx), nil
}

// UpdateOrderStatus drives the one-way order state machine:
// queued -> completed or queued -> cancelled. Repeating a transition is a
// no-op (the status-equality guard is what makes completion effects fire at
// most once). Completing on the credit account requires a known customer.
// Cancelling restores the stock the order took at creation.
func (e *Engine) UpdateOrderStatus(txID, newStatus, paymentMethod string) (models.Transaction, error) {
	e.mu.Lock()

	tx := e.findTransaction(txID)
	if tx == nil {
		e.mu.Unlock()
		return models.Transaction{}, ErrTransactionNotFound
	}
	if tx.Status == newStatus {
		snapshot := *tx
		e.mu.Unlock()
		return snapshot, nil
	}
	if tx.Status != models.StatusQueued ||
		(newStatus != models.StatusCompleted && newStatus != models.StatusCancelled) {
		e.mu.Unlock()
		return models.Transaction{}, ErrInvalidTransition
	}

	method := tx.PaymentMethod
	if paymentMethod != "" {
		method = paymentMethod
	}

	// Validate before mutating: a guest order can never settle on account.
	if newStatus == models.StatusCompleted && method == models.PayAccount && tx.CustomerID == "" {
		e.mu.Unlock()
		return models.Transaction{}, ErrGuestAccountOrder
	}

	tx.Status = newStatus
	tx.PaymentMethod = method

	customersTouched := false
	productsTouched := false
	var updated *models.Customer

	switch newStatus {
	case models.StatusCompleted:
		if method == models.PayAccount {
			if c := e.findCustomer(tx.CustomerID); c != nil {
				e.applyCustomerEffect(c, *tx)
				snapshot := *c
				updated = &snapshot
				customersTouched = true
			}
		}
	case models.StatusCancelled:
		for _, item := range tx.Items {
			if p := e.findProduct(item.ProductID); p != nil {
				p.Stock = Round2(p.Stock + item.Quantity)
				productsTouched = true
			}
		}
	}

	snapshot := *tx
	e.persist(KeyTransactions, e.copyTransactions())
	if productsTouched {
		e.persist(KeyProducts, e.copyProducts())
	}
	if customersTouched {
		e.persist(KeyCustomers, e.copyCustomers())
	}
	e.mu.Unlock()

	if updated != nil {
		e.fireCreditHooks(snapshot, *updated)
	}

	e.log.Info().
		Str("tx", snapshot.ID).
		Str("status", newStatus).
		Msg("order status updated")

	return snapshot, nil
}

// DeleteTransaction removes an entry from history with no stock or balance
// reversal. It exists for the resume-queued-order flow, where the entry's
// effects are undone by the cart re-checkout, not here. Returns false when
// nothing matched.
func (e *Engine) DeleteTransaction(txID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.transactions {
		if e.transactions[i].ID == txID {
			e.transactions = append(e.transactions[:i], e.transactions[i+1:]...)
			e.persist(KeyTransactions, e.copyTransactions())
			return true
		}
	}
	return false
}

// --- Products ---

func (e *Engine) AddProduct(p models.Product) models.Product {
	e.mu.Lock()
	defer e.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	e.products = append(e.products, p)
	e.persist(KeyProducts, e.copyProducts())
	return p
}

func (e *Engine) UpdateProduct(p models.Product) (models.Product, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.products {
		if e.products[i].ID == p.ID {
			e.products[i] = p
			e.persist(KeyProducts, e.copyProducts())
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

func (e *Engine) DeleteProduct(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.products {
		if e.products[i].ID == id {
			e.products = append(e.products[:i], e.products[i+1:]...)
			e.persist(KeyProducts, e.copyProducts())
			return nil
		}
	}
	return ErrProductNotFound
}

// UpsertScannedProducts merges invoice-scan line items into the inventory:
// a match on name+variant restocks and reprices the existing product, anything
// else becomes a new product. Used by the AI invoice import.
func (e *Engine) UpsertScannedProducts(scanned []models.Product) []models.Product {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range scanned {
		merged := false
		for i := range e.products {
			if e.products[i].Name == s.Name && e.products[i].Variant == s.Variant {
				e.products[i].Stock = Round2(e.products[i].Stock + s.Stock)
				if s.Cost > 0 {
					e.products[i].Cost = s.Cost
				}
				if s.Price > 0 {
					e.products[i].Price = s.Price
				}
				merged = true
				break
			}
		}
		if !merged {
			if s.ID == "" {
				s.ID = uuid.NewString()
			}
			e.products = append(e.products, s)
		}
	}
	e.persist(KeyProducts, e.copyProducts())
	return e.copyProducts()
}

// --- Customers ---

func (e *Engine) AddCustomer(c models.Customer) models.Customer {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	e.customers = append(e.customers, c)
	e.persist(KeyCustomers, e.copyCustomers())
	return c
}

func (e *Engine) UpdateCustomer(c models.Customer) (models.Customer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.customers {
		if e.customers[i].ID == c.ID {
			e.customers[i] = c
			e.persist(KeyCustomers, e.copyCustomers())
			return c, nil
		}
	}
	return models.Customer{}, ErrCustomerNotFound
}

// DeleteCustomer refuses to drop anyone with money on the books. The 1-cent
// band absorbs float residue from repeated balance arithmetic. Historical
// transactions keep their denormalized customerName, so history survives the
// deletion.
func (e *Engine) DeleteCustomer(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.customers {
		if e.customers[i].ID == id {
			if math.Abs(e.customers[i].Balance) > 0.01 {
				return ErrCustomerHasBalance
			}
			e.customers = append(e.customers[:i], e.customers[i+1:]...)
			e.persist(KeyCustomers, e.copyCustomers())
			return nil
		}
	}
	return ErrCustomerNotFound
}

// --- Categories ---

func (e *Engine) AddCategory(name string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range e.categories {
		if c == name {
			return e.copyCategories()
		}
	}
	e.categories = append(e.categories, name)
	e.persist(KeyCategories, e.copyCategories())
	return e.copyCategories()
}

func (e *Engine) DeleteCategory(name string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, c := range e.categories {
		if c == name {
			e.categories = append(e.categories[:i], e.categories[i+1:]...)
			e.persist(KeyCategories, e.copyCategories())
			break
		}
	}
	return e.copyCategories()
}

// --- Charge rules ---

func (e *Engine) AddChargeRule(r models.ChargeRule) models.ChargeRule {
	e.mu.Lock()
	defer e.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	e.chargeRules = append(e.chargeRules, r)
	e.persist(KeyChargeRules, e.copyChargeRules())
	return r
}

func (e *Engine) UpdateChargeRule(r models.ChargeRule) (models.ChargeRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.chargeRules {
		if e.chargeRules[i].ID == r.ID {
			e.chargeRules[i] = r
			e.persist(KeyChargeRules, e.copyChargeRules())
			return r, nil
		}
	}
	return models.ChargeRule{}, ErrChargeRuleNotFound
}

func (e *Engine) DeleteChargeRule(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.chargeRules {
		if e.chargeRules[i].ID == id {
			e.chargeRules = append(e.chargeRules[:i], e.chargeRules[i+1:]...)
			e.persist(KeyChargeRules, e.copyChargeRules())
			return nil
		}
	}
	return ErrChargeRuleNotFound
}

// --- Backup / restore ---

// Export snapshots all five collections into the backup envelope.
func (e *Engine) Export() models.Backup {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.Backup{
		Products:     e.copyProducts(),
		Customers:    e.copyCustomers(),
		Transactions: e.copyTransactions(),
		Categories:   e.copyCategories(),
		ChargeRules:  e.copyChargeRules(),
		Timestamp:    e.now(),
		Version:      BackupVersion,
	}
}

// Seed loads collections at boot without writing anything back out; the data
// just came from the durable store, echoing it to every destination would be
// noise.
func (e *Engine) Seed(b models.Backup) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.products = append([]models.Product(nil), b.Products...)
	e.customers = append([]models.Customer(nil), b.Customers...)
	e.transactions = append([]models.Transaction(nil), b.Transactions...)
	e.categories = append([]string(nil), b.Categories...)
	e.chargeRules = append([]models.ChargeRule(nil), b.ChargeRules...)
}

// Import re-seeds collections from a backup envelope. Each collection is
// replaced independently; a key absent from the uploaded JSON (nil slice)
// leaves the current collection untouched.
func (e *Engine) Import(b models.Backup) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if b.Products != nil {
		e.products = append([]models.Product(nil), b.Products...)
		e.persist(KeyProducts, e.copyProducts())
	}
	if b.Customers != nil {
		e.customers = append([]models.Customer(nil), b.Customers...)
		e.persist(KeyCustomers, e.copyCustomers())
	}
	if b.Transactions != nil {
		e.transactions = append([]models.Transaction(nil), b.Transactions...)
		e.persist(KeyTransactions, e.copyTransactions())
	}
	if b.Categories != nil {
		e.categories = append([]string(nil), b.Categories...)
		e.persist(KeyCategories, e.copyCategories())
	}
	if b.ChargeRules != nil {
		e.chargeRules = append([]models.ChargeRule(nil), b.ChargeRules...)
		e.persist(KeyChargeRules, e.copyChargeRules())
	}

	e.log.Info().
		Int("products", len(b.Products)).
		Int("customers", len(b.Customers)).
		Int("transactions", len(b.Transactions)).
		Msg("backup imported")
}

// --- Read-only snapshots (UI copies, never the live slices) ---

func (e *Engine) Products() []models.Product {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyProducts()
}

func (e *Engine) Customers() []models.Customer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyCustomers()
}

// Transactions returns history in chronological order, oldest first.
func (e *Engine) Transactions() []models.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyTransactions()
}

func (e *Engine) Categories() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyCategories()
}

func (e *Engine) ChargeRules() []models.ChargeRule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyChargeRules()
}

func (e *Engine) ProductByID(id string) (models.Product, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p := e.findProduct(id); p != nil {
		return *p, true
	}
	return models.Product{}, false
}

func (e *Engine) CustomerByID(id string) (models.Customer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c := e.findCustomer(id); c != nil {
		return *c, true
	}
	return models.Customer{}, false
}

func (e *Engine) TransactionByID(id string) (models.Transaction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tx := e.findTransaction(id); tx != nil {
		return *tx, true
	}
	return models.Transaction{}, false
}

// --- internal lookups and copies (lock held) ---

func (e *Engine) findProduct(id string) *models.Product {
	if id == "" {
		return nil
	}
	for i := range e.products {
		if e.products[i].ID == id {
			return &e.products[i]
		}
	}
	return nil
}

func (e *Engine) findCustomer(id string) *models.Customer {
	if id == "" {
		return nil
	}
	for i := range e.customers {
		if e.customers[i].ID == id {
			return &e.customers[i]
		}
	}
	return nil
}

func (e *Engine) findTransaction(id string) *models.Transaction {
	for i := range e.transactions {
		if e.transactions[i].ID == id {
			return &e.transactions[i]
		}
	}
	return nil
}

// The copies are always non-nil so empty collections serialize as [] and the
// backup file never carries a null that an importer would read as "absent".

func (e *Engine) copyProducts() []models.Product {
	out := make([]models.Product, len(e.products))
	copy(out, e.products)
	return out
}

func (e *Engine) copyCustomers() []models.Customer {
	out := make([]models.Customer, len(e.customers))
	copy(out, e.customers)
	return out
}

func (e *Engine) copyTransactions() []models.Transaction {
	out := make([]models.Transaction, len(e.transactions))
	copy(out, e.transactions)
	return out
}

func (e *Engine) copyCategories() []string {
	out := make([]string, len(e.categories))
	copy(out, e.categories)
	return out
}

func (e *Engine) copyChargeRules() []models.ChargeRule {
	out := make([]models.ChargeRule, len(e.chargeRules))
	copy(out, e.chargeRules)
	return out
}
