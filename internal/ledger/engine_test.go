package ledger

import (
	"testing"
	"time"

	"go-pos-ledger/internal/models"

	"github.com/rs/zerolog"
)

// recordingStore captures persistence calls so tests can assert what the
// engine tried to save, without any real I/O.
type recordingStore struct {
	keys []string
}

func (r *recordingStore) Persist(scopeID, key string, v any) {
	r.keys = append(r.keys, key)
}

func newTestEngine() (*Engine, *recordingStore) {
	store := &recordingStore{}
	e := New("SHOP-TEST", store, zerolog.Nop())
	return e, store
}

func seedShop(e *Engine) {
	e.Seed(models.Backup{
		Products: []models.Product{
			{ID: "p1", Name: "Sugar", Price: 100, Cost: 80, Stock: 50, MinStockLevel: 5},
			{ID: "p2", Name: "Rice", Variant: "5kg", Price: 400, Cost: 350, Stock: 20, MinStockLevel: 2},
		},
		Customers: []models.Customer{
			{ID: "c1", Name: "Asha", Phone: "9999", SMSEnabled: false},
		},
		Categories:  []string{"Grocery"},
		ChargeRules: []models.ChargeRule{},
	})
}

func saleTx(customerID, method, status string, total float64, items ...models.TransactionItem) models.Transaction {
	return models.Transaction{
		CustomerID:    customerID,
		Items:         items,
		Subtotal:      total,
		Total:         total,
		Type:          models.TxTypeSale,
		PaymentMethod: method,
		Status:        status,
	}
}

func TestRecordSaleDecrementsStock(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	e.RecordSale(saleTx("", models.PayCash, models.StatusCompleted, 200,
		models.TransactionItem{ProductID: "p1", Price: 100, Quantity: 2}))

	p, _ := e.ProductByID("p1")
	if p.Stock != 48 {
		t.Fatalf("p1 stock = %v, want 48", p.Stock)
	}
	if len(e.Transactions()) != 1 {
		t.Fatalf("expected 1 transaction in history")
	}
}

func TestRecordSaleMissingProductIsNoOp(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	e.RecordSale(saleTx("", models.PayCash, models.StatusCompleted, 100,
		models.TransactionItem{ProductID: "ghost", Price: 100, Quantity: 1},
		models.TransactionItem{ProductID: "p2", Price: 400, Quantity: 1}))

	p1, _ := e.ProductByID("p1")
	p2, _ := e.ProductByID("p2")
	if p1.Stock != 50 {
		t.Errorf("p1 stock changed to %v, want untouched 50", p1.Stock)
	}
	if p2.Stock != 19 {
		t.Errorf("p2 stock = %v, want 19", p2.Stock)
	}
}

func TestAccountSaleGrowsBalanceAndSpend(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	e.RecordSale(saleTx("c1", models.PayAccount, models.StatusCompleted, 150))

	c, _ := e.CustomerByID("c1")
	if c.Balance != 150 {
		t.Errorf("balance = %v, want 150", c.Balance)
	}
	if c.TotalSpent != 150 {
		t.Errorf("totalSpent = %v, want 150", c.TotalSpent)
	}
	if c.LastVisit.IsZero() {
		t.Errorf("lastVisit not updated")
	}
}

func TestCashSaleCountsSpendOnly(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	e.RecordSale(saleTx("c1", models.PayCash, models.StatusCompleted, 75))

	c, _ := e.CustomerByID("c1")
	if c.Balance != 0 {
		t.Errorf("balance = %v, want 0", c.Balance)
	}
	if c.TotalSpent != 75 {
		t.Errorf("totalSpent = %v, want 75", c.TotalSpent)
	}
}

func TestPaymentReducesBalance(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	e.RecordSale(saleTx("c1", models.PayAccount, models.StatusCompleted, 150))
	if _, err := e.RecordPayment("c1", 150); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	c, _ := e.CustomerByID("c1")
	if c.Balance != 0 {
		t.Errorf("balance = %v, want 0", c.Balance)
	}
	// a pure payment never counts as spend
	if c.TotalSpent != 150 {
		t.Errorf("totalSpent = %v, want 150", c.TotalSpent)
	}
}

func TestPaymentValidation(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	for _, amount := range []float64{0, -5} {
		if _, err := e.RecordPayment("c1", amount); err != ErrInvalidAmount {
			t.Errorf("amount %v: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if _, err := e.RecordPayment("ghost", 10); err != ErrCustomerNotFound {
		t.Errorf("unknown customer: err = %v, want ErrCustomerNotFound", err)
	}
	if len(e.Transactions()) != 0 {
		t.Errorf("rejected payments must not append to history")
	}
}

func TestSaleWithUnknownCustomerIsTolerated(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	e.RecordSale(saleTx("ghost", models.PayAccount, models.StatusCompleted, 99,
		models.TransactionItem{ProductID: "p1", Price: 99, Quantity: 1}))

	// the sale still lands in history and stock still moves
	if len(e.Transactions()) != 1 {
		t.Fatalf("transaction not recorded")
	}
	p, _ := e.ProductByID("p1")
	if p.Stock != 49 {
		t.Errorf("p1 stock = %v, want 49", p.Stock)
	}
}

func TestQueuedOrderLifecycle(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	tx := e.RecordSale(saleTx("c1", models.PayPending, models.StatusQueued, 400,
		models.TransactionItem{ProductID: "p2", Price: 400, Quantity: 1}))

	// stock is claimed at creation, queued or not
	p, _ := e.ProductByID("p2")
	if p.Stock != 19 {
		t.Fatalf("queued order did not claim stock: %v", p.Stock)
	}

	// complete on the account: balance effect fires exactly once
	if _, err := e.UpdateOrderStatus(tx.ID, models.StatusCompleted, models.PayAccount); err != nil {
		t.Fatalf("complete: %v", err)
	}
	c, _ := e.CustomerByID("c1")
	if c.Balance != 400 {
		t.Fatalf("balance = %v, want 400", c.Balance)
	}

	// repeating the completion is a guarded no-op
	if _, err := e.UpdateOrderStatus(tx.ID, models.StatusCompleted, models.PayAccount); err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	c, _ = e.CustomerByID("c1")
	if c.Balance != 400 {
		t.Errorf("repeat completion re-applied balance: %v", c.Balance)
	}

	// a completed order can no longer be cancelled
	if _, err := e.UpdateOrderStatus(tx.ID, models.StatusCancelled, ""); err != ErrInvalidTransition {
		t.Errorf("complete->cancel err = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelRestoresStock(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	tx := e.RecordSale(saleTx("", models.PayPending, models.StatusQueued, 800,
		models.TransactionItem{ProductID: "p2", Price: 400, Quantity: 2}))

	if _, err := e.UpdateOrderStatus(tx.ID, models.StatusCancelled, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	p, _ := e.ProductByID("p2")
	if p.Stock != 20 {
		t.Errorf("stock after cancel = %v, want the original 20", p.Stock)
	}

	// cancelling again must not inflate stock
	if _, err := e.UpdateOrderStatus(tx.ID, models.StatusCancelled, ""); err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
	p, _ = e.ProductByID("p2")
	if p.Stock != 20 {
		t.Errorf("repeat cancel double-adjusted stock: %v", p.Stock)
	}
}

func TestGuestOrderCannotCompleteOnAccount(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	tx := e.RecordSale(saleTx("", models.PayPending, models.StatusQueued, 100,
		models.TransactionItem{ProductID: "p1", Price: 100, Quantity: 1}))

	if _, err := e.UpdateOrderStatus(tx.ID, models.StatusCompleted, models.PayAccount); err != ErrGuestAccountOrder {
		t.Fatalf("err = %v, want ErrGuestAccountOrder", err)
	}

	// the rejection left the order untouched
	got, _ := e.TransactionByID(tx.ID)
	if got.Status != models.StatusQueued {
		t.Errorf("status mutated to %q on rejected transition", got.Status)
	}
}

func TestBalanceFoldAcrossMixedHistory(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	e.RecordSale(saleTx("c1", models.PayAccount, models.StatusCompleted, 100))
	e.RecordSale(saleTx("c1", models.PayCash, models.StatusCompleted, 40))
	queued := e.RecordSale(saleTx("c1", models.PayPending, models.StatusQueued, 60))
	e.UpdateOrderStatus(queued.ID, models.StatusCompleted, models.PayAccount)
	e.RecordPayment("c1", 110)

	// fold: +100 (account) +0 (cash) +60 (account completion) -110 (payment)
	c, _ := e.CustomerByID("c1")
	if c.Balance != 50 {
		t.Errorf("balance = %v, want 50", c.Balance)
	}
}

func TestDeleteTransactionIsPureRemoval(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	tx := e.RecordSale(saleTx("", models.PayPending, models.StatusQueued, 100,
		models.TransactionItem{ProductID: "p1", Price: 100, Quantity: 1}))

	if !e.DeleteTransaction(tx.ID) {
		t.Fatalf("DeleteTransaction returned false for existing tx")
	}
	if e.DeleteTransaction(tx.ID) {
		t.Fatalf("DeleteTransaction returned true for missing tx")
	}

	// no reversal: the resume-to-cart flow re-checks-out, restoring nothing here
	p, _ := e.ProductByID("p1")
	if p.Stock != 49 {
		t.Errorf("stock = %v, want 49 (no reversal on delete)", p.Stock)
	}
	if len(e.Transactions()) != 0 {
		t.Errorf("history not empty after delete")
	}
}

func TestDeleteCustomerBalanceGuard(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	e.RecordSale(saleTx("c1", models.PayAccount, models.StatusCompleted, 150))
	if err := e.DeleteCustomer("c1"); err != ErrCustomerHasBalance {
		t.Fatalf("err = %v, want ErrCustomerHasBalance", err)
	}

	e.RecordPayment("c1", 150)
	if err := e.DeleteCustomer("c1"); err != nil {
		t.Fatalf("delete with settled balance: %v", err)
	}
	if _, ok := e.CustomerByID("c1"); ok {
		t.Errorf("customer still present after delete")
	}
}

func TestDeleteCustomerToleratesFloatResidue(t *testing.T) {
	e, _ := newTestEngine()
	e.Seed(models.Backup{Customers: []models.Customer{{ID: "c9", Name: "Residue", Balance: 0.009}}})

	if err := e.DeleteCustomer("c9"); err != nil {
		t.Fatalf("balance within the 1-cent band should be deletable: %v", err)
	}
}

func TestStockRoundingOnFractionalQuantities(t *testing.T) {
	e, _ := newTestEngine()
	e.Seed(models.Backup{Products: []models.Product{
		{ID: "loose", Name: "Dal", Price: 90, Stock: 10, IsVariablePrice: true},
	}})

	// 0.1 three times: naive float math drifts, the ledger must not
	for i := 0; i < 3; i++ {
		e.RecordSale(saleTx("", models.PayCash, models.StatusCompleted, 9,
			models.TransactionItem{ProductID: "loose", Price: 90, Quantity: 0.1}))
	}

	p, _ := e.ProductByID("loose")
	if p.Stock != 9.7 {
		t.Errorf("stock = %v, want exactly 9.7", p.Stock)
	}
}

func TestCheckoutComputesTotalsAndSnapshots(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	tx := e.Checkout([]models.TransactionItem{
		{ProductID: "p1", Name: "Sugar", Price: 100, Quantity: 2},
	}, "", models.PayCash, models.StatusCompleted)

	if tx.Subtotal != 200 || tx.Total != 200 {
		t.Errorf("subtotal/total = %v/%v, want 200/200", tx.Subtotal, tx.Total)
	}
	if tx.Type != models.TxTypeSale || tx.ID == "" || tx.Date.IsZero() {
		t.Errorf("checkout did not stamp the transaction: %+v", tx)
	}

	p, _ := e.ProductByID("p1")
	if p.Stock != 48 {
		t.Errorf("stock = %v, want 48", p.Stock)
	}

	// editing the product later must not touch the recorded sale
	p.Price = 999
	e.UpdateProduct(p)
	got, _ := e.TransactionByID(tx.ID)
	if got.Items[0].Price != 100 {
		t.Errorf("item price = %v, want frozen 100", got.Items[0].Price)
	}
}

func TestCheckoutAppliesChargeRules(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)
	e.AddChargeRule(models.ChargeRule{
		Name: "Festival Discount", Type: "percent", Value: 10,
		IsDiscount: true, Trigger: models.TriggerAlways, Enabled: true,
	})

	tx := e.Checkout([]models.TransactionItem{
		{ProductID: "p1", Price: 100, Quantity: 2},
	}, "", models.PayCash, models.StatusCompleted)

	if len(tx.Charges) != 1 || tx.Charges[0].Amount != 20 {
		t.Fatalf("charges = %+v, want one 20.00 discount", tx.Charges)
	}
	if tx.Total != 180 {
		t.Errorf("total = %v, want 180", tx.Total)
	}
}

func TestCreditHookFiresOnlyWhenSMSEnabled(t *testing.T) {
	e, _ := newTestEngine()
	e.Seed(models.Backup{Customers: []models.Customer{
		{ID: "quiet", Name: "Quiet"},
		{ID: "loud", Name: "Loud", SMSEnabled: true},
	}})

	fired := make(chan string, 4)
	e.OnCredit(func(tx models.Transaction, c models.Customer) {
		fired <- c.ID
	})

	e.RecordSale(saleTx("quiet", models.PayAccount, models.StatusCompleted, 10))
	e.RecordSale(saleTx("loud", models.PayAccount, models.StatusCompleted, 20))

	select {
	case id := <-fired:
		if id != "loud" {
			t.Fatalf("hook fired for %q", id)
		}
	case <-time.After(time.Second):
		t.Fatal("hook never fired for SMS-enabled customer")
	}
	select {
	case id := <-fired:
		t.Fatalf("unexpected extra hook for %q", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHookReceivesUpdatedBalance(t *testing.T) {
	e, _ := newTestEngine()
	e.Seed(models.Backup{Customers: []models.Customer{
		{ID: "c1", Name: "Asha", SMSEnabled: true, Balance: 100},
	}})

	got := make(chan models.Customer, 1)
	e.OnCredit(func(tx models.Transaction, c models.Customer) { got <- c })

	e.RecordSale(saleTx("c1", models.PayAccount, models.StatusCompleted, 50))

	select {
	case c := <-got:
		if c.Balance != 150 {
			t.Errorf("hook saw balance %v, want the post-mutation 150", c.Balance)
		}
	case <-time.After(time.Second):
		t.Fatal("hook never fired")
	}
}

func TestPersistKeysPerOperation(t *testing.T) {
	e, store := newTestEngine()
	seedShop(e)
	store.keys = nil

	e.RecordSale(saleTx("c1", models.PayCash, models.StatusCompleted, 10))

	want := map[string]bool{KeyTransactions: true, KeyProducts: true, KeyCustomers: true}
	for _, k := range store.keys {
		delete(want, k)
	}
	if len(want) != 0 {
		t.Errorf("recordSale did not persist %v (got %v)", want, store.keys)
	}

	store.keys = nil
	e.AddProduct(models.Product{Name: "New"})
	if len(store.keys) != 1 || store.keys[0] != KeyProducts {
		t.Errorf("addProduct persisted %v, want just products", store.keys)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)
	e.AddChargeRule(models.ChargeRule{Name: "Service", Type: "fixed", Value: 5, Trigger: models.TriggerAlways, Enabled: true})
	e.RecordSale(saleTx("c1", models.PayAccount, models.StatusCompleted, 60,
		models.TransactionItem{ProductID: "p1", Price: 60, Quantity: 1}))

	backup := e.Export()
	if backup.Version != BackupVersion || backup.Timestamp.IsZero() {
		t.Fatalf("export missing version/timestamp: %+v", backup)
	}

	restored, _ := newTestEngine()
	restored.Import(backup)
	round := restored.Export()

	if len(round.Products) != len(backup.Products) ||
		len(round.Customers) != len(backup.Customers) ||
		len(round.Transactions) != len(backup.Transactions) ||
		len(round.Categories) != len(backup.Categories) ||
		len(round.ChargeRules) != len(backup.ChargeRules) {
		t.Fatalf("round trip changed collection sizes")
	}
	if round.Customers[0].Balance != backup.Customers[0].Balance {
		t.Errorf("balance drifted through round trip")
	}
	if round.Transactions[0].Total != 60 {
		t.Errorf("transaction total drifted: %v", round.Transactions[0].Total)
	}
}

func TestImportLeavesAbsentCollectionsAlone(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	e.Import(models.Backup{Products: []models.Product{{ID: "only", Name: "Only"}}})

	if len(e.Products()) != 1 {
		t.Errorf("products not replaced")
	}
	if len(e.Customers()) != 1 {
		t.Errorf("customers should be untouched by a products-only import")
	}
	if len(e.Categories()) != 1 {
		t.Errorf("categories should be untouched")
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	products := e.Products()
	products[0].Stock = -999

	p, _ := e.ProductByID("p1")
	if p.Stock != 50 {
		t.Errorf("mutating a snapshot reached engine state: %v", p.Stock)
	}
}

func TestUpsertScannedProductsMergesByNameVariant(t *testing.T) {
	e, _ := newTestEngine()
	seedShop(e)

	e.UpsertScannedProducts([]models.Product{
		{Name: "Rice", Variant: "5kg", Stock: 10, Cost: 360},
		{Name: "Oil", Variant: "1L", Stock: 12, Cost: 110, Price: 130},
	})

	p2, _ := e.ProductByID("p2")
	if p2.Stock != 30 {
		t.Errorf("existing product stock = %v, want 30", p2.Stock)
	}
	if p2.Cost != 360 {
		t.Errorf("existing product cost = %v, want updated 360", p2.Cost)
	}

	all := e.Products()
	if len(all) != 3 {
		t.Fatalf("product count = %d, want 3", len(all))
	}
	if all[2].Name != "Oil" || all[2].ID == "" {
		t.Errorf("new product not created properly: %+v", all[2])
	}
}
