package ledger

import (
	"sort"
	"time"

	"go-pos-ledger/internal/models"
)

// SalesReport is the shape of the analytics payload the dashboard renders.
type SalesReport struct {
	TotalRevenue float64              `json:"total_revenue"`
	TotalOrders  int                  `json:"total_orders"`
	TopSelling   []TopSeller          `json:"top_selling"`
	RecentSales  []models.Transaction `json:"recent_sales"`
}

type TopSeller struct {
	ProductName string  `json:"product_name"`
	Sold        float64 `json:"sold"`
	Revenue     float64 `json:"revenue"`
}

// Sales computes the dashboard report from completed sales. Cancelled and
// still-queued orders don't count as revenue. Recent sales come back newest
// first, capped at recentLimit.
func (e *Engine) Sales(recentLimit int) SalesReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := SalesReport{TopSelling: []TopSeller{}, RecentSales: []models.Transaction{}}
	byName := make(map[string]*TopSeller)

	for i := range e.transactions {
		tx := &e.transactions[i]
		if tx.Type != models.TxTypeSale || tx.Status != models.StatusCompleted {
			continue
		}
		report.TotalRevenue += tx.Total
		report.TotalOrders++

		for _, item := range tx.Items {
			name := item.Name
			if item.Variant != "" {
				name = name + " " + item.Variant
			}
			ts, ok := byName[name]
			if !ok {
				ts = &TopSeller{ProductName: name}
				byName[name] = ts
			}
			ts.Sold += item.Quantity
			ts.Revenue += item.Price * item.Quantity
		}
	}

	for _, ts := range byName {
		report.TopSelling = append(report.TopSelling, *ts)
	}
	sort.Slice(report.TopSelling, func(i, j int) bool {
		return report.TopSelling[i].Sold > report.TopSelling[j].Sold
	})
	if len(report.TopSelling) > 5 {
		report.TopSelling = report.TopSelling[:5]
	}

	// Last N transactions of any kind, newest first
	for i := len(e.transactions) - 1; i >= 0 && len(report.RecentSales) < recentLimit; i-- {
		report.RecentSales = append(report.RecentSales, e.transactions[i])
	}

	return report
}

// SalesBetween sums completed-sale revenue inside a date range. Used by the
// AI agent's report tool.
func (e *Engine) SalesBetween(start, end time.Time) (revenue float64, count int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.transactions {
		tx := &e.transactions[i]
		if tx.Type != models.TxTypeSale || tx.Status != models.StatusCompleted {
			continue
		}
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		revenue += tx.Total
		count++
	}
	return revenue, count
}

// ValuationItem represents a single row in the valuation table
type ValuationItem struct {
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	CostPrice float64 `json:"cost_price"`
	TotalCost float64 `json:"total_cost"`
}

// CategoryGroup represents one category's table in the valuation report
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     float64         `json:"subtotal"`
}

// Valuation is the final stock-valuation payload
type Valuation struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal float64         `json:"grand_total"`
}

// StockValuation calculates the total monetary value of all physical
// inventory, grouped by category. Negative (backordered) stock subtracts from
// the totals, which is exactly what the shop owes its shelf.
func (e *Engine) StockValuation() Valuation {
	e.mu.Lock()
	defer e.mu.Unlock()

	var grandTotal float64
	grouped := make(map[string]*CategoryGroup)
	var order []string

	for i := range e.products {
		p := &e.products[i]
		catName := p.Category
		if catName == "" {
			catName = "Uncategorized"
		}

		group, exists := grouped[catName]
		if !exists {
			group = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}}
			grouped[catName] = group
			order = append(order, catName)
		}

		itemTotal := p.Stock * p.Cost
		name := p.Name
		if p.Variant != "" {
			name = name + " " + p.Variant
		}
		group.Items = append(group.Items, ValuationItem{
			Name:      name,
			Quantity:  p.Stock,
			CostPrice: p.Cost,
			TotalCost: itemTotal,
		})
		group.Subtotal += itemTotal
		grandTotal += itemTotal
	}

	var resp Valuation
	resp.GrandTotal = grandTotal
	for _, cat := range order {
		resp.Categories = append(resp.Categories, *grouped[cat])
	}
	return resp
}

// LowStock lists products at or below their minimum stock level, the raw
// input for restock suggestions.
func (e *Engine) LowStock() []models.Product {
	e.mu.Lock()
	defer e.mu.Unlock()

	var low []models.Product
	for i := range e.products {
		if e.products[i].Stock <= e.products[i].MinStockLevel {
			low = append(low, e.products[i])
		}
	}
	return low
}

// SalesVelocity returns units sold per product over the trailing window,
// keyed by product id. Queued orders count too: they've claimed the stock.
func (e *Engine) SalesVelocity(window time.Duration) map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-window)
	velocity := make(map[string]float64)
	for i := range e.transactions {
		tx := &e.transactions[i]
		if tx.Type != models.TxTypeSale || tx.Status == models.StatusCancelled || tx.Date.Before(cutoff) {
			continue
		}
		for _, item := range tx.Items {
			velocity[item.ProductID] += item.Quantity
		}
	}
	return velocity
}
