package handlers

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go-pos-ledger/internal/ai"
	"go-pos-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

// --- POST: Scan a supplier invoice photo into the inventory ---
func ScanInvoice(c *gin.Context) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI features are not configured"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No invoice image uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}

	format := strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")
	if format == "" || format == "jpg" {
		format = "jpeg"
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	scanned, err := ai.ScanInvoice(ctx, apiKey, image, format)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Invoice scan failed: " + err.Error()})
		return
	}

	// Turn invoice lines into products; the engine merges by name+variant.
	imported := make([]models.Product, 0, len(scanned))
	for _, item := range scanned {
		if item.Name == "" || item.Quantity <= 0 {
			continue
		}
		imported = append(imported, models.Product{
			Name:    item.Name,
			Variant: item.Variant,
			Stock:   item.Quantity,
			Cost:    item.Cost,
			Price:   item.Price,
		})
	}

	products := Ledger.UpsertScannedProducts(imported)
	c.JSON(http.StatusOK, gin.H{
		"imported": len(imported),
		"products": products,
	})
}

// --- GET: Restock suggestions ---
// Falls back to the raw low-stock list when no API key is configured, so the
// feature degrades instead of disappearing.
func RestockSuggestions(c *gin.Context) {
	low := Ledger.LowStock()
	velocity := Ledger.SalesVelocity(30 * 24 * time.Hour)

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		c.JSON(http.StatusOK, gin.H{"low_stock": low})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	suggestion, err := ai.RestockSuggestions(ctx, apiKey, low, velocity)
	if err != nil {
		// AI down is not a reason to hide the numbers
		c.JSON(http.StatusOK, gin.H{"low_stock": low})
		return
	}

	c.JSON(http.StatusOK, gin.H{"low_stock": low, "suggestion": suggestion})
}
