package handlers

import (
	"errors"
	"net/http"

	"go-pos-ledger/internal/ledger"
	"go-pos-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

// --- GET: List all products ---
func GetProducts(c *gin.Context) {
	c.JSON(http.StatusOK, Ledger.Products())
}

// --- POST: Add a new product ---
func AddProduct(c *gin.Context) {
	var newProduct models.Product
	if err := c.ShouldBindJSON(&newProduct); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if newProduct.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product name is required"})
		return
	}

	created := Ledger.AddProduct(newProduct)
	c.JSON(http.StatusCreated, created)
}

// --- PUT: Replace a product by id ---
// The engine treats product edits as whole-record replacement, so the
// frontend sends the full product back, not a patch.
func UpdateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	product.ID = c.Param("id")

	updated, err := Ledger.UpdateProduct(product)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// --- DELETE: Remove a product ---
// Past sales keep their item snapshots, so deleting a product never corrupts
// history; future sales referencing the stale id are silently tolerated.
func DeleteProduct(c *gin.Context) {
	if err := Ledger.DeleteProduct(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

// --- Categories ---

func GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, Ledger.Categories())
}

type categoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func AddCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category name is required"})
		return
	}
	c.JSON(http.StatusOK, Ledger.AddCategory(req.Name))
}

func DeleteCategory(c *gin.Context) {
	c.JSON(http.StatusOK, Ledger.DeleteCategory(c.Param("name")))
}

// --- Charge rules ---

func GetChargeRules(c *gin.Context) {
	c.JSON(http.StatusOK, Ledger.ChargeRules())
}

func AddChargeRule(c *gin.Context) {
	var rule models.ChargeRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	c.JSON(http.StatusCreated, Ledger.AddChargeRule(rule))
}

func UpdateChargeRule(c *gin.Context) {
	var rule models.ChargeRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	rule.ID = c.Param("id")

	updated, err := Ledger.UpdateChargeRule(rule)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Charge rule not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func DeleteChargeRule(c *gin.Context) {
	if err := Ledger.DeleteChargeRule(c.Param("id")); err != nil {
		if errors.Is(err, ledger.ErrChargeRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Charge rule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete charge rule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Charge rule deleted successfully"})
}
