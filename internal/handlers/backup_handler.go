package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go-pos-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

// --- GET: Download a full backup ---
func ExportBackup(c *gin.Context) {
	backup := Ledger.Export()

	filename := fmt.Sprintf("pos-backup-%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.JSON(http.StatusOK, backup)
}

// --- POST: Restore from an uploaded backup ---
// Each collection present in the file replaces the live one; collections
// absent from the file are left exactly as they were.
func ImportBackup(c *gin.Context) {
	var backup models.Backup
	if err := c.ShouldBindJSON(&backup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid backup file"})
		return
	}

	Ledger.Import(backup)

	c.JSON(http.StatusOK, gin.H{
		"message":      "Backup restored successfully",
		"products":     len(backup.Products),
		"customers":    len(backup.Customers),
		"transactions": len(backup.Transactions),
	})
}
