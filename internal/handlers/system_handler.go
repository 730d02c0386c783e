package handlers

import (
	"net/http"
	"os"

	"go-pos-ledger/internal/utils"

	"github.com/gin-gonic/gin"
)

// GetSystemStatus feeds the settings screen its shop identity and which
// persistence destinations this terminal is wired to.
func GetSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"shop_id":       utils.ShopID(),
		"remote_sync":   os.Getenv("API_BASE_URL") != "",
		"folder_export": os.Getenv("EXPORT_DIR") != "",
		"sms_gateway":   os.Getenv("SMS_GATEWAY_URL") != "",
		"ai_enabled":    os.Getenv("GEMINI_API_KEY") != "",
	})
}
