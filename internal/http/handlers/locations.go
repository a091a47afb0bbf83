package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Locations serves the muster-point list the mobile client shows on its map
// screen. The list is static for now; it moves to the store once sites are
// managed through the API.
func Locations(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"items": []gin.H{},
	})
}
