package response

import "github.com/gin-gonic/gin"

// Error is the machine-readable failure envelope. Code values are stable and
// documented for merchant integrations; Message is free-form.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "error": Error{Code: code, Message: message}})
}

func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}
