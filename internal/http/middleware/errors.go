package middleware

import "github.com/gin-gonic/gin"

// Error codes emitted directly by middleware. They match the codes the
// handlers package uses so clients see one vocabulary.
const (
	codeAuthRequired       = "AUTHENTICATION_REQUIRED"
	codeForbidden          = "FORBIDDEN"
	codeMembershipRequired = "MEMBERSHIP_REQUIRED"
	codeInvalidIdemKey     = "INVALID_IDEMPOTENCY_KEY"
	codeRateLimited        = "RATE_LIMITED"
	codeInternal           = "INTERNAL_ERROR"
)

// abortError writes the standard error envelope and stops the chain.
func abortError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"request_id": RequestIDFrom(c),
		"code":       code,
		"message":    msg,
	})
}
