package middleware

import (
	"github.com/annel0/bookit/internal/session"
	"github.com/gin-gonic/gin"
)

// ClientIDKey — ключ gin.Context с идентификатором клиента.
const ClientIDKey = "client_id"

// ClientID выдаёт каждому клиенту постоянный идентификатор (cookie client_id),
// по которому адресуется его кеш.
func ClientID(opts session.CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ClientIDKey, session.ClientID(c.Writer, c.Request, opts))
		c.Next()
	}
}

// GetClientID возвращает идентификатор клиента текущего запроса.
func GetClientID(c *gin.Context) string {
	return c.GetString(ClientIDKey)
}
