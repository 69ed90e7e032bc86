package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicepos/internal/businesscontext"
	obscontext "github.com/smallbiznis/invoicepos/internal/observability/context"
)

const (
	HeaderBusiness     = "X-Business-ID"
	queryBusinessIDKey = "business_id"
)

// BusinessRequired resolves the tenant from X-Business-ID or ?business_id and
// rejects requests whose business does not exist.
func (s *Server) BusinessRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderBusiness))
		if raw == "" {
			raw = strings.TrimSpace(c.Query(queryBusinessIDKey))
		}
		if raw == "" {
			AbortWithError(c, ErrBusinessRequired)
			return
		}

		business, err := s.businessSvc.GetByID(c.Request.Context(), raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := businesscontext.WithBusinessID(c.Request.Context(), business.ID)
		ctx = obscontext.WithBusinessID(ctx, business.ID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
