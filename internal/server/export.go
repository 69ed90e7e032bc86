package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ExportProducts(c *gin.Context) {
	s.writeCSV(c, "products.csv", s.exportSvc.Products)
}

func (s *Server) ExportCustomers(c *gin.Context) {
	s.writeCSV(c, "customers.csv", s.exportSvc.Customers)
}

func (s *Server) ExportInvoices(c *gin.Context) {
	s.writeCSV(c, "invoices.csv", s.exportSvc.Invoices)
}

func (s *Server) writeCSV(c *gin.Context, filename string, render func(context.Context) ([]byte, error)) {
	body, err := render(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}
