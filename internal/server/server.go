package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	businessdomain "github.com/smallbiznis/invoicepos/internal/business/domain"
	"github.com/smallbiznis/invoicepos/internal/config"
	customerdomain "github.com/smallbiznis/invoicepos/internal/customer/domain"
	"github.com/smallbiznis/invoicepos/internal/export"
	invoicedomain "github.com/smallbiznis/invoicepos/internal/invoice/domain"
	"github.com/smallbiznis/invoicepos/internal/observability"
	obsmiddleware "github.com/smallbiznis/invoicepos/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/invoicepos/internal/observability/metrics"
	obstracing "github.com/smallbiznis/invoicepos/internal/observability/tracing"
	productdomain "github.com/smallbiznis/invoicepos/internal/product/domain"
	"github.com/smallbiznis/invoicepos/internal/ratelimit"
	"github.com/smallbiznis/invoicepos/internal/upload"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if httpMetrics != nil {
		r.Use(httpMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	businessSvc  businessdomain.Service
	productSvc   productdomain.Service
	customerSvc  customerdomain.Service
	invoiceSvc   invoicedomain.Service
	exportSvc    *export.Service
	uploadSvc    *upload.Service
	writeLimiter *ratelimit.WriteLimiter
	obsMetrics   *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	BusinessSvc  businessdomain.Service
	ProductSvc   productdomain.Service
	CustomerSvc  customerdomain.Service
	InvoiceSvc   invoicedomain.Service
	ExportSvc    *export.Service
	UploadSvc    *upload.Service
	WriteLimiter *ratelimit.WriteLimiter `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics     `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		businessSvc:  p.BusinessSvc,
		productSvc:   p.ProductSvc,
		customerSvc:  p.CustomerSvc,
		invoiceSvc:   p.InvoiceSvc,
		exportSvc:    p.ExportSvc,
		uploadSvc:    p.UploadSvc,
		writeLimiter: p.WriteLimiter,
		obsMetrics:   p.ObsMetrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api")

	// -------- Businesses --------
	businesses := api.Group("/businesses", s.WriteRateLimit())
	businesses.POST("", s.CreateBusiness)
	businesses.GET("", s.ListBusinesses)
	businesses.GET("/:id", s.GetBusinessByID)
	businesses.PUT("/:id", s.UpdateBusiness)
	businesses.DELETE("/:id", s.DeleteBusiness)

	// -------- Uploads --------
	uploads := api.Group("/uploads/business/:id", s.WriteRateLimit())
	uploads.POST("/logo", s.UploadLogo)
	uploads.POST("/signature", s.UploadSignature)

	scoped := api.Group("", s.BusinessRequired(), s.WriteRateLimit())

	// -------- Products --------
	scoped.POST("/products", s.CreateProduct)
	scoped.GET("/products", s.ListProducts)
	scoped.GET("/products/:id", s.GetProductByID)
	scoped.PUT("/products/:id", s.UpdateProduct)
	scoped.DELETE("/products/:id", s.DeleteProduct)

	// -------- Customers --------
	scoped.POST("/customers", s.CreateCustomer)
	scoped.GET("/customers", s.ListCustomers)
	scoped.GET("/customers/:id", s.GetCustomerByID)
	scoped.PUT("/customers/:id", s.UpdateCustomer)
	scoped.DELETE("/customers/:id", s.DeleteCustomer)

	// -------- Invoices --------
	scoped.POST("/invoices", s.CreateInvoice)
	scoped.GET("/invoices", s.ListInvoices)
	scoped.GET("/invoices/:id", s.GetInvoiceByID)
	scoped.PUT("/invoices/:id", s.UpdateInvoice)
	scoped.DELETE("/invoices/:id", s.DeleteInvoice)
	scoped.GET("/invoices/:id/pdf", s.GetInvoicePDF)

	// -------- Export --------
	scoped.GET("/export/products.csv", s.ExportProducts)
	scoped.GET("/export/customers.csv", s.ExportCustomers)
	scoped.GET("/export/invoices.csv", s.ExportInvoices)
}
