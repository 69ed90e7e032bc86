package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicepos/internal/business"
	"github.com/smallbiznis/invoicepos/internal/clock"
	"github.com/smallbiznis/invoicepos/internal/config"
	"github.com/smallbiznis/invoicepos/internal/customer"
	"github.com/smallbiznis/invoicepos/internal/export"
	"github.com/smallbiznis/invoicepos/internal/invoice"
	"github.com/smallbiznis/invoicepos/internal/migration"
	"github.com/smallbiznis/invoicepos/internal/observability"
	"github.com/smallbiznis/invoicepos/internal/product"
	"github.com/smallbiznis/invoicepos/internal/providers/pdf"
	"github.com/smallbiznis/invoicepos/internal/ratelimit"
	"github.com/smallbiznis/invoicepos/internal/server"
	"github.com/smallbiznis/invoicepos/internal/upload"
	"github.com/smallbiznis/invoicepos/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		business.Module,
		product.Module,
		customer.Module,
		invoice.Module,
		pdf.Module,
		export.Module,
		upload.Module,
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
