package business

import (
	"github.com/smallbiznis/invoicepos/internal/business/service"
	"go.uber.org/fx"
)

var Module = fx.Module("business.service",
	fx.Provide(service.New),
)
