package migration

import (
	"context"

	"github.com/smallbiznis/invoicepos/internal/config"
	"github.com/smallbiznis/invoicepos/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else if err := AutoMigrate(conn); err != nil {
			return err
		}

		log.Info("schema ready", zap.String("database_type", cfg.DBType))
		return seed.EnsureInvoiceSequence(context.Background(), conn)
	}),
)
