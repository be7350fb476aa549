package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/membership/internal/auth/domain"
	"github.com/smallbiznis/membership/internal/clock"
	"github.com/smallbiznis/membership/internal/config"
	"github.com/smallbiznis/membership/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		return Run(conn, cfg.DBType)
	}),
	fx.Invoke(func(repo authdomain.Repository, node *snowflake.Node, clk clock.Clock, cfg config.Config, log *zap.Logger) error {
		_, err := seed.EnsureAdmin(context.Background(), repo, node, clk, cfg.Bootstrap, log.Named("seed"))
		return err
	}),
)
