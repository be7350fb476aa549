package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/membership/internal/auth"
	"github.com/smallbiznis/membership/internal/authorization"
	"github.com/smallbiznis/membership/internal/clock"
	"github.com/smallbiznis/membership/internal/config"
	"github.com/smallbiznis/membership/internal/customer"
	"github.com/smallbiznis/membership/internal/migration"
	"github.com/smallbiznis/membership/internal/observability"
	"github.com/smallbiznis/membership/internal/ratelimit"
	"github.com/smallbiznis/membership/internal/server"
	"github.com/smallbiznis/membership/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,

		// Domains
		auth.Module,
		customer.Module,
		authorization.Module,
		ratelimit.Module,

		// Migrations and the admin seed run before the server is wired.
		migration.Module,
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
