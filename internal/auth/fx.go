package auth

import (
	"github.com/smallbiznis/membership/internal/auth/repository"
	"github.com/smallbiznis/membership/internal/auth/service"
	"github.com/smallbiznis/membership/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(token.Provide),
	fx.Provide(service.New),
)
