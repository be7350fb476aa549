package customer

import (
	"github.com/smallbiznis/membership/internal/customer/repository"
	"github.com/smallbiznis/membership/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
