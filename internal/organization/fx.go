package organization

import (
	"github.com/fintutto/zugang/internal/organization/repository"
	"github.com/fintutto/zugang/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
