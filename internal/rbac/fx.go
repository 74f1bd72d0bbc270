package rbac

import (
	"github.com/fintutto/zugang/internal/rbac/repository"
	"github.com/fintutto/zugang/internal/rbac/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rbac.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
