package identity

import (
	"github.com/fintutto/zugang/internal/identity/repository"
	"github.com/fintutto/zugang/internal/identity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
