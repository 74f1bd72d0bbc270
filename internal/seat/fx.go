package seat

import (
	"github.com/fintutto/zugang/internal/seat/repository"
	"github.com/fintutto/zugang/internal/seat/service"
	"go.uber.org/fx"
)

var Module = fx.Module("seat.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
