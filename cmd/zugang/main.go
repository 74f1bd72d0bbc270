package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/fintutto/zugang/internal/clock"
	"github.com/fintutto/zugang/internal/config"
	"github.com/fintutto/zugang/internal/migration"
	"github.com/fintutto/zugang/internal/observability"
	"github.com/fintutto/zugang/internal/server"
	"github.com/fintutto/zugang/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
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
