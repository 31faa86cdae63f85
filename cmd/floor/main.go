package main

import (
	orderhandler "tablebook/internal/orders/handler"
	orderrepo "tablebook/internal/orders/repository"
	orderservice "tablebook/internal/orders/service"
	ordervalidator "tablebook/internal/orders/validator"
	reservationrepo "tablebook/internal/reservations/repository"
	tablehandler "tablebook/internal/tables/handler"
	tablerepo "tablebook/internal/tables/repository"
	tableservice "tablebook/internal/tables/service"
	tablevalidator "tablebook/internal/tables/validator"
	"tablebook/pkg/app"
	"tablebook/pkg/clock"
	"tablebook/pkg/config"
	"tablebook/pkg/contracts"
)

const ServiceName = "floor"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Floor service")
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(initServices(cfg)...)
	serverApp.Run()
}

func initServices(cfg *config.Config) []contracts.Handler {
	clk := clock.System()

	tableService := tableservice.NewTableService(
		tablerepo.NewMongoTableRepository(cfg),
		reservationrepo.NewMongoReservationRepository(cfg),
		tablevalidator.NewTableValidator(cfg.Log),
		clk,
		cfg,
	)

	orderService := orderservice.NewOrderService(
		orderrepo.NewMongoOrderRepository(cfg),
		orderrepo.NewMongoOrderItemRepository(cfg),
		orderrepo.NewMongoMenuItemRepository(cfg),
		ordervalidator.NewOrderValidator(cfg.Log),
		clk,
		cfg,
	)

	cfg.Log.Info("Floor services initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		tablehandler.NewTableHandler(tableService, cfg.Log),
		orderhandler.NewOrderHandler(orderService, cfg.Log),
	}
}
