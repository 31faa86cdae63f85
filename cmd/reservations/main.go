package main

import (
	"time"

	"tablebook/internal/allocation"
	hourshandler "tablebook/internal/businesshours/handler"
	hoursrepo "tablebook/internal/businesshours/repository"
	hoursservice "tablebook/internal/businesshours/service"
	hoursvalidator "tablebook/internal/businesshours/validator"
	reservationhandler "tablebook/internal/reservations/handler"
	reservationrepo "tablebook/internal/reservations/repository"
	reservationservice "tablebook/internal/reservations/service"
	reservationvalidator "tablebook/internal/reservations/validator"
	tablerepo "tablebook/internal/tables/repository"
	tokenhandler "tablebook/internal/tokens/handler"
	tokenrepo "tablebook/internal/tokens/repository"
	tokenservice "tablebook/internal/tokens/service"
	"tablebook/pkg/app"
	"tablebook/pkg/cache"
	"tablebook/pkg/clock"
	"tablebook/pkg/config"
	"tablebook/pkg/contracts"
	"tablebook/pkg/model"
	"tablebook/pkg/notify"
	"tablebook/pkg/sanitizer"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")
	serverApp := app.NewApplication(cfg)
	handlers := initServices(cfg, serverApp)
	serverApp.SetApp(handlers...)
	serverApp.Run()
}

func initServices(cfg *config.Config, serverApp *app.Application) []contracts.Handler {
	clk := clock.System()

	notifier, err := notify.New(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to create notifier", "backend", cfg.NotifierBackend, "error", err)
	}
	serverApp.OnShutdown(func() {
		if err := notifier.Close(); err != nil {
			cfg.Log.Error("Failed to close notifier", "error", err)
		}
	})

	hoursCache := cache.NewTTL[time.Weekday, *model.BusinessHours](cfg.BusinessHoursCacheTTL, clk)
	serverApp.OnShutdown(hoursCache.Stop)

	reservationRepo := reservationrepo.NewMongoReservationRepository(cfg)
	tableRepo := tablerepo.NewMongoTableRepository(cfg)

	hoursService := hoursservice.NewBusinessHoursService(
		hoursrepo.NewMongoBusinessHoursRepository(cfg),
		hoursvalidator.NewBusinessHoursValidator(cfg.Log),
		hoursCache,
		clk,
		cfg,
	)

	tokenService := tokenservice.NewTokenService(
		tokenrepo.NewMongoTokenRepository(cfg),
		reservationRepo,
		tableRepo,
		notifier,
		clk,
		cfg,
	)

	reservationService := reservationservice.NewReservationService(reservationservice.Dependencies{
		Repo:      reservationRepo,
		LockRepo:  reservationrepo.NewMongoReservationLockRepository(cfg),
		TableRepo: tableRepo,
		Hours:     hoursService,
		Tokens:    tokenService,
		Allocator: allocation.New(allocation.Options{ContiguityCheck: cfg.EnableContiguityCheck}),
		Validator: reservationvalidator.NewReservationValidator(cfg.Log),
		Phones:    sanitizer.NewPhoneNormalizer(cfg.PhoneRegions),
		Notifier:  notifier,
		Clock:     clk,
	}, cfg)

	cfg.Log.Info("Reservation services initialized",
		"database", cfg.MongoDatabaseName,
		"notifier", cfg.NotifierBackend,
	)

	return []contracts.Handler{
		hourshandler.NewBusinessHoursHandler(hoursService, cfg.Log),
		reservationhandler.NewReservationHandler(reservationService, cfg.Log),
		tokenhandler.NewTokenHandler(tokenService, cfg.Log),
	}
}
