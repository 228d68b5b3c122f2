package main

import (
	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	"app/internal/infra/gateway"
	infraRepo "app/internal/infra/repository"
	"app/internal/logging"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envは無くても起動できる
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Game{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.LibraryEntry{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB)
	gameRepo := infraRepo.NewGameGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)

	//usecaseに渡す部品
	clock := usecase.RealClock{}
	cardGateway := gateway.NewSimulatedCardGateway()

	//Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, clock)
	gameUC := usecase.NewGameUsecase(gameRepo, inventoryRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(txManager)
	orderUC := usecase.NewOrderUsecase(txManager)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo)
	paymentUC := usecase.NewPaymentUsecase(txManager, cardGateway, clock)
	libraryUC := usecase.NewLibraryUsecase(txManager)

	//Handler生成
	handlers := server.Handlers{
		Auth:       handler.NewAuthHandler(authUC),
		Game:       handler.NewGameHandler(gameUC),
		Cart:       handler.NewCartHandler(cartUC),
		Order:      handler.NewOrderHandler(orderUC),
		Payment:    handler.NewPaymentHandler(paymentUC),
		Library:    handler.NewLibraryHandler(libraryUC),
		AdminGame:  handler.NewAdminGameHandler(gameUC),
		AdminOrder: handler.NewAdminOrderHandler(adminOrderUC),
	}

	//Server起動
	e := server.New(cfg, logger, handlers)
	logger.Info("starting server", zap.String("port", cfg.Port))
	if err := server.Start(e, cfg); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
