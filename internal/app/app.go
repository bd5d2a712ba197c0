package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goalbuddy/server/internal/config"
	"github.com/goalbuddy/server/internal/db"
	"github.com/goalbuddy/server/internal/repository"
	"github.com/goalbuddy/server/internal/service"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	AuthService       *service.AuthService
	EmailService      *service.EmailService
	GoalService       *service.GoalService
	ShareService      *service.ShareService
	CollabService     *service.CollabService
	SharedGoalService *service.SharedGoalService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	txRunner := repository.NewTxRunner(database)
	userRepository := repository.NewUserRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	shareRepository := repository.NewShareRepository(database)
	checkinRepository := repository.NewCheckinRepository(database)
	messageRepository := repository.NewMessageRepository(database)
	sharedGoalRepository := repository.NewSharedGoalRepository(database)

	// Services
	emailService, err := service.NewEmailService(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize email service: %v", err)
	}

	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.JWTExpiry)
	goalService := service.NewGoalService(goalRepository)
	shareService := service.NewShareService(
		txRunner,
		goalRepository,
		shareRepository,
		checkinRepository,
		messageRepository,
		userRepository,
		emailService,
		cfg.AppURL,
	)
	collabService := service.NewCollabService(
		txRunner,
		goalRepository,
		shareRepository,
		checkinRepository,
		messageRepository,
	)
	sharedGoalService := service.NewSharedGoalService(sharedGoalRepository)

	return &App{
		Cfg:               cfg,
		DB:                database,
		AuthService:       authService,
		EmailService:      emailService,
		GoalService:       goalService,
		ShareService:      shareService,
		CollabService:     collabService,
		SharedGoalService: sharedGoalService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
