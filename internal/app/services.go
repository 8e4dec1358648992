package app

import (
	"os"

	"santabot/internal/bot"
	"santabot/internal/repo"
	"santabot/internal/services"
	"santabot/internal/telegram"

	"gorm.io/gorm"
)

const defaultTelegramAPIURL = "https://api.telegram.org"

// Services holds all application services
type Services struct {
	DB              *gorm.DB
	ParticipantRepo *repo.ParticipantRepository
	PairingService  *services.PairingService
	TelegramClient  *telegram.Client
	BotHandler      *bot.Handler
	Dispatcher      *bot.Dispatcher
	Poller          *bot.Poller
}

// NewServices creates a new services container
func NewServices(db *gorm.DB) *Services {
	participantRepo := repo.NewParticipantRepository(db)
	pairingService := services.NewPairingService(participantRepo)

	apiURL := os.Getenv("TELEGRAM_API_URL")
	if apiURL == "" {
		apiURL = defaultTelegramAPIURL
	}
	telegramClient := telegram.NewClient(apiURL, os.Getenv("BOT_TOKEN"))

	botHandler := bot.NewHandler(pairingService, telegramClient)
	dispatcher := bot.NewDispatcher(pairingService, botHandler, telegramClient)
	poller := bot.NewPoller(telegramClient, dispatcher)

	return &Services{
		DB:              db,
		ParticipantRepo: participantRepo,
		PairingService:  pairingService,
		TelegramClient:  telegramClient,
		BotHandler:      botHandler,
		Dispatcher:      dispatcher,
		Poller:          poller,
	}
}
