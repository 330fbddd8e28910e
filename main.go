package main

import (
	"context"
	"log"

	"github.com/Akamalshaikh/telegram-bot/config"
	"github.com/Akamalshaikh/telegram-bot/database"
	"github.com/Akamalshaikh/telegram-bot/handlers"
	"github.com/Akamalshaikh/telegram-bot/localization"
	"github.com/Akamalshaikh/telegram-bot/logging"
	"github.com/Akamalshaikh/telegram-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup("referral-bot")
	loc := localization.New()

	db, err := database.New(cfg.DatabaseFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	bot.Debug = false
	logger.Info("authorized", "account", bot.Self.UserName)

	directory := services.NewDirectory(db, logger)
	ledger := services.NewLedger(db, cfg.ReferralCap, logger)
	workflow := services.NewWorkflow(ledger, cfg.MinWithdrawPoints, logger)
	registry := services.NewRegistry(db)
	broadcaster := services.NewBroadcaster(directory, cfg.BroadcastWorkers, cfg.BroadcastTimeout, logger)
	gate := handlers.NewTelegramGate(bot, cfg.ChannelUsername)

	userHandler := handlers.NewUserHandler(bot, directory, ledger, workflow, gate, cfg, loc, logger)
	adminHandler := handlers.NewAdminHandler(bot, directory, registry, broadcaster, cfg, loc, logger)

	ctx := context.Background()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := bot.GetUpdatesChan(u)

	logger.Info("bot started, waiting for updates")

	for update := range updates {
		if update.Message != nil && update.Message.IsCommand() {
			switch update.Message.Command() {
			case "start":
				go userHandler.HandleStart(ctx, update)
			case "broadcast", "lookupcodes", "stats", "export":
				go adminHandler.HandleAdminCommand(ctx, update)
			}
		} else if update.CallbackQuery != nil {
			if isUserCallback(update.CallbackQuery.Data) {
				go userHandler.HandleUserCallback(ctx, update.CallbackQuery)
			}
		}
	}
}

func isUserCallback(data string) bool {
	userCallbacks := []string{"refer", "mypoints", "withdraw", "withdraw_confirm", "withdraw_cancel"}
	for _, callback := range userCallbacks {
		if data == callback {
			return true
		}
	}
	return false
}
