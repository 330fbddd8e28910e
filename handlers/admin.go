package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Akamalshaikh/telegram-bot/config"
	"github.com/Akamalshaikh/telegram-bot/localization"
	"github.com/Akamalshaikh/telegram-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type AdminHandler struct {
	bot         *tgbotapi.BotAPI
	directory   *services.Directory
	registry    *services.Registry
	broadcaster *services.Broadcaster
	config      *config.Config
	loc         *localization.Localization
	log         *slog.Logger
}

func NewAdminHandler(
	bot *tgbotapi.BotAPI,
	directory *services.Directory,
	registry *services.Registry,
	broadcaster *services.Broadcaster,
	cfg *config.Config,
	loc *localization.Localization,
	log *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		bot:         bot,
		directory:   directory,
		registry:    registry,
		broadcaster: broadcaster,
		config:      cfg,
		loc:         loc,
		log:         log,
	}
}

// HandleAdminCommand routes /broadcast, /lookupcodes, /stats and /export.
// Every one of them is rejected for callers other than the configured admin.
func (h *AdminHandler) HandleAdminCommand(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID

	if !h.config.IsAdmin(userID) {
		h.reply(userID, h.loc.Get("not_admin"))
		return
	}

	switch update.Message.Command() {
	case "broadcast":
		h.handleBroadcast(ctx, update.Message)
	case "lookupcodes":
		h.handleLookupCodes(userID)
	case "stats":
		h.handleStats(userID)
	case "export":
		h.handleExport(userID)
	}
}

func (h *AdminHandler) handleBroadcast(ctx context.Context, message *tgbotapi.Message) {
	adminID := message.From.ID

	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		h.reply(adminID, h.loc.Get("broadcast_usage"))
		return
	}

	userIDs, err := h.directory.AllUsers()
	if err != nil {
		h.log.Error("broadcast recipient listing failed", "error", err)
		h.reply(adminID, h.loc.Get("internal_error"))
		return
	}
	h.reply(adminID, h.loc.Get("broadcast_started", len(userIDs)))

	sent, failed, err := h.broadcaster.Broadcast(ctx, text, h.sendTo)
	if err != nil {
		h.log.Error("broadcast failed", "error", err)
		return
	}

	h.log.Info("broadcast finished", "sent", sent, "failed", failed)
	h.reply(adminID, h.loc.Get("broadcast_complete", sent, failed))
}

// sendTo is the delivery capability handed to the Broadcaster.
func (h *AdminHandler) sendTo(ctx context.Context, userID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(userID, text)
	_, err := h.bot.Send(msg)
	return err
}

func (h *AdminHandler) handleLookupCodes(adminID int64) {
	entries, err := h.registry.LookupAll()
	if err != nil {
		h.log.Error("claim code lookup failed", "error", err)
		return
	}

	if len(entries) == 0 {
		h.reply(adminID, h.loc.Get("codes_empty"))
		return
	}

	var b strings.Builder
	b.WriteString(h.loc.Get("codes_header"))
	for _, entry := range entries {
		b.WriteString("\n")
		b.WriteString(h.loc.Get("codes_entry", entry.UserID, entry.Code))
	}

	h.reply(adminID, b.String())
}

func (h *AdminHandler) handleStats(adminID int64) {
	stats, err := h.directory.Stats()
	if err != nil {
		h.log.Error("stats query failed", "error", err)
		return
	}

	h.reply(adminID, h.loc.Get("stats_text", stats.Total, stats.Day, stats.Week, stats.Month))
}

func (h *AdminHandler) handleExport(adminID int64) {
	export, err := h.directory.Export()
	if err != nil {
		h.log.Error("export failed", "error", err)
		return
	}

	if len(export.Users) == 0 {
		h.reply(adminID, h.loc.Get("export_empty"))
		return
	}

	jsonData, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		h.log.Error("export marshal failed", "error", err)
		return
	}

	fileName := fmt.Sprintf("database_%s.json", time.Now().Format("2006-01-02"))
	doc := tgbotapi.NewDocument(adminID, tgbotapi.FileBytes{
		Name:  fileName,
		Bytes: jsonData,
	})
	doc.Caption = h.loc.Get("export_caption")
	if _, err := h.bot.Send(doc); err != nil {
		h.log.Warn("export send failed", "error", err)
	}
}

func (h *AdminHandler) reply(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		h.log.Warn("reply send failed", "user_id", userID, "error", err)
	}
}
