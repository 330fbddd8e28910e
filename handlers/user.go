package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Akamalshaikh/telegram-bot/config"
	"github.com/Akamalshaikh/telegram-bot/localization"
	"github.com/Akamalshaikh/telegram-bot/models"
	"github.com/Akamalshaikh/telegram-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type UserHandler struct {
	bot       *tgbotapi.BotAPI
	directory *services.Directory
	ledger    *services.Ledger
	workflow  *services.Workflow
	gate      services.MembershipGate
	config    *config.Config
	loc       *localization.Localization
	log       *slog.Logger
}

func NewUserHandler(
	bot *tgbotapi.BotAPI,
	directory *services.Directory,
	ledger *services.Ledger,
	workflow *services.Workflow,
	gate services.MembershipGate,
	cfg *config.Config,
	loc *localization.Localization,
	log *slog.Logger,
) *UserHandler {
	return &UserHandler{
		bot:       bot,
		directory: directory,
		ledger:    ledger,
		workflow:  workflow,
		gate:      gate,
		config:    cfg,
		loc:       loc,
		log:       log,
	}
}

// HandleStart gates the user on channel membership, registers them, credits
// the referral payload if one is present and valid, and shows the main menu.
func (h *UserHandler) HandleStart(ctx context.Context, update tgbotapi.Update) {
	userID := update.Message.From.ID

	h.reply(userID, h.loc.Get("checking_membership"))

	status, err := h.gate.IsMember(ctx, userID)
	if err != nil {
		// Verification failure is not a membership verdict; ask to retry.
		h.log.Warn("membership check failed", "user_id", userID, "error", err)
		h.reply(userID, h.loc.Get("verify_unavailable"))
		return
	}
	if status != models.Member {
		h.reply(userID, h.loc.Get("join_required", strings.TrimPrefix(h.config.ChannelUsername, "@")))
		return
	}

	if _, err := h.directory.Register(userID); err != nil {
		// Losing a directory entry only degrades broadcast reach.
		h.log.Error("registration failed", "user_id", userID, "error", err)
	}

	if args := update.Message.CommandArguments(); args != "" {
		h.attributeReferral(userID, args)
	}

	h.sendMainMenu(userID)
}

// attributeReferral credits the /start payload to its referrer. Rejections
// are silent from the new user's perspective.
func (h *UserHandler) attributeReferral(userID int64, payload string) {
	referrerID, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	if err != nil {
		return
	}
	if !h.directory.Knows(referrerID) {
		return
	}

	result, err := h.ledger.Attribute(referrerID, userID)
	if err != nil {
		h.log.Error("attribution failed", "referrer_id", referrerID, "referred_id", userID, "error", err)
		return
	}
	if result != models.AttributionAccepted {
		h.log.Info("referral not credited",
			"referrer_id", referrerID, "referred_id", userID, "result", result.String())
		return
	}

	// Notify the referrer; delivery failure must not undo the attribution.
	notification := h.loc.Get("referral_notification", h.ledger.PointsOf(referrerID))
	msg := tgbotapi.NewMessage(referrerID, notification)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		h.log.Warn("referrer notification failed", "referrer_id", referrerID, "error", err)
	}
}

func (h *UserHandler) sendMainMenu(userID int64) {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(h.loc.Get("btn_refer"), "refer"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(h.loc.Get("btn_points"), "mypoints"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(h.loc.Get("btn_withdraw"), "withdraw"),
		),
	)

	msg := tgbotapi.NewMessage(userID, h.loc.Get("welcome_menu", h.workflow.MinPoints()))
	msg.ReplyMarkup = keyboard
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		h.log.Warn("main menu send failed", "user_id", userID, "error", err)
	}
}

func (h *UserHandler) HandleUserCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID

	switch query.Data {
	case "refer":
		link := fmt.Sprintf("https://t.me/%s?start=%d", h.bot.Self.UserName, userID)
		h.reply(userID, h.loc.Get("referral_link", link))
	case "mypoints":
		h.handleMyPoints(userID)
	case "withdraw":
		h.handleWithdrawRequest(userID)
	case "withdraw_confirm":
		h.handleWithdrawConfirm(userID)
	case "withdraw_cancel":
		h.handleWithdrawCancel(userID)
	}

	callback := tgbotapi.NewCallback(query.ID, "")
	h.bot.Request(callback)
}

func (h *UserHandler) handleMyPoints(userID int64) {
	points := h.ledger.PointsOf(userID)
	min := h.workflow.MinPoints()

	if points >= min {
		h.reply(userID, h.loc.Get("points_ready", points))
	} else {
		h.reply(userID, h.loc.Get("points_more", points, min-points))
	}
}

func (h *UserHandler) handleWithdrawRequest(userID int64) {
	if err := h.workflow.Request(userID); err != nil {
		if errors.Is(err, services.ErrInsufficientPoints) {
			h.reply(userID, h.loc.Get("withdraw_insufficient",
				h.workflow.MinPoints(), h.ledger.PointsOf(userID)))
			return
		}
		h.log.Error("withdrawal request failed", "user_id", userID, "error", err)
		h.reply(userID, h.loc.Get("withdraw_failed"))
		return
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(h.loc.Get("btn_confirm"), "withdraw_confirm"),
			tgbotapi.NewInlineKeyboardButtonData(h.loc.Get("btn_cancel"), "withdraw_cancel"),
		),
	)

	msg := tgbotapi.NewMessage(userID, h.loc.Get("withdraw_confirm_prompt", h.ledger.PointsOf(userID)))
	msg.ReplyMarkup = keyboard
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		h.log.Warn("withdraw prompt send failed", "user_id", userID, "error", err)
	}
}

func (h *UserHandler) handleWithdrawConfirm(userID int64) {
	code, err := h.workflow.Confirm(userID)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveSession) {
			h.reply(userID, h.loc.Get("withdraw_nothing"))
			return
		}
		h.log.Error("withdrawal confirm failed", "user_id", userID, "error", err)
		h.reply(userID, h.loc.Get("withdraw_failed"))
		return
	}

	h.reply(userID, h.loc.Get("withdraw_success", code, h.config.AdminUsername))
}

func (h *UserHandler) handleWithdrawCancel(userID int64) {
	if err := h.workflow.Cancel(userID); err != nil {
		h.reply(userID, h.loc.Get("withdraw_nothing"))
		return
	}
	h.reply(userID, h.loc.Get("withdraw_cancelled"))
}

func (h *UserHandler) reply(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(msg); err != nil {
		h.log.Warn("reply send failed", "user_id", userID, "error", err)
	}
}
