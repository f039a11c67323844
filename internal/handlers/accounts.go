package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telereport/internal/models"
	"telereport/pkg/utils"
)

// handleLogin starts the account enrollment conversation: phone, then an
// optional display name.
func (h *Bot) handleLogin(c tele.Context) error {
	h.setPending(c.Sender().ID, &pendingInput{Kind: "login_phone"})
	return c.Send(
		"📱 *Add a reporting account*\n\n"+
			"Send the account's phone number in international format, e.g. `+14155550123`.\n\n"+
			"Use /cancel to abort.", tele.ModeMarkdown)
}

func (h *Bot) loginPhoneInput(c tele.Context, phone string) error {
	if !utils.ValidatePhone(phone) {
		h.setPending(c.Sender().ID, &pendingInput{Kind: "login_phone"})
		return c.Send("⚠️ That doesn't look like a phone number. Send it in international format, e.g. `+14155550123`.", tele.ModeMarkdown)
	}
	h.setPending(c.Sender().ID, &pendingInput{Kind: "login_name", Phone: phone})
	return c.Send("✏️ Now send a display name for this account (3-50 characters), or /skip for a default.")
}

func (h *Bot) finishLogin(c tele.Context, phone, name string) error {
	ctx := context.Background()

	account, err := h.Registry.Create(ctx, c.Sender().ID, phone, name)
	switch err {
	case nil:
	case models.ErrCapacityExceeded:
		return c.Send("🚫 You have reached the maximum number of reporting accounts. Delete one with /accounts first.")
	case models.ErrValidation:
		h.setPending(c.Sender().ID, &pendingInput{Kind: "login_name", Phone: phone})
		return c.Send("⚠️ Names must be 3-50 characters. Try again, or /skip for a default.")
	default:
		log.Printf("❌ create account for user %d: %v", c.Sender().ID, err)
		return c.Send(unavailableText)
	}

	primary := ""
	if account.IsPrimary {
		primary = "\n⭐ This is now your primary account."
	}
	return c.Send(fmt.Sprintf(
		"✅ *Account added:* %s%s\n\nUse /report to file a report or /accounts to manage your accounts.",
		account.Name, primary,
	), tele.ModeMarkdown)
}

// handleAccounts lists the caller's accounts with a manage button each.
func (h *Bot) handleAccounts(c tele.Context) error {
	ctx := context.Background()

	accounts, err := h.Registry.List(ctx, c.Sender().ID)
	if err != nil {
		return c.Send(unavailableText)
	}
	if len(accounts) == 0 {
		return c.Send("📭 You have no reporting accounts yet.\n\nUse /login to add one.")
	}

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	var sb strings.Builder
	sb.WriteString("📱 *Your accounts*\n\n")
	for _, a := range accounts {
		star := ""
		if a.IsPrimary {
			star = "⭐ "
		}
		fmt.Fprintf(&sb, "%s*%s* — %s, %d report(s)\n", star, a.Name, a.Status, a.ReportsUsed)
		rows = append(rows, markup.Row(markup.Data("⚙️ "+a.Name, "acc_manage", a.AccountID)))
	}
	markup.Inline(rows...)
	return c.Send(sb.String(), markup, tele.ModeMarkdown)
}

func (h *Bot) cbAccountManage(c tele.Context) error {
	c.Respond()
	return h.sendAccountDetail(c, c.Data())
}

func (h *Bot) sendAccountDetail(c tele.Context, accountID string) error {
	account, err := h.ownAccount(c, accountID)
	if err != nil {
		return nil
	}

	toggleLabel := "🔌 Deactivate"
	if account.Status != models.AccountActive {
		toggleLabel = "🔌 Activate"
	}

	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{
		markup.Row(
			markup.Data("⭐ Set Primary", "acc_primary", account.AccountID),
			markup.Data(toggleLabel, "acc_toggle", account.AccountID),
		),
		markup.Row(
			markup.Data("✏️ Rename", "acc_rename", account.AccountID),
			markup.Data("🗑 Delete", "acc_delete", account.AccountID),
		),
	}
	markup.Inline(rows...)

	lastUsed := "Never"
	if account.LastUsedAt != nil {
		lastUsed = utils.FormatTime(*account.LastUsedAt)
	}
	text := fmt.Sprintf(
		"⚙️ *%s*\n\n*Status:* %s\n*Primary:* %v\n*Reports used:* %d\n*Added:* %s\n*Last used:* %s",
		account.Name, account.Status, account.IsPrimary, account.ReportsUsed,
		utils.FormatTime(account.AddedAt), lastUsed,
	)
	return c.Edit(text, markup, tele.ModeMarkdown)
}

func (h *Bot) cbAccountPrimary(c tele.Context) error {
	ctx := context.Background()
	accountID := c.Data()

	if _, err := h.ownAccount(c, accountID); err != nil {
		return nil
	}
	if err := h.Registry.SetPrimary(ctx, c.Sender().ID, accountID); err != nil {
		return c.Send(unavailableText)
	}
	c.Respond(&tele.CallbackResponse{Text: "Primary account updated"})
	return h.sendAccountDetail(c, accountID)
}

func (h *Bot) cbAccountToggle(c tele.Context) error {
	ctx := context.Background()
	accountID := c.Data()

	account, err := h.ownAccount(c, accountID)
	if err != nil {
		return nil
	}

	next := models.AccountInactive
	if account.Status != models.AccountActive {
		next = models.AccountActive
	}
	if err := h.Registry.SetStatus(ctx, accountID, next); err != nil {
		return c.Send(unavailableText)
	}
	c.Respond(&tele.CallbackResponse{Text: "Status updated"})
	return h.sendAccountDetail(c, accountID)
}

func (h *Bot) cbAccountRename(c tele.Context) error {
	if _, err := h.ownAccount(c, c.Data()); err != nil {
		return nil
	}
	h.setPending(c.Sender().ID, &pendingInput{Kind: "rename", AccountID: c.Data()})
	c.Respond()
	return c.Send("✏️ Send the new name for this account (3-50 characters), or /cancel.")
}

func (h *Bot) renameInput(c tele.Context, accountID, name string) error {
	ctx := context.Background()

	err := h.Registry.Rename(ctx, accountID, name)
	if err == models.ErrValidation {
		h.setPending(c.Sender().ID, &pendingInput{Kind: "rename", AccountID: accountID})
		return c.Send("⚠️ Names must be 3-50 characters. Try again, or /cancel.")
	}
	if err != nil {
		return c.Send(unavailableText)
	}
	return c.Send("✅ Account renamed to *" + name + "*.", tele.ModeMarkdown)
}

func (h *Bot) cbAccountDelete(c tele.Context) error {
	account, err := h.ownAccount(c, c.Data())
	if err != nil {
		return nil
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("🗑 Yes, delete", "acc_delcon", account.AccountID),
		markup.Data("↩️ Keep it", "acc_manage", account.AccountID),
	))
	c.Respond()
	return c.Edit(fmt.Sprintf("⚠️ *Delete account %s?*\n\nThis cannot be undone.", account.Name), markup, tele.ModeMarkdown)
}

func (h *Bot) cbAccountDeleteConfirm(c tele.Context) error {
	ctx := context.Background()
	accountID := c.Data()

	if _, err := h.ownAccount(c, accountID); err != nil {
		return nil
	}
	if err := h.Registry.Delete(ctx, accountID); err != nil {
		return c.Send(unavailableText)
	}
	c.Respond(&tele.CallbackResponse{Text: "Account deleted"})
	return c.Edit("🗑 Account deleted.\n\nUse /accounts to see the rest or /login to add a new one.")
}

// ownAccount loads an account and rejects callbacks that reference one
// belonging to someone else. A non-nil error means the user was already
// answered; callers just stop.
func (h *Bot) ownAccount(c tele.Context, accountID string) (*models.Account, error) {
	account, err := h.Registry.Get(context.Background(), accountID)
	if err == models.ErrNotFound {
		c.Send("⚠️ That account no longer exists.")
		return nil, err
	}
	if err != nil {
		c.Send(unavailableText)
		return nil, err
	}
	if account.UserID != c.Sender().ID {
		c.Respond(&tele.CallbackResponse{Text: "Not your account"})
		return nil, models.ErrNotFound
	}
	return account, nil
}
