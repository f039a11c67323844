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

// handleBuy shows the token package catalog.
func (h *Bot) handleBuy(c tele.Context) error {
	ctx := context.Background()

	packages, err := h.Payments.Packages(ctx)
	if err != nil {
		return c.Send(unavailableText)
	}
	if len(packages) == 0 {
		return c.Send("📭 No token packages are available right now.")
	}

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	var sb strings.Builder
	sb.WriteString("💰 *Token Packages*\n\n")
	for _, p := range packages {
		fmt.Fprintf(&sb, "*%s* — %d tokens\n  ⭐ %d Stars / ₹%d\n\n", p.Name, p.Tokens, p.PriceStars, p.PriceINR)
		rows = append(rows, markup.Row(markup.Data(
			fmt.Sprintf("%s · %d tokens", p.Name, p.Tokens), "buy_pkg", p.PackageID,
		)))
	}
	markup.Inline(rows...)
	return c.Send(sb.String(), markup, tele.ModeMarkdown)
}

// cbBuyPackage opens a pending transaction; the purchase is completed
// manually by an admin after payment is verified.
func (h *Bot) cbBuyPackage(c tele.Context) error {
	ctx := context.Background()

	tx, err := h.Payments.Begin(ctx, c.Sender().ID, c.Data(), "stars", "telegram_stars")
	if err == models.ErrNotFound {
		c.Respond(&tele.CallbackResponse{Text: "Package unavailable"})
		return c.Send("⚠️ That package is no longer available. Use /buy to see the catalog.")
	}
	if err != nil {
		log.Printf("❌ begin purchase for user %d: %v", c.Sender().ID, err)
		return c.Send(unavailableText)
	}
	c.Respond()

	return c.Send(fmt.Sprintf(
		"🧾 *Purchase created*\n\n*Transaction ID:* `%s`\n*Tokens:* %d\n*Amount:* ⭐ %d\n\n"+
			"Send the payment and then message @%s with your transaction ID. "+
			"Tokens are credited once the payment is verified.",
		tx.TransactionID, tx.Tokens, tx.Amount, h.ContactUsername,
	), tele.ModeMarkdown)
}

// handleTransactions lists the caller's recent purchases.
func (h *Bot) handleTransactions(c tele.Context) error {
	ctx := context.Background()

	txs, err := h.Payments.History(ctx, c.Sender().ID, 10)
	if err != nil {
		return c.Send(unavailableText)
	}
	if len(txs) == 0 {
		return c.Send("📭 No purchases yet. Use /buy to get tokens.")
	}

	var sb strings.Builder
	sb.WriteString("🧾 *Your purchases*\n\n")
	for _, tx := range txs {
		emoji := "⏳"
		if tx.Status == models.TransactionCompleted {
			emoji = "✅"
		}
		fmt.Fprintf(&sb, "%s `%s` — %d tokens, %d %s\n  %s\n\n",
			emoji, tx.TransactionID, tx.Tokens, tx.Amount, tx.Currency, utils.FormatTime(tx.CreatedAt))
	}
	return c.Send(sb.String(), tele.ModeMarkdown)
}
