package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telereport/internal/models"
	"telereport/pkg/utils"
)

func (h *Bot) handleStart(c tele.Context) error {
	ctx := context.Background()

	balance, err := h.Users.Balance(ctx, c.Sender().ID)
	if err != nil {
		return c.Send(unavailableText)
	}

	name := c.Sender().FirstName
	if name == "" {
		name = "there"
	}
	return c.Send(fmt.Sprintf(
		"👋 *Welcome, %s!*\n\n"+
			"This bot files abuse reports against users, groups and channels.\n\n"+
			"💰 *Your balance:* %d token(s)\n\n"+
			"• /login — add a reporting account\n"+
			"• /report — submit a report\n"+
			"• /buy — purchase tokens\n"+
			"• /help — all commands",
		name, balance,
	), tele.ModeMarkdown)
}

func (h *Bot) handleHelp(c tele.Context) error {
	text := "📖 *Commands*\n\n" +
		"• /start — welcome and balance\n" +
		"• /login — add a reporting account\n" +
		"• /accounts — manage your accounts\n" +
		"• /report — submit a report\n" +
		"• /myreports — your report history\n" +
		"• /balance — token balance\n" +
		"• /whoami — your ID and role\n" +
		"• /buy — purchase tokens\n" +
		"• /transactions — purchase history\n" +
		"• /cancel — abort the current flow\n\n" +
		"Questions? Contact @" + h.ContactUsername

	if h.Resolver.Privileged(c.Sender().ID) {
		text += "\n\n👑 *Admin*\n\n" +
			"• /admin — admin panel\n" +
			"• /stats — statistics\n" +
			"• /pending — review pending reports\n" +
			"• /givetokens <user\\_id> <amount>\n" +
			"• /block <user\\_id> and /unblock <user\\_id>"
	}
	return c.Send(text, tele.ModeMarkdown)
}

func (h *Bot) handleWhoami(c tele.Context) error {
	ctx := context.Background()

	balance, err := h.Users.Balance(ctx, c.Sender().ID)
	if err != nil {
		return c.Send(unavailableText)
	}
	role := h.Resolver.Resolve(c.Sender().ID)

	return c.Send(fmt.Sprintf(
		"🪪 *Who you are*\n\n*ID:* `%d`\n*Username:* @%s\n*Role:* %s\n*Balance:* %d token(s)",
		c.Sender().ID, c.Sender().Username, role, balance,
	), tele.ModeMarkdown)
}

func (h *Bot) handleBalance(c tele.Context) error {
	balance, err := h.Users.Balance(context.Background(), c.Sender().ID)
	if err != nil {
		return c.Send(unavailableText)
	}
	return c.Send(fmt.Sprintf("💰 *Your balance:* %d token(s)\n\nUse /buy to purchase more.", balance), tele.ModeMarkdown)
}

func (h *Bot) handleMyReports(c tele.Context) error {
	return h.sendReportsPage(c, 1, false)
}

func (h *Bot) cbReportsPage(c tele.Context) error {
	c.Respond()
	page, err := strconv.Atoi(c.Data())
	if err != nil || page < 1 {
		page = 1
	}
	return h.sendReportsPage(c, page, true)
}

// sendReportsPage renders one page of the caller's report history with
// prev/next buttons. Edit-in-place for page flips, fresh message otherwise.
func (h *Bot) sendReportsPage(c tele.Context, page int, edit bool) error {
	ctx := context.Background()
	perPage := h.ReportsPerPage

	// Fetch one extra to know whether a next page exists.
	reports, err := h.Reports.ListByUser(ctx, c.Sender().ID, int64((page-1)*perPage), int64(perPage+1))
	if err != nil {
		return c.Send(unavailableText)
	}

	if len(reports) == 0 && page == 1 {
		return c.Send("📭 You haven't submitted any reports yet.\n\nUse /report to file one.")
	}

	hasNext := len(reports) > perPage
	if hasNext {
		reports = reports[:perPage]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 *Your Reports* (page %d)\n\n", page)
	for _, r := range reports {
		fmt.Fprintf(&sb, "%s `%s` — %s\n  %s · %s\n\n",
			statusEmoji(r.Status), r.ReportID, models.Categories[r.Category],
			utils.Truncate(r.Target, 40), utils.FormatTime(r.CreatedAt))
	}

	markup := &tele.ReplyMarkup{}
	var nav []tele.Btn
	if page > 1 {
		nav = append(nav, markup.Data("⬅️ Prev", "reports_page", strconv.Itoa(page-1)))
	}
	if hasNext {
		nav = append(nav, markup.Data("Next ➡️", "reports_page", strconv.Itoa(page+1)))
	}
	if len(nav) > 0 {
		markup.Inline(markup.Row(nav...))
	}

	if edit {
		return c.Edit(sb.String(), markup, tele.ModeMarkdown)
	}
	return c.Send(sb.String(), markup, tele.ModeMarkdown)
}

func statusEmoji(s models.ReportStatus) string {
	switch s {
	case models.ReportResolved:
		return "✅"
	case models.ReportRejected:
		return "❌"
	default:
		return "⏳"
	}
}
