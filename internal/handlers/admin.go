package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telereport/internal/models"
	"telereport/internal/services"
	"telereport/pkg/utils"
)

// handleAdmin shows the admin panel. Service-level authorization rejects
// non-privileged callers; the handler just renders the refusal.
func (h *Bot) handleAdmin(c tele.Context) error {
	ctx := context.Background()

	stats, users, err := h.Review.Stats(ctx, c.Sender().ID)
	if err == services.ErrForbidden {
		return c.Send("🚫 You are not an admin.")
	}
	if err != nil {
		return c.Send(unavailableText)
	}

	revenue, tokensSold, err := h.Payments.Revenue(ctx)
	if err != nil {
		return c.Send(unavailableText)
	}

	totalAccounts, activeAccounts, err := h.Registry.Stats(ctx)
	if err != nil {
		return c.Send(unavailableText)
	}

	return c.Send(fmt.Sprintf(
		"👑 *Admin Panel*\n\n"+
			"*Reports:* %d total, %d pending, %d resolved, %d rejected\n"+
			"*Today:* %d report(s)\n"+
			"*Users:* %d\n"+
			"*Accounts:* %d (%d active)\n"+
			"*Revenue:* %d (%d tokens sold)\n\n"+
			"• /pending — review pending reports\n"+
			"• /givetokens <user\\_id> <amount>\n"+
			"• /block <user\\_id> · /unblock <user\\_id>",
		stats.Total, stats.Pending, stats.Resolved, stats.Rejected,
		stats.Today, users, totalAccounts, activeAccounts, revenue, tokensSold,
	), tele.ModeMarkdown)
}

// handleStats is the short form of the panel, by-type breakdown included.
func (h *Bot) handleStats(c tele.Context) error {
	ctx := context.Background()

	stats, users, err := h.Review.Stats(ctx, c.Sender().ID)
	if err == services.ErrForbidden {
		return c.Send("🚫 You are not an admin.")
	}
	if err != nil {
		return c.Send(unavailableText)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Statistics*\n\n*Reports:* %d (%d today)\n*Users:* %d\n\n*By status:*\n  ⏳ %d pending\n  ✅ %d resolved\n  ❌ %d rejected\n",
		stats.Total, stats.Today, users, stats.Pending, stats.Resolved, stats.Rejected)
	if len(stats.ByType) > 0 {
		sb.WriteString("\n*By type:*\n")
		for t, n := range stats.ByType {
			fmt.Fprintf(&sb, "  %s: %d\n", t, n)
		}
	}
	return c.Send(sb.String(), tele.ModeMarkdown)
}

// handlePending lists pending reports oldest-first, each with resolve and
// reject buttons.
func (h *Bot) handlePending(c tele.Context) error {
	ctx := context.Background()

	reports, err := h.Review.ListPending(ctx, c.Sender().ID, int64(h.ReportsPerPage))
	if err == services.ErrForbidden {
		return c.Send("🚫 You are not an admin.")
	}
	if err != nil {
		return c.Send(unavailableText)
	}
	if len(reports) == 0 {
		return c.Send("✅ No pending reports. All caught up!")
	}

	for _, r := range reports {
		markup := &tele.ReplyMarkup{}
		markup.Inline(markup.Row(
			markup.Data("✅ Resolve", "rv_ok", r.ReportID),
			markup.Data("❌ Reject", "rv_no", r.ReportID),
		))
		text := fmt.Sprintf(
			"⏳ *Report* `%s`\n\n*User:* `%d`\n*Type:* %s\n*Target:* `%s`\n*Category:* %s\n*Details:* %s\n*Filed:* %s",
			r.ReportID, r.UserID, r.Type, r.Target, models.Categories[r.Category],
			utils.Truncate(r.Details, 200), utils.FormatTime(r.CreatedAt),
		)
		if len(r.Evidence) > 0 {
			text += fmt.Sprintf("\n*Evidence:* %d photo(s)", len(r.Evidence))
		}
		if err := c.Send(text, markup, tele.ModeMarkdown); err != nil {
			return err
		}
	}
	return nil
}

func (h *Bot) cbResolveReport(c tele.Context) error {
	return h.reviewReport(c, c.Data(), models.ReportResolved)
}

func (h *Bot) cbRejectReport(c tele.Context) error {
	return h.reviewReport(c, c.Data(), models.ReportRejected)
}

func (h *Bot) reviewReport(c tele.Context, reportID string, status models.ReportStatus) error {
	ctx := context.Background()

	err := h.Review.SetStatus(ctx, c.Sender().ID, reportID, status, "")
	switch err {
	case nil:
	case services.ErrForbidden:
		return c.Respond(&tele.CallbackResponse{Text: "Not an admin"})
	case models.ErrNotFound:
		c.Respond(&tele.CallbackResponse{Text: "Report not found"})
		return c.Edit("⚠️ That report no longer exists.")
	default:
		return c.Respond(&tele.CallbackResponse{Text: "Update failed, try again"})
	}

	if h.Feed != nil {
		h.Feed.Publish(services.FeedEvent{
			Type:     "report_reviewed",
			ReportID: reportID,
			Status:   string(status),
		})
	}

	c.Respond(&tele.CallbackResponse{Text: "Report " + string(status)})
	return c.Edit(fmt.Sprintf("%s Report `%s` marked *%s*.", statusEmoji(status), reportID, status), tele.ModeMarkdown)
}

// handleGiveTokens credits tokens: /givetokens <user_id> <amount>
func (h *Bot) handleGiveTokens(c tele.Context) error {
	ctx := context.Background()

	args := c.Args()
	if len(args) != 2 {
		return c.Send("Usage: `/givetokens <user_id> <amount>`", tele.ModeMarkdown)
	}
	userID, err1 := strconv.ParseInt(args[0], 10, 64)
	amount, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return c.Send("Usage: `/givetokens <user_id> <amount>`", tele.ModeMarkdown)
	}

	switch err := h.Review.GrantTokens(ctx, c.Sender().ID, userID, amount); err {
	case nil:
		return c.Send(fmt.Sprintf("✅ Granted %d token(s) to user `%d`.", amount, userID), tele.ModeMarkdown)
	case services.ErrForbidden:
		return c.Send("🚫 You are not an admin.")
	case models.ErrValidation:
		return c.Send("⚠️ Amount must be positive.")
	default:
		return c.Send(unavailableText)
	}
}

func (h *Bot) handleBlock(c tele.Context) error {
	return h.setBlocked(c, true)
}

func (h *Bot) handleUnblock(c tele.Context) error {
	return h.setBlocked(c, false)
}

func (h *Bot) setBlocked(c tele.Context, blocked bool) error {
	ctx := context.Background()

	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: `/block <user_id>` or `/unblock <user_id>`", tele.ModeMarkdown)
	}
	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("⚠️ Invalid user ID.")
	}

	var opErr error
	if blocked {
		opErr = h.Review.Block(ctx, c.Sender().ID, userID)
	} else {
		opErr = h.Review.Unblock(ctx, c.Sender().ID, userID)
	}
	switch opErr {
	case nil:
		verb := "blocked"
		if !blocked {
			verb = "unblocked"
		}
		return c.Send(fmt.Sprintf("✅ User `%d` %s.", userID, verb), tele.ModeMarkdown)
	case services.ErrForbidden:
		return c.Send("🚫 You are not an admin.")
	case models.ErrNotFound:
		return c.Send("⚠️ No such user.")
	default:
		return c.Send(unavailableText)
	}
}
