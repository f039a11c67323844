package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telereport/internal/models"
	"telereport/internal/services"
	"telereport/internal/workflow"
)

const unavailableText = "❌ The service is temporarily unavailable. Please try again later."

// handleReport starts (or restarts) the submission workflow.
func (h *Bot) handleReport(c tele.Context) error {
	ctx := context.Background()

	user, err := h.Users.Ensure(ctx, c.Sender().ID, c.Sender().Username, c.Sender().FirstName, c.Sender().LastName)
	if err != nil {
		return c.Send(unavailableText)
	}

	// Any previous in-flight workflow is replaced.
	h.Sessions.Delete(ctx, user.UserID)

	session, effects, err := h.Machine.Start(ctx, user)
	if err != nil {
		log.Printf("❌ start workflow for user %d: %v", user.UserID, err)
	}
	return h.applyEffects(c, session, effects)
}

func (h *Bot) handleSkip(c tele.Context) error {
	ctx := context.Background()

	if _, err := h.Sessions.Load(ctx, c.Sender().ID); err == nil {
		return h.advance(c, workflow.Event{Kind: workflow.EventSkipDetails})
	}

	// /skip during enrollment accepts the default account name.
	if p := h.takePending(c.Sender().ID); p != nil && p.Kind == "login_name" {
		return h.finishLogin(c, p.Phone, "")
	}
	return c.Send("Nothing to skip.")
}

func (h *Bot) handleCancel(c tele.Context) error {
	ctx := context.Background()
	h.clearPending(c.Sender().ID)

	if _, err := h.Sessions.Load(ctx, c.Sender().ID); err == nil {
		return h.advance(c, workflow.Event{Kind: workflow.EventCancel})
	}
	return c.Send("Nothing to cancel.")
}

func (h *Bot) cbSelectAccount(c tele.Context) error {
	c.Respond()
	return h.advance(c, workflow.Event{Kind: workflow.EventSelectAccount, Value: c.Data()})
}

func (h *Bot) cbAddAccount(c tele.Context) error {
	c.Respond()
	return h.advance(c, workflow.Event{Kind: workflow.EventAddAccount})
}

func (h *Bot) cbChooseType(c tele.Context) error {
	c.Respond()
	return h.advance(c, workflow.Event{Kind: workflow.EventChooseType, Value: c.Data()})
}

func (h *Bot) cbChooseReason(c tele.Context) error {
	c.Respond()
	return h.advance(c, workflow.Event{Kind: workflow.EventChooseReason, Value: c.Data()})
}

func (h *Bot) cbConfirmReport(c tele.Context) error {
	c.Respond()
	return h.advance(c, workflow.Event{Kind: workflow.EventConfirm})
}

func (h *Bot) cbCancelReport(c tele.Context) error {
	c.Respond()
	return h.advance(c, workflow.Event{Kind: workflow.EventCancel})
}

// handleText routes plain text: an in-flight workflow takes precedence,
// then the simple prompt conversations (enrollment, rename).
func (h *Bot) handleText(c tele.Context) error {
	ctx := context.Background()
	text := strings.TrimSpace(c.Text())

	if session, err := h.Sessions.Load(ctx, c.Sender().ID); err == nil {
		return h.advanceSession(c, session, workflow.Event{Kind: workflow.EventText, Value: text})
	}

	p := h.takePending(c.Sender().ID)
	if p == nil {
		return nil
	}
	switch p.Kind {
	case "login_phone":
		return h.loginPhoneInput(c, text)
	case "login_name":
		return h.finishLogin(c, p.Phone, text)
	case "rename":
		return h.renameInput(c, p.AccountID, text)
	}
	return nil
}

// handlePhoto attaches evidence during the details step. Photos outside
// that step are ignored.
func (h *Bot) handlePhoto(c tele.Context) error {
	ctx := context.Background()

	session, err := h.Sessions.Load(ctx, c.Sender().ID)
	if err != nil || session.State != workflow.StateCollectDetails {
		return nil
	}

	if h.Evidence == nil {
		return c.Send("⚠️ Evidence uploads are not available right now. Send details as text or /skip.")
	}

	photo := c.Message().Photo
	if photo == nil {
		return nil
	}
	rc, err := c.Bot().File(&photo.File)
	if err != nil {
		log.Printf("❌ download evidence from user %d: %v", c.Sender().ID, err)
		return c.Send("❌ Could not read that photo. Please try again.")
	}
	defer rc.Close()

	url, err := h.Evidence.Upload(ctx, rc)
	if err != nil {
		log.Printf("❌ upload evidence from user %d: %v", c.Sender().ID, err)
		return c.Send("❌ Could not store that photo. Please try again.")
	}

	if err := h.advanceSession(c, session, workflow.Event{Kind: workflow.EventAttachEvidence, Value: url}); err != nil {
		return err
	}
	return c.Send("📎 Evidence attached. Send more photos, details as text, or /skip.")
}

// advance loads the session, applies one event and renders the result.
func (h *Bot) advance(c tele.Context, event workflow.Event) error {
	ctx := context.Background()

	session, err := h.Sessions.Load(ctx, c.Sender().ID)
	if err == models.ErrNotFound {
		return c.Send("No report in progress. Use /report to start one.")
	}
	if err != nil {
		return c.Send(unavailableText)
	}
	return h.advanceSession(c, session, event)
}

func (h *Bot) advanceSession(c tele.Context, session *workflow.Session, event workflow.Event) error {
	ctx := context.Background()

	effects, err := h.Machine.Advance(ctx, session, event)
	if err != nil {
		log.Printf("⚠️ workflow advance for user %d: %v", session.UserID, err)
	}

	if effects.Result != nil && h.Feed != nil {
		h.Feed.Publish(services.FeedEvent{
			Type:     "report_created",
			ReportID: effects.Result.ReportID,
			UserID:   session.UserID,
			Target:   session.Target,
			Category: session.Category,
			Status:   string(models.ReportPending),
		})
	}
	return h.applyEffects(c, session, effects)
}

// applyEffects persists or discards the session and renders the next
// prompt, guidance or commit result.
func (h *Bot) applyEffects(c tele.Context, session *workflow.Session, effects workflow.Effects) error {
	ctx := context.Background()

	if effects.Done {
		h.Sessions.Delete(ctx, session.UserID)
	} else if err := h.Sessions.Save(ctx, session); err != nil {
		log.Printf("❌ save session for user %d: %v", session.UserID, err)
		return c.Send(unavailableText)
	}

	if effects.Result != nil {
		return c.Send(fmt.Sprintf(
			"✅ *Report Submitted!*\n\n*Report ID:* `%s`\n*Category:* %s\n*Tokens used:* %d\n\nYou will be notified when it is reviewed.",
			effects.Result.ReportID, models.Categories[effects.Result.Category], effects.Result.TokensUsed,
		), tele.ModeMarkdown)
	}

	if effects.Guidance != workflow.GuidanceNone {
		return c.Send(h.guidanceText(effects.Guidance), tele.ModeMarkdown)
	}

	prefix := ""
	if effects.Invalid != "" {
		prefix = "⚠️ " + strings.ToUpper(effects.Invalid[:1]) + effects.Invalid[1:] + ".\n\n"
	}
	return h.renderPrompt(c, session, effects, prefix)
}

func (h *Bot) guidanceText(g workflow.Guidance) string {
	switch g {
	case workflow.GuidanceBlocked:
		return "🚫 Your account is blocked. Contact @" + h.ContactUsername + " if you believe this is a mistake."
	case workflow.GuidanceCooldown:
		return "⏳ Please wait a moment before submitting another report."
	case workflow.GuidanceInsufficientBalance:
		return "💰 You don't have enough tokens to submit a report.\n\nUse /buy to purchase tokens."
	case workflow.GuidanceNoAccounts:
		return "📱 You have no active reporting accounts.\n\nUse /login to add one first."
	case workflow.GuidanceAddAccount:
		return "📱 Use /login to add a new reporting account, then /report to continue."
	case workflow.GuidanceCancelled:
		return "❌ Report cancelled. Nothing was submitted."
	case workflow.GuidanceTooManyRetries:
		return "🚫 Too many invalid targets. The report was cancelled; use /report to start over."
	case workflow.GuidanceBalanceChanged:
		return "💰 Your balance changed and no longer covers the report cost. Nothing was submitted.\n\nUse /buy to purchase tokens."
	}
	return unavailableText
}

func (h *Bot) renderPrompt(c tele.Context, session *workflow.Session, effects workflow.Effects, prefix string) error {
	switch effects.Prompt {
	case workflow.PromptSelectAccount:
		markup := &tele.ReplyMarkup{}
		var rows []tele.Row
		for _, a := range effects.Accounts {
			label := a.Name
			if a.IsPrimary {
				label = "⭐ " + label
			}
			rows = append(rows, markup.Row(markup.Data(label, "select_acc", a.AccountID)))
		}
		rows = append(rows, markup.Row(
			markup.Data("➕ Add Account", "add_account"),
			markup.Data("❌ Cancel", "cancel_report"),
		))
		markup.Inline(rows...)
		return c.Send(prefix+"📱 *Select the account to report from:*", markup, tele.ModeMarkdown)

	case workflow.PromptChooseType:
		markup := &tele.ReplyMarkup{}
		markup.Inline(
			markup.Row(
				markup.Data("👤 User", "report_type", string(models.TargetUser)),
				markup.Data("👥 Group", "report_type", string(models.TargetGroup)),
				markup.Data("📢 Channel", "report_type", string(models.TargetChannel)),
			),
			markup.Row(markup.Data("❌ Cancel", "cancel_report")),
		)
		return c.Send(prefix+"🎯 *What are you reporting?*", markup, tele.ModeMarkdown)

	case workflow.PromptEnterTarget, workflow.PromptAdminTarget:
		return c.Send(prefix+
			"🔗 *Send the target to report.*\n\nAccepted formats:\n"+
			"• `@username`\n"+
			"• `https://t.me/username`\n"+
			"• `https://t.me/+invitehash`\n"+
			"• a numeric ID\n\nUse /cancel to abort.", tele.ModeMarkdown)

	case workflow.PromptChooseReason, workflow.PromptAdminReason:
		return c.Send(prefix+"📋 *Choose the report category:*", categoryKeyboard(), tele.ModeMarkdown)

	case workflow.PromptEnterDetails:
		return c.Send(prefix+
			"📝 *Add details (optional).*\n\nSend a description, attach photo evidence, or /skip.", tele.ModeMarkdown)

	case workflow.PromptConfirm:
		s := effects.Summary
		markup := &tele.ReplyMarkup{}
		markup.Inline(markup.Row(
			markup.Data("✅ Submit", "confirm_report"),
			markup.Data("❌ Cancel", "cancel_report"),
		))
		text := fmt.Sprintf(
			"%s📋 *Confirm your report*\n\n*Type:* %s\n*Target:* `%s`\n*Category:* %s\n*Details:* %s\n\n*Cost:* %d token(s)\n*Your balance:* %d token(s)",
			prefix, s.TypeLabel, s.Target, s.CategoryLabel, s.Details, s.Cost, s.Balance,
		)
		if len(session.Evidence) > 0 {
			text += fmt.Sprintf("\n*Evidence:* %d photo(s)", len(session.Evidence))
		}
		return c.Send(text, markup, tele.ModeMarkdown)
	}
	return nil
}

// categoryKeyboard lays the closed category set out two per row.
func categoryKeyboard() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	var row []tele.Btn
	for _, tag := range models.CategoryOrder {
		row = append(row, markup.Data(models.Categories[tag], "reason", tag))
		if len(row) == 2 {
			rows = append(rows, markup.Row(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, markup.Row(row...))
	}
	rows = append(rows, markup.Row(markup.Data("❌ Cancel", "cancel_report")))
	markup.Inline(rows...)
	return markup
}
