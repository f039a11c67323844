// Package handlers is the Telegram surface of the bot: commands, inline
// keyboards and text routing. Handlers translate updates into service and
// workflow calls and render the results back into chat messages.
package handlers

import (
	"context"
	"log"
	"sync"

	tele "gopkg.in/telebot.v3"

	"telereport/internal/auth"
	"telereport/internal/services"
	"telereport/internal/storage"
	"telereport/internal/workflow"
)

// Bot bundles everything the Telegram handlers need.
type Bot struct {
	Users    *services.UserService
	Registry *services.Registry
	Payments *services.Payments
	Review   *services.Review
	Evidence *services.EvidenceService
	Feed     *services.FeedHub
	Machine  *workflow.Machine
	Sessions *workflow.SessionStore
	Reports  *storage.ReportStore
	Resolver *auth.Resolver

	ReportsPerPage  int
	ContactUsername string

	// Short-lived prompt state for the simple conversations (account
	// enrollment, rename) that don't need the full workflow machine.
	mu      sync.Mutex
	pending map[int64]*pendingInput
}

// pendingInput marks what the next plain-text message from a user means.
type pendingInput struct {
	Kind      string // "login_phone", "login_name", "rename"
	AccountID string
	Phone     string
}

// Register attaches every handler to the bot. A pre-handler middleware
// guarantees the user document exists before any handler runs.
func (h *Bot) Register(b *tele.Bot) {
	h.pending = make(map[int64]*pendingInput)

	b.Use(h.ensureUser)

	// User commands
	b.Handle("/start", h.handleStart)
	b.Handle("/help", h.handleHelp)
	b.Handle("/whoami", h.handleWhoami)
	b.Handle("/balance", h.handleBalance)
	b.Handle("/login", h.handleLogin)
	b.Handle("/accounts", h.handleAccounts)
	b.Handle("/report", h.handleReport)
	b.Handle("/myreports", h.handleMyReports)
	b.Handle("/buy", h.handleBuy)
	b.Handle("/transactions", h.handleTransactions)
	b.Handle("/skip", h.handleSkip)
	b.Handle("/cancel", h.handleCancel)

	// Admin commands
	b.Handle("/admin", h.handleAdmin)
	b.Handle("/stats", h.handleStats)
	b.Handle("/pending", h.handlePending)
	b.Handle("/givetokens", h.handleGiveTokens)
	b.Handle("/block", h.handleBlock)
	b.Handle("/unblock", h.handleUnblock)

	// Report workflow callbacks
	b.Handle(&tele.Btn{Unique: "select_acc"}, h.cbSelectAccount)
	b.Handle(&tele.Btn{Unique: "add_account"}, h.cbAddAccount)
	b.Handle(&tele.Btn{Unique: "report_type"}, h.cbChooseType)
	b.Handle(&tele.Btn{Unique: "reason"}, h.cbChooseReason)
	b.Handle(&tele.Btn{Unique: "confirm_report"}, h.cbConfirmReport)
	b.Handle(&tele.Btn{Unique: "cancel_report"}, h.cbCancelReport)

	// Account management callbacks
	b.Handle(&tele.Btn{Unique: "acc_manage"}, h.cbAccountManage)
	b.Handle(&tele.Btn{Unique: "acc_primary"}, h.cbAccountPrimary)
	b.Handle(&tele.Btn{Unique: "acc_toggle"}, h.cbAccountToggle)
	b.Handle(&tele.Btn{Unique: "acc_rename"}, h.cbAccountRename)
	b.Handle(&tele.Btn{Unique: "acc_delete"}, h.cbAccountDelete)
	b.Handle(&tele.Btn{Unique: "acc_delcon"}, h.cbAccountDeleteConfirm)

	// Purchase and listing callbacks
	b.Handle(&tele.Btn{Unique: "buy_pkg"}, h.cbBuyPackage)
	b.Handle(&tele.Btn{Unique: "reports_page"}, h.cbReportsPage)

	// Admin review callbacks
	b.Handle(&tele.Btn{Unique: "rv_ok"}, h.cbResolveReport)
	b.Handle(&tele.Btn{Unique: "rv_no"}, h.cbRejectReport)

	// Free-form input
	b.Handle(tele.OnText, h.handleText)
	b.Handle(tele.OnPhoto, h.handlePhoto)
}

// ensureUser creates the user document on first contact and refreshes
// the last-active timestamp. Non-private chats are ignored entirely.
func (h *Bot) ensureUser(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Chat() == nil || c.Chat().Type != tele.ChatPrivate || c.Sender() == nil {
			return nil
		}

		ctx := context.Background()
		sender := c.Sender()
		if _, err := h.Users.Ensure(ctx, sender.ID, sender.Username, sender.FirstName, sender.LastName); err != nil {
			log.Printf("❌ ensure user %d: %v", sender.ID, err)
			return c.Send("❌ Something went wrong. Please try again later.")
		}
		h.Users.Touch(ctx, sender.ID)

		return next(c)
	}
}

func (h *Bot) setPending(userID int64, p *pendingInput) {
	h.mu.Lock()
	h.pending[userID] = p
	h.mu.Unlock()
}

func (h *Bot) takePending(userID int64) *pendingInput {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := h.pending[userID]
	delete(h.pending, userID)
	return p
}

func (h *Bot) clearPending(userID int64) {
	h.mu.Lock()
	delete(h.pending, userID)
	h.mu.Unlock()
}
