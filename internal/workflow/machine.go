package workflow

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"telereport/internal/models"
	"telereport/pkg/utils"
)

// MaxTargetRetries caps the invalid-target loop; the workflow terminates
// with GuidanceTooManyRetries once it is exhausted.
const MaxTargetRetries = 5

// DetailsPlaceholder is substituted when the user skips the details step.
const DetailsPlaceholder = "No additional details provided."

// UserStore is the ledger surface the workflow needs.
type UserStore interface {
	Balance(ctx context.Context, userID int64) (int, error)
	Debit(ctx context.Context, userID int64, n int) error
	Credit(ctx context.Context, userID int64, n int) error
	IncrementReportCount(ctx context.Context, userID int64) error
}

// AccountStore is the registry surface the workflow needs.
type AccountStore interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Account, error)
	Get(ctx context.Context, accountID string) (*models.Account, error)
	MarkUsed(ctx context.Context, accountID string) error
}

// ReportStore persists committed reports.
type ReportStore interface {
	Insert(ctx context.Context, report *models.Report) error
}

// Notifier delivers best-effort messages; implementations must swallow
// transport failures.
type Notifier interface {
	Broadcast(text string)
}

// Cooldown gates successive submissions from the same user.
type Cooldown interface {
	Active(ctx context.Context, userID int64) bool
	Arm(ctx context.Context, userID int64)
}

// RoleResolver maps a user ID to its current role. Privilege is checked
// against live configuration, not the role persisted at user creation,
// so admin-list changes take effect without touching user documents.
type RoleResolver interface {
	Resolve(userID int64) models.Role
}

// Machine drives the report submission workflow. All dependencies are
// injected; transitions mutate the Session and return Effects for the
// handler to render.
type Machine struct {
	Users    UserStore
	Accounts AccountStore
	Reports  ReportStore
	Notify   Notifier
	Cooldown Cooldown
	Roles    RoleResolver

	ReportCost      int
	MaxReportLength int
}

// Start opens a new session for a user, or terminates immediately with
// guidance when the preconditions fail. The account list is only
// consulted after the balance check passes.
func (m *Machine) Start(ctx context.Context, user *models.User) (*Session, Effects, error) {
	session := &Session{
		UserID:    user.UserID,
		State:     StateTerminated,
		StartedAt: time.Now().UTC(),
	}

	if user.IsBlocked {
		return session, Effects{Done: true, Guidance: GuidanceBlocked}, nil
	}

	if m.Cooldown != nil && m.Cooldown.Active(ctx, user.UserID) {
		return session, Effects{Done: true, Guidance: GuidanceCooldown}, nil
	}

	// Privileged roles report for free and skip account selection. The
	// role is re-resolved here; the persisted one can be stale.
	role := user.Role
	if m.Roles != nil {
		role = m.Roles.Resolve(user.UserID)
	}
	if role.Privileged() {
		session.Privileged = true
		session.State = StateAdminTarget
		return session, Effects{Prompt: PromptAdminTarget}, nil
	}

	balance, err := m.Users.Balance(ctx, user.UserID)
	if err != nil {
		return session, Effects{Done: true, Guidance: GuidanceFailure}, err
	}
	if balance < m.ReportCost {
		return session, Effects{Done: true, Guidance: GuidanceInsufficientBalance}, nil
	}

	accounts, err := m.Accounts.ListByUser(ctx, user.UserID)
	if err != nil {
		return session, Effects{Done: true, Guidance: GuidanceFailure}, err
	}
	active := filterActive(accounts)
	if len(active) == 0 {
		return session, Effects{Done: true, Guidance: GuidanceNoAccounts}, nil
	}

	session.State = StateSelectAccount
	return session, Effects{Prompt: PromptSelectAccount, Accounts: active}, nil
}

// Advance applies one event to a session. Cancel is accepted in every
// state and terminates with no side effects; commit only happens on
// confirm (or on the admin reason pick).
func (m *Machine) Advance(ctx context.Context, session *Session, event Event) (Effects, error) {
	if event.Kind == EventCancel {
		session.State = StateTerminated
		return Effects{Done: true, Guidance: GuidanceCancelled}, nil
	}

	switch session.State {
	case StateSelectAccount:
		return m.onSelectAccount(ctx, session, event)
	case StateCollectType:
		return m.onCollectType(session, event)
	case StateCollectTarget:
		return m.onCollectTarget(session, event)
	case StateCollectReason:
		return m.onCollectReason(ctx, session, event)
	case StateCollectDetails:
		return m.onCollectDetails(ctx, session, event)
	case StateConfirm:
		return m.onConfirm(ctx, session, event)
	case StateAdminTarget:
		return m.onAdminTarget(session, event)
	case StateAdminReason:
		return m.onAdminReason(ctx, session, event)
	}
	return Effects{Done: true, Guidance: GuidanceFailure}, fmt.Errorf("advance: no transition from state %q", session.State)
}

func (m *Machine) onSelectAccount(ctx context.Context, session *Session, event Event) (Effects, error) {
	switch event.Kind {
	case EventAddAccount:
		session.State = StateTerminated
		return Effects{Done: true, Guidance: GuidanceAddAccount}, nil
	case EventSelectAccount:
		account, err := m.Accounts.Get(ctx, event.Value)
		if err != nil || account.UserID != session.UserID || account.Status != models.AccountActive {
			return Effects{Prompt: PromptSelectAccount, Invalid: "account unavailable"}, nil
		}
		session.AccountID = account.AccountID
		session.AccountName = account.Name
		session.State = StateCollectType
		return Effects{Prompt: PromptChooseType}, nil
	}
	return Effects{Prompt: PromptSelectAccount, Invalid: "pick an account"}, nil
}

func (m *Machine) onCollectType(session *Session, event Event) (Effects, error) {
	if event.Kind != EventChooseType {
		return Effects{Prompt: PromptChooseType, Invalid: "pick a type"}, nil
	}
	t := models.ReportType(event.Value)
	if t != models.TargetUser && t != models.TargetGroup && t != models.TargetChannel {
		return Effects{Prompt: PromptChooseType, Invalid: "pick a type"}, nil
	}
	session.Type = t
	session.State = StateCollectTarget
	return Effects{Prompt: PromptEnterTarget}, nil
}

func (m *Machine) onCollectTarget(session *Session, event Event) (Effects, error) {
	if event.Kind != EventText {
		return Effects{Prompt: PromptEnterTarget, Invalid: "send the target as text"}, nil
	}
	if !utils.ValidateTarget(event.Value) {
		session.Retries++
		if session.Retries >= MaxTargetRetries {
			session.State = StateTerminated
			return Effects{Done: true, Guidance: GuidanceTooManyRetries}, models.ErrTooManyRetries
		}
		return Effects{Prompt: PromptEnterTarget, Invalid: "invalid target format"}, nil
	}
	session.Target = event.Value
	session.Retries = 0
	session.State = StateCollectReason
	return Effects{Prompt: PromptChooseReason}, nil
}

func (m *Machine) onCollectReason(ctx context.Context, session *Session, event Event) (Effects, error) {
	if event.Kind != EventChooseReason || !models.ValidCategory(event.Value) {
		return Effects{Prompt: PromptChooseReason, Invalid: "pick a category"}, nil
	}
	session.Category = event.Value
	session.State = StateCollectDetails
	return Effects{Prompt: PromptEnterDetails}, nil
}

func (m *Machine) onCollectDetails(ctx context.Context, session *Session, event Event) (Effects, error) {
	switch event.Kind {
	case EventSkipDetails:
		session.Details = DetailsPlaceholder
	case EventAttachEvidence:
		session.Evidence = append(session.Evidence, event.Value)
		return Effects{Prompt: PromptEnterDetails}, nil
	case EventText:
		if utf8.RuneCountInString(event.Value) > m.MaxReportLength {
			return Effects{Prompt: PromptEnterDetails, Invalid: fmt.Sprintf("details too long, maximum %d characters", m.MaxReportLength)}, nil
		}
		session.Details = event.Value
	default:
		return Effects{Prompt: PromptEnterDetails, Invalid: "send details as text or /skip"}, nil
	}

	session.State = StateConfirm
	summary, err := m.summary(ctx, session)
	if err != nil {
		session.State = StateTerminated
		return Effects{Done: true, Guidance: GuidanceFailure}, err
	}
	return Effects{Prompt: PromptConfirm, Summary: summary}, nil
}

func (m *Machine) onConfirm(ctx context.Context, session *Session, event Event) (Effects, error) {
	if event.Kind != EventConfirm {
		summary, err := m.summary(ctx, session)
		if err != nil {
			session.State = StateTerminated
			return Effects{Done: true, Guidance: GuidanceFailure}, err
		}
		return Effects{Prompt: PromptConfirm, Summary: summary, Invalid: "confirm or cancel"}, nil
	}
	return m.commit(ctx, session)
}

func (m *Machine) onAdminTarget(session *Session, event Event) (Effects, error) {
	if event.Kind != EventText {
		return Effects{Prompt: PromptAdminTarget, Invalid: "send the target as text"}, nil
	}
	if !utils.ValidateTarget(event.Value) {
		session.Retries++
		if session.Retries >= MaxTargetRetries {
			session.State = StateTerminated
			return Effects{Done: true, Guidance: GuidanceTooManyRetries}, models.ErrTooManyRetries
		}
		return Effects{Prompt: PromptAdminTarget, Invalid: "invalid target format"}, nil
	}
	session.Target = event.Value
	session.Retries = 0
	session.State = StateAdminReason
	return Effects{Prompt: PromptAdminReason}, nil
}

func (m *Machine) onAdminReason(ctx context.Context, session *Session, event Event) (Effects, error) {
	if event.Kind != EventChooseReason || !models.ValidCategory(event.Value) {
		return Effects{Prompt: PromptAdminReason, Invalid: "pick a category"}, nil
	}
	session.Category = event.Value
	session.Type = models.TargetAdmin
	session.AccountID = "admin"
	session.Details = "Admin Report"
	return m.commit(ctx, session)
}

func (m *Machine) summary(ctx context.Context, session *Session) (*Summary, error) {
	balance, err := m.Users.Balance(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return &Summary{
		TypeLabel:     models.TypeLabels[session.Type],
		Target:        session.Target,
		CategoryLabel: models.Categories[session.Category],
		Details:       utils.Truncate(session.Details, 200),
		Cost:          m.ReportCost,
		Balance:       balance,
	}, nil
}

// commit performs the submission: debit (non-privileged), insert the
// report, bump counters, broadcast. Debit and insert are two separate
// writes; on insert failure the debit is refunded best-effort.
func (m *Machine) commit(ctx context.Context, session *Session) (Effects, error) {
	session.State = StateTerminated

	cost := m.ReportCost
	if session.Privileged {
		cost = 0
	}

	if !session.Privileged {
		// Account may have been deleted mid-workflow.
		account, err := m.Accounts.Get(ctx, session.AccountID)
		if err != nil || account.UserID != session.UserID {
			return Effects{Done: true, Guidance: GuidanceFailure}, models.ErrNotFound
		}

		// Conditional atomic decrement; fails instead of going negative.
		if err := m.Users.Debit(ctx, session.UserID, cost); err != nil {
			if err == models.ErrInsufficientBalance {
				return Effects{Done: true, Guidance: GuidanceBalanceChanged}, nil
			}
			return Effects{Done: true, Guidance: GuidanceFailure}, err
		}
	}

	report := &models.Report{
		ReportID:   utils.NewReportID(),
		UserID:     session.UserID,
		AccountID:  session.AccountID,
		Type:       session.Type,
		Target:     session.Target,
		Category:   session.Category,
		Details:    session.Details,
		Evidence:   session.Evidence,
		TokensUsed: cost,
		Status:     models.ReportPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := m.Reports.Insert(ctx, report); err != nil {
		if !session.Privileged {
			if rerr := m.Users.Credit(ctx, session.UserID, cost); rerr != nil {
				log.Printf("report %s: refund of %d tokens for user %d failed: %v", report.ReportID, cost, session.UserID, rerr)
			}
		}
		return Effects{Done: true, Guidance: GuidanceFailure}, err
	}

	if !session.Privileged {
		if err := m.Accounts.MarkUsed(ctx, session.AccountID); err != nil {
			log.Printf("report %s: mark account %s used failed: %v", report.ReportID, session.AccountID, err)
		}
	}
	if err := m.Users.IncrementReportCount(ctx, session.UserID); err != nil {
		log.Printf("report %s: report count bump for user %d failed: %v", report.ReportID, session.UserID, err)
	}

	if m.Cooldown != nil {
		m.Cooldown.Arm(ctx, session.UserID)
	}

	if m.Notify != nil {
		m.Notify.Broadcast(broadcastText(session, report))
	}

	return Effects{
		Done: true,
		Result: &CommitResult{
			ReportID:   report.ReportID,
			Category:   session.Category,
			TokensUsed: cost,
		},
	}, nil
}

func broadcastText(session *Session, report *models.Report) string {
	header := "🚨 *NEW REPORT*"
	if session.Privileged {
		header = "👑 *ADMIN REPORT*"
	}
	return fmt.Sprintf(
		"%s\n\n*Report ID:* `%s`\n*User:* `%d`\n*Type:* %s\n*Category:* %s\n*Target:* `%s`\n*Details:* %s",
		header, report.ReportID, report.UserID, report.Type,
		models.Categories[report.Category], report.Target,
		utils.Truncate(report.Details, 100),
	)
}

func filterActive(accounts []models.Account) []models.Account {
	var active []models.Account
	for _, a := range accounts {
		if a.Status == models.AccountActive {
			active = append(active, a)
		}
	}
	return active
}
