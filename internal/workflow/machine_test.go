package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"telereport/internal/models"
)

type fakeUsers struct {
	balance     int
	credits     int
	reportCount int
	balanceErr  error
}

func (f *fakeUsers) Balance(ctx context.Context, userID int64) (int, error) {
	return f.balance, f.balanceErr
}

func (f *fakeUsers) Debit(ctx context.Context, userID int64, n int) error {
	if f.balance < n {
		return models.ErrInsufficientBalance
	}
	f.balance -= n
	return nil
}

func (f *fakeUsers) Credit(ctx context.Context, userID int64, n int) error {
	f.balance += n
	f.credits += n
	return nil
}

func (f *fakeUsers) IncrementReportCount(ctx context.Context, userID int64) error {
	f.reportCount++
	return nil
}

type fakeAccounts struct {
	accounts   map[string]*models.Account
	marked     []string
	listCalled bool
}

func (f *fakeAccounts) ListByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	f.listCalled = true
	var out []models.Account
	for _, a := range f.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) Get(ctx context.Context, accountID string) (*models.Account, error) {
	a, ok := f.accounts[accountID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return a, nil
}

func (f *fakeAccounts) MarkUsed(ctx context.Context, accountID string) error {
	f.marked = append(f.marked, accountID)
	return nil
}

type fakeReports struct {
	inserted  []*models.Report
	insertErr error
}

func (f *fakeReports) Insert(ctx context.Context, report *models.Report) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, report)
	return nil
}

type fakeNotify struct {
	broadcasts []string
}

func (f *fakeNotify) Broadcast(text string) {
	f.broadcasts = append(f.broadcasts, text)
}

type fakeCooldown struct {
	active bool
	armed  int
}

func (f *fakeCooldown) Active(ctx context.Context, userID int64) bool { return f.active }
func (f *fakeCooldown) Arm(ctx context.Context, userID int64)         { f.armed++ }

type fixture struct {
	machine  *Machine
	users    *fakeUsers
	accounts *fakeAccounts
	reports  *fakeReports
	notify   *fakeNotify
	cooldown *fakeCooldown
}

func newFixture() *fixture {
	users := &fakeUsers{balance: 10}
	accounts := &fakeAccounts{accounts: map[string]*models.Account{
		"acc-1": {AccountID: "acc-1", UserID: 100, Name: "Main", Status: models.AccountActive, IsPrimary: true},
		"acc-2": {AccountID: "acc-2", UserID: 100, Name: "Spare", Status: models.AccountInactive},
		"acc-3": {AccountID: "acc-3", UserID: 999, Name: "Other", Status: models.AccountActive},
	}}
	reports := &fakeReports{}
	notify := &fakeNotify{}
	cooldown := &fakeCooldown{}
	return &fixture{
		machine: &Machine{
			Users:           users,
			Accounts:        accounts,
			Reports:         reports,
			Notify:          notify,
			Cooldown:        cooldown,
			ReportCost:      1,
			MaxReportLength: 1000,
		},
		users:    users,
		accounts: accounts,
		reports:  reports,
		notify:   notify,
		cooldown: cooldown,
	}
}

func normalUser() *models.User {
	return &models.User{UserID: 100, Role: models.RoleNormal, Tokens: 10, JoinedAt: time.Now()}
}

func TestStartBlockedUser(t *testing.T) {
	f := newFixture()
	user := normalUser()
	user.IsBlocked = true

	_, effects, err := f.machine.Start(context.Background(), user)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !effects.Done || effects.Guidance != GuidanceBlocked {
		t.Fatalf("expected blocked guidance, got %+v", effects)
	}
}

func TestStartDuringCooldown(t *testing.T) {
	f := newFixture()
	f.cooldown.active = true

	_, effects, err := f.machine.Start(context.Background(), normalUser())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !effects.Done || effects.Guidance != GuidanceCooldown {
		t.Fatalf("expected cooldown guidance, got %+v", effects)
	}
}

// The account list must never be consulted when the balance check fails;
// insufficient balance is the terminal outcome even with valid accounts.
func TestStartInsufficientBalanceSkipsAccounts(t *testing.T) {
	f := newFixture()
	f.users.balance = 0

	_, effects, err := f.machine.Start(context.Background(), normalUser())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !effects.Done || effects.Guidance != GuidanceInsufficientBalance {
		t.Fatalf("expected insufficient balance guidance, got %+v", effects)
	}
	if f.accounts.listCalled {
		t.Fatal("account list consulted despite failed balance check")
	}
}

func TestStartNoActiveAccounts(t *testing.T) {
	f := newFixture()
	f.accounts.accounts["acc-1"].Status = models.AccountSuspended

	_, effects, err := f.machine.Start(context.Background(), normalUser())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !effects.Done || effects.Guidance != GuidanceNoAccounts {
		t.Fatalf("expected no-accounts guidance, got %+v", effects)
	}
}

func TestStartListsOnlyActiveAccounts(t *testing.T) {
	f := newFixture()

	session, effects, err := f.machine.Start(context.Background(), normalUser())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.State != StateSelectAccount || effects.Prompt != PromptSelectAccount {
		t.Fatalf("expected select-account prompt, got state %q effects %+v", session.State, effects)
	}
	if len(effects.Accounts) != 1 || effects.Accounts[0].AccountID != "acc-1" {
		t.Fatalf("expected only the active account, got %+v", effects.Accounts)
	}
}

func TestStartPrivilegedSkipsAccountsAndBalance(t *testing.T) {
	f := newFixture()
	f.users.balance = 0
	user := normalUser()
	user.Role = models.RoleAdmin

	session, effects, err := f.machine.Start(context.Background(), user)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.State != StateAdminTarget || effects.Prompt != PromptAdminTarget {
		t.Fatalf("expected admin target prompt, got state %q effects %+v", session.State, effects)
	}
	if f.accounts.listCalled {
		t.Fatal("account list consulted on privileged path")
	}
}

type fakeRoles struct {
	roles map[int64]models.Role
}

func (f *fakeRoles) Resolve(userID int64) models.Role {
	if role, ok := f.roles[userID]; ok {
		return role
	}
	return models.RoleNormal
}

// Privilege follows the current configuration, not the role stamped on
// the user document at creation time.
func TestStartResolvesRoleDynamically(t *testing.T) {
	// Promoted after first contact: persisted normal, resolver says admin.
	f := newFixture()
	f.machine.Roles = &fakeRoles{roles: map[int64]models.Role{100: models.RoleAdmin}}

	session, effects, err := f.machine.Start(context.Background(), normalUser())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.State != StateAdminTarget || !session.Privileged {
		t.Fatalf("promoted user not on admin path: state %q effects %+v", session.State, effects)
	}

	// Demoted after first contact: persisted admin, resolver says normal.
	f = newFixture()
	f.machine.Roles = &fakeRoles{}
	user := normalUser()
	user.Role = models.RoleAdmin

	session, effects, err = f.machine.Start(context.Background(), user)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.State != StateSelectAccount || session.Privileged {
		t.Fatalf("demoted user kept admin path: state %q effects %+v", session.State, effects)
	}
	if effects.Prompt != PromptSelectAccount {
		t.Fatalf("expected account selection, got %+v", effects)
	}
}

func advanceAll(t *testing.T, f *fixture, session *Session, events []Event) Effects {
	t.Helper()
	var effects Effects
	var err error
	for i, event := range events {
		effects, err = f.machine.Advance(context.Background(), session, event)
		if err != nil {
			t.Fatalf("event %d (%v): %v", i, event.Kind, err)
		}
	}
	return effects
}

func TestFullSubmission(t *testing.T) {
	f := newFixture()

	session, _, err := f.machine.Start(context.Background(), normalUser())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	effects := advanceAll(t, f, session, []Event{
		{Kind: EventSelectAccount, Value: "acc-1"},
		{Kind: EventChooseType, Value: "user"},
		{Kind: EventText, Value: "@spammer123"},
		{Kind: EventChooseReason, Value: "spam"},
		{Kind: EventText, Value: "keeps spamming links"},
		{Kind: EventConfirm},
	})

	if !effects.Done || effects.Result == nil {
		t.Fatalf("expected committed result, got %+v", effects)
	}
	if len(f.reports.inserted) != 1 {
		t.Fatalf("expected 1 report, got %d", len(f.reports.inserted))
	}
	report := f.reports.inserted[0]
	if report.Target != "@spammer123" || report.Category != "spam" || report.TokensUsed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Status != models.ReportPending {
		t.Fatalf("new report must be pending, got %q", report.Status)
	}
	if f.users.balance != 9 {
		t.Fatalf("expected balance 9 after debit, got %d", f.users.balance)
	}
	if len(f.accounts.marked) != 1 || f.accounts.marked[0] != "acc-1" {
		t.Fatalf("account not marked used: %v", f.accounts.marked)
	}
	if f.users.reportCount != 1 {
		t.Fatalf("report count not bumped: %d", f.users.reportCount)
	}
	if f.cooldown.armed != 1 {
		t.Fatalf("cooldown not armed: %d", f.cooldown.armed)
	}
	if len(f.notify.broadcasts) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(f.notify.broadcasts))
	}
}

// Cancel is accepted in every state and must leave no side effects.
func TestCancelFromEveryState(t *testing.T) {
	states := []State{
		StateSelectAccount, StateCollectType, StateCollectTarget,
		StateCollectReason, StateCollectDetails, StateConfirm,
		StateAdminTarget, StateAdminReason,
	}
	for _, state := range states {
		f := newFixture()
		session := &Session{UserID: 100, State: state}

		effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventCancel})
		if err != nil {
			t.Fatalf("cancel from %q: %v", state, err)
		}
		if !effects.Done || effects.Guidance != GuidanceCancelled {
			t.Fatalf("cancel from %q: got %+v", state, effects)
		}
		if session.State != StateTerminated {
			t.Fatalf("cancel from %q: state %q", state, session.State)
		}
		if len(f.reports.inserted) != 0 || f.users.balance != 10 || f.cooldown.armed != 0 {
			t.Fatalf("cancel from %q left side effects", state)
		}
	}
}

func TestTargetRetryCap(t *testing.T) {
	f := newFixture()
	session := &Session{UserID: 100, State: StateCollectTarget, Type: models.TargetUser}

	var effects Effects
	var err error
	for i := 0; i < MaxTargetRetries; i++ {
		effects, err = f.machine.Advance(context.Background(), session, Event{Kind: EventText, Value: "not a target"})
	}
	if err != models.ErrTooManyRetries {
		t.Fatalf("expected ErrTooManyRetries, got %v", err)
	}
	if !effects.Done || effects.Guidance != GuidanceTooManyRetries {
		t.Fatalf("expected too-many-retries guidance, got %+v", effects)
	}
	if session.State != StateTerminated {
		t.Fatalf("session not terminated: %q", session.State)
	}
}

func TestValidTargetResetsRetries(t *testing.T) {
	f := newFixture()
	session := &Session{UserID: 100, State: StateCollectTarget, Type: models.TargetUser, Retries: MaxTargetRetries - 1}

	effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventText, Value: "@validname"})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if effects.Prompt != PromptChooseReason || session.Retries != 0 {
		t.Fatalf("expected reason prompt with reset retries, got %+v retries=%d", effects, session.Retries)
	}
}

func TestDetailsTooLong(t *testing.T) {
	f := newFixture()
	f.machine.MaxReportLength = 10
	session := &Session{UserID: 100, State: StateCollectDetails}

	effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventText, Value: "this is far too long"})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if effects.Invalid == "" || effects.Prompt != PromptEnterDetails {
		t.Fatalf("expected re-prompt on long details, got %+v", effects)
	}
	if session.State != StateCollectDetails {
		t.Fatalf("state advanced on invalid details: %q", session.State)
	}
}

// The details bound counts characters, not bytes; multibyte text at the
// limit must pass.
func TestDetailsBoundCountsRunes(t *testing.T) {
	f := newFixture()
	f.machine.MaxReportLength = 10
	session := &Session{UserID: 100, State: StateCollectDetails, AccountID: "acc-1", Type: models.TargetUser, Target: "@x_y_z_1", Category: "spam"}

	details := "десять сим" // 10 runes, 19 bytes
	effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventText, Value: details})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if effects.Invalid != "" {
		t.Fatalf("10-rune details rejected: %+v", effects)
	}
	if session.Details != details || effects.Prompt != PromptConfirm {
		t.Fatalf("details not accepted: %+v", effects)
	}
}

func TestSkipDetailsUsesPlaceholder(t *testing.T) {
	f := newFixture()
	session := &Session{UserID: 100, State: StateCollectDetails, AccountID: "acc-1", Type: models.TargetUser, Target: "@x_y_z_1", Category: "spam"}

	effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventSkipDetails})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if session.Details != DetailsPlaceholder {
		t.Fatalf("expected placeholder details, got %q", session.Details)
	}
	if effects.Prompt != PromptConfirm || effects.Summary == nil {
		t.Fatalf("expected confirm prompt with summary, got %+v", effects)
	}
}

func TestEvidenceAccumulates(t *testing.T) {
	f := newFixture()
	session := &Session{UserID: 100, State: StateCollectDetails}

	f.machine.Advance(context.Background(), session, Event{Kind: EventAttachEvidence, Value: "https://cdn/one.jpg"})
	effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventAttachEvidence, Value: "https://cdn/two.jpg"})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if session.State != StateCollectDetails || effects.Prompt != PromptEnterDetails {
		t.Fatal("evidence attachment must stay in the details step")
	}
	if len(session.Evidence) != 2 {
		t.Fatalf("expected 2 evidence entries, got %d", len(session.Evidence))
	}
}

// Balance can drain between the confirm prompt and the commit. The
// conditional debit must fail cleanly instead of going negative.
func TestBalanceChangedAtCommit(t *testing.T) {
	f := newFixture()
	session := &Session{UserID: 100, State: StateConfirm, AccountID: "acc-1", Type: models.TargetUser, Target: "@x_y_z_1", Category: "spam", Details: "d"}
	f.users.balance = 0

	effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventConfirm})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !effects.Done || effects.Guidance != GuidanceBalanceChanged {
		t.Fatalf("expected balance-changed guidance, got %+v", effects)
	}
	if len(f.reports.inserted) != 0 {
		t.Fatal("report inserted despite failed debit")
	}
	if f.users.balance != 0 {
		t.Fatalf("balance went negative: %d", f.users.balance)
	}
}

func TestInsertFailureRefundsDebit(t *testing.T) {
	f := newFixture()
	f.reports.insertErr = errors.New("mongo down")
	session := &Session{UserID: 100, State: StateConfirm, AccountID: "acc-1", Type: models.TargetUser, Target: "@x_y_z_1", Category: "spam", Details: "d"}

	effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventConfirm})
	if err == nil {
		t.Fatal("expected error from failed insert")
	}
	if !effects.Done || effects.Guidance != GuidanceFailure {
		t.Fatalf("expected failure guidance, got %+v", effects)
	}
	if f.users.balance != 10 || f.users.credits != 1 {
		t.Fatalf("debit not refunded: balance=%d credits=%d", f.users.balance, f.users.credits)
	}
	if f.cooldown.armed != 0 {
		t.Fatal("cooldown armed on failed commit")
	}
}

func TestAccountDeletedMidWorkflow(t *testing.T) {
	f := newFixture()
	session := &Session{UserID: 100, State: StateConfirm, AccountID: "acc-gone", Type: models.TargetUser, Target: "@x_y_z_1", Category: "spam", Details: "d"}

	effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventConfirm})
	if err != models.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !effects.Done || effects.Guidance != GuidanceFailure {
		t.Fatalf("expected failure guidance, got %+v", effects)
	}
	if f.users.balance != 10 {
		t.Fatal("debit happened for a deleted account")
	}
}

// Another user's account (or an inactive one) must be rejected at the
// selection step, not at commit.
func TestSelectForeignOrInactiveAccount(t *testing.T) {
	f := newFixture()
	for _, accountID := range []string{"acc-3", "acc-2", "nope"} {
		session := &Session{UserID: 100, State: StateSelectAccount}
		effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventSelectAccount, Value: accountID})
		if err != nil {
			t.Fatalf("select %q: %v", accountID, err)
		}
		if effects.Invalid == "" || session.State != StateSelectAccount {
			t.Fatalf("select %q accepted: %+v", accountID, effects)
		}
	}
}

func TestAdminFreePath(t *testing.T) {
	f := newFixture()
	user := normalUser()
	user.Role = models.RoleOwner

	session, _, err := f.machine.Start(context.Background(), user)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	effects := advanceAll(t, f, session, []Event{
		{Kind: EventText, Value: "https://t.me/badchannel"},
		{Kind: EventChooseReason, Value: "scam"},
	})

	if !effects.Done || effects.Result == nil {
		t.Fatalf("expected committed result, got %+v", effects)
	}
	if effects.Result.TokensUsed != 0 {
		t.Fatalf("admin report must be free, used %d", effects.Result.TokensUsed)
	}
	if f.users.balance != 10 {
		t.Fatalf("admin report debited tokens: %d", f.users.balance)
	}
	report := f.reports.inserted[0]
	if report.Type != models.TargetAdmin || report.AccountID != "admin" {
		t.Fatalf("unexpected admin report %+v", report)
	}
	if len(f.accounts.marked) != 0 {
		t.Fatal("admin path marked an account used")
	}
}

func TestInvalidCategoryRejected(t *testing.T) {
	f := newFixture()
	session := &Session{UserID: 100, State: StateCollectReason, Target: "@x_y_z_1"}

	effects, err := f.machine.Advance(context.Background(), session, Event{Kind: EventChooseReason, Value: "made_up"})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if effects.Invalid == "" || session.State != StateCollectReason {
		t.Fatalf("invalid category accepted: %+v", effects)
	}
}
