package workflow

import (
	"time"

	"telereport/internal/models"
)

// State names the workflow steps. A session suspends between states
// waiting for the next inbound event from the same chat; state lives in
// Redis, not on a blocked goroutine.
type State string

const (
	StateSelectAccount  State = "select_account"
	StateCollectType    State = "collect_type"
	StateCollectTarget  State = "collect_target"
	StateCollectReason  State = "collect_reason"
	StateCollectDetails State = "collect_details"
	StateConfirm        State = "confirm"

	// Reduced free-report path for privileged roles.
	StateAdminTarget State = "admin_target"
	StateAdminReason State = "admin_reason"

	// Absorbing state; transient data is discarded.
	StateTerminated State = "terminated"
)

// Session is the explicit per-chat workflow value object. It carries
// everything collected so far; nothing here is committed until the
// confirm step succeeds.
type Session struct {
	UserID      int64             `json:"user_id"`
	State       State             `json:"state"`
	Privileged  bool              `json:"privileged"`
	AccountID   string            `json:"account_id,omitempty"`
	AccountName string            `json:"account_name,omitempty"`
	Type        models.ReportType `json:"type,omitempty"`
	Target      string            `json:"target,omitempty"`
	Category    string            `json:"category,omitempty"`
	Details     string            `json:"details,omitempty"`
	Evidence    []string          `json:"evidence,omitempty"`
	Retries     int               `json:"retries"`
	StartedAt   time.Time         `json:"started_at"`
}

// EventKind tags inbound workflow events.
type EventKind int

const (
	EventCancel EventKind = iota
	EventSelectAccount
	EventAddAccount
	EventChooseType
	EventText
	EventChooseReason
	EventSkipDetails
	EventAttachEvidence
	EventConfirm
)

// Event is one inbound user action; Value holds the account ID, type,
// category tag, free text or evidence URL depending on Kind.
type Event struct {
	Kind  EventKind
	Value string
}

// Prompt tells the handler which message/keyboard to render next.
type Prompt int

const (
	PromptNone Prompt = iota
	PromptSelectAccount
	PromptChooseType
	PromptEnterTarget
	PromptChooseReason
	PromptEnterDetails
	PromptConfirm
	PromptAdminTarget
	PromptAdminReason
)

// Guidance names a user-facing terminal outcome that is not a commit.
type Guidance int

const (
	GuidanceNone Guidance = iota
	GuidanceBlocked
	GuidanceCooldown
	GuidanceInsufficientBalance
	GuidanceNoAccounts
	GuidanceAddAccount
	GuidanceCancelled
	GuidanceTooManyRetries
	GuidanceBalanceChanged
	GuidanceFailure
)

// Summary is the confirm-step rendering of the collected fields. This is
// the only place cost is re-displayed before commit.
type Summary struct {
	TypeLabel     string
	Target        string
	CategoryLabel string
	Details       string
	Cost          int
	Balance       int
}

// CommitResult reports a successful commit.
type CommitResult struct {
	ReportID   string
	Category   string
	TokensUsed int
}

// Effects is what a transition asks the handler to do. At most one of
// Result/Guidance is meaningful; Invalid re-prompts in the same state.
type Effects struct {
	Prompt   Prompt
	Accounts []models.Account
	Summary  *Summary
	Invalid  string
	Result   *CommitResult
	Guidance Guidance
	Done     bool
}
