package models

import "time"

type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
	ReportRejected ReportStatus = "rejected"
)

type ReportType string

const (
	TargetUser    ReportType = "user"
	TargetGroup   ReportType = "group"
	TargetChannel ReportType = "channel"
	TargetAdmin   ReportType = "admin" // free-form admin report
)

// Report records a single abuse submission and its review outcome. The
// core fields are immutable once created; only the review sub-fields
// (Status, ReviewedBy, ReviewedAt, Result) change afterwards. Reports are
// never deleted.
type Report struct {
	ReportID   string       `bson:"report_id" json:"report_id"`
	UserID     int64        `bson:"user_id" json:"user_id"`
	AccountID  string       `bson:"account_id" json:"account_id"`
	Type       ReportType   `bson:"type" json:"type"`
	Target     string       `bson:"target" json:"target"`
	Category   string       `bson:"category" json:"category"`
	Details    string       `bson:"details" json:"details"`
	Evidence   []string     `bson:"evidence,omitempty" json:"evidence,omitempty"`
	TokensUsed int          `bson:"tokens_used" json:"tokens_used"`
	Status     ReportStatus `bson:"status" json:"status"`
	CreatedAt  time.Time    `bson:"created_at" json:"created_at"`
	ReviewedBy int64        `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time   `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	Result     string       `bson:"result,omitempty" json:"result,omitempty"`
}

// Categories is the closed set of report category tags. Keys are stored
// on reports; values are the labels shown in keyboards.
var Categories = map[string]string{
	"abuse":         "🚫 Abuse/Harassment",
	"pron":          "🔞 Adult Content",
	"information":   "📋 Personal Information Leak",
	"data_leak":     "💾 Data Leak/Private Info",
	"sticker_pron":  "🎭 Sticker - Adult Content",
	"harassing":     "⚠️ Harassing Behavior",
	"personal_data": "🔐 Personal Data Exposure",
	"spam":          "📧 Spam",
	"scam":          "💰 Scam/Fraud",
	"impersonation": "👤 Impersonation",
	"illegal":       "⚖️ Illegal Content",
	"other":         "📌 Other",
}

// CategoryOrder fixes the keyboard ordering (map iteration is random).
var CategoryOrder = []string{
	"abuse", "pron", "information", "data_leak", "sticker_pron", "harassing",
	"personal_data", "spam", "scam", "impersonation", "illegal", "other",
}

// ValidCategory reports whether tag is in the closed category set.
func ValidCategory(tag string) bool {
	_, ok := Categories[tag]
	return ok
}

// TypeLabels maps report types to display labels.
var TypeLabels = map[ReportType]string{
	TargetUser:    "👤 User",
	TargetGroup:   "👥 Group",
	TargetChannel: "📢 Channel",
}
