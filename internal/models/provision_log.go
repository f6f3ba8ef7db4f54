package models

import "time"

// ProvisionLog is the append-only audit record of one resolved provision.
// It captures the holding's limit/usage snapshot as of resolution, the
// signed delta that was finalized or undone, and the caller's reason
// prefixed with ACCEPT: or REJECT:. The engine never updates or deletes
// rows in this table.
type ProvisionLog struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Serial      int64     `gorm:"column:serial;not null;index" json:"serial"`
	Name        string    `gorm:"column:name;not null;default:''" json:"name"`
	Holder      string    `gorm:"column:holder;not null;size:255;index" json:"holder"`
	Source      string    `gorm:"column:source;not null;size:255" json:"source"`
	Resource    string    `gorm:"column:resource;not null;size:255" json:"resource"`
	Limit       int64     `gorm:"column:limit;not null" json:"limit"`
	UsageMin    int64     `gorm:"column:usage_min;not null" json:"usage_min"`
	UsageMax    int64     `gorm:"column:usage_max;not null" json:"usage_max"`
	Quantity    int64     `gorm:"column:quantity;not null" json:"quantity"`
	IssueTime   time.Time `gorm:"column:issue_time;not null" json:"issue_time"`
	ResolveTime time.Time `gorm:"column:resolve_time;not null" json:"resolve_time"`
	Reason      string    `gorm:"column:reason;size:128" json:"reason"`
}

func (ProvisionLog) TableName() string {
	return "quota_provision_logs"
}
