package models

import (
	"time"

	"gorm.io/datatypes"
)

// Commission is one atomically-issued batch of provisions. It exists only
// while pending: resolution deletes the row (and its provisions) after
// writing the audit trail, so presence in this table means PENDING.
type Commission struct {
	Serial    int64          `gorm:"column:serial;primaryKey;autoIncrement" json:"serial"`
	ClientKey string         `gorm:"column:clientkey;not null;index" json:"clientkey"`
	Name      string         `gorm:"column:name;not null;default:''" json:"name"`
	IssueTime time.Time      `gorm:"column:issue_time;not null" json:"issue_time"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
}

func (Commission) TableName() string {
	return "quota_commissions"
}

// Provision is one line item of a commission. Quantity is signed: positive
// is an Import (reservation), negative a Release (give-back). It references
// a holding by key, not by foreign key; the holding row may legitimately be
// absent at issue time (that rejects the batch) and its later disappearance
// is a corruption signal.
type Provision struct {
	Serial   int64  `gorm:"column:serial;primaryKey" json:"serial"`
	Holder   string `gorm:"column:holder;primaryKey;size:255" json:"holder"`
	Source   string `gorm:"column:source;primaryKey;size:255" json:"source"`
	Resource string `gorm:"column:resource;primaryKey;size:255" json:"resource"`
	Quantity int64  `gorm:"column:quantity;not null" json:"quantity"`
}

func (Provision) TableName() string {
	return "quota_provisions"
}

// Key returns the referenced holding's identity triple.
func (p *Provision) Key() HoldingKey {
	return HoldingKey{Holder: p.Holder, Source: p.Source, Resource: p.Resource}
}
