package models

import (
	"fmt"
	"time"
)

// HoldingKey identifies one quota record: the account the quota applies to
// (holder), the pool it draws from (source), and the metered dimension
// (resource).
type HoldingKey struct {
	Holder   string `json:"holder"`
	Source   string `json:"source"`
	Resource string `json:"resource"`
}

func (k HoldingKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Holder, k.Source, k.Resource)
}

// Less orders keys lexicographically by (holder, source, resource). All
// batch operations lock holdings in this order so concurrent overlapping
// batches cannot deadlock.
func (k HoldingKey) Less(o HoldingKey) bool {
	if k.Holder != o.Holder {
		return k.Holder < o.Holder
	}
	if k.Source != o.Source {
		return k.Source < o.Source
	}
	return k.Resource < o.Resource
}

// Holding is one quota record. UsageMin is the committed floor, UsageMax the
// held ceiling including unresolved holds; 0 <= UsageMin <= UsageMax always,
// and UsageMax <= Limit except while a forced over-commission is pending.
type Holding struct {
	Holder    string    `gorm:"column:holder;primaryKey;size:255" json:"holder"`
	Source    string    `gorm:"column:source;primaryKey;size:255" json:"source"`
	Resource  string    `gorm:"column:resource;primaryKey;size:255" json:"resource"`
	Limit     int64     `gorm:"column:limit;not null;default:0" json:"limit"`
	UsageMin  int64     `gorm:"column:usage_min;not null;default:0" json:"usage_min"`
	UsageMax  int64     `gorm:"column:usage_max;not null;default:0" json:"usage_max"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Holding) TableName() string {
	return "quota_holdings"
}

// Key returns the holding's identity triple.
func (h *Holding) Key() HoldingKey {
	return HoldingKey{Holder: h.Holder, Source: h.Source, Resource: h.Resource}
}
