package models

import (
	"encoding/json"
	"time"
)

// QuotaState is the persisted request counter for the current quota window
type QuotaState struct {
	Count     int
	ResetTime time.Time
}

// quotaStateJSON keeps the persisted layout: resetTime in epoch milliseconds
type quotaStateJSON struct {
	Count     int   `json:"count"`
	ResetTime int64 `json:"resetTime"`
}

// MarshalJSON encodes the state as {"count":N,"resetTime":<epoch ms>}
func (q QuotaState) MarshalJSON() ([]byte, error) {
	return json.Marshal(quotaStateJSON{
		Count:     q.Count,
		ResetTime: q.ResetTime.UnixMilli(),
	})
}

// UnmarshalJSON decodes the persisted layout
func (q *QuotaState) UnmarshalJSON(data []byte) error {
	var raw quotaStateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	q.Count = raw.Count
	q.ResetTime = time.UnixMilli(raw.ResetTime)
	return nil
}

// RateLimits is the quota snapshot exposed to the presentation layer
type RateLimits struct {
	Limit             int
	RequestsUsed      int
	RequestsRemaining int
	MinutesUntilReset int
	ResetTime         time.Time
}

// CacheEntry is a stored response with its fetch time
type CacheEntry struct {
	Payload   json.RawMessage
	FetchedAt time.Time
}

type cacheEntryJSON struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// MarshalJSON encodes the entry as {"data":...,"timestamp":<epoch ms>}
func (e CacheEntry) MarshalJSON() ([]byte, error) {
	data := e.Payload
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return json.Marshal(cacheEntryJSON{
		Data:      data,
		Timestamp: e.FetchedAt.UnixMilli(),
	})
}

// UnmarshalJSON decodes the persisted layout
func (e *CacheEntry) UnmarshalJSON(data []byte) error {
	var raw cacheEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Payload = raw.Data
	e.FetchedAt = time.UnixMilli(raw.Timestamp)
	return nil
}

// NoticeLevel classifies a user-visible notice
type NoticeLevel string

const (
	NoticeInfo        NoticeLevel = "info"
	NoticeDestructive NoticeLevel = "destructive"
)

// Notice is a non-fatal, user-visible message
type Notice struct {
	Level   NoticeLevel
	Title   string
	Message string
}
