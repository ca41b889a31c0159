package models

import (
	"time"
)

type Source string

const (
	SourceVoice Source = "voice"
	SourceSMS   Source = "sms"
)

type Status string

const (
	StatusNew      Status = "new"
	StatusAnalyzed Status = "analyzed"
)

// TranscriptRecord is one row of the Transcripts table.
// MessageID is the call or message SID and is the lookup key in the store.
type TranscriptRecord struct {
	MessageID  string    `json:"message_id"`
	FromNumber string    `json:"from_number,omitempty"`
	Text       string    `json:"text"`
	Source     Source    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
	Status     Status    `json:"status"`
	Categories []string  `json:"categories,omitempty"`
}

// NewTranscriptRecord returns a record in the new status stamped with now.
func NewTranscriptRecord(messageID, fromNumber, text string, source Source, now time.Time) *TranscriptRecord {
	return &TranscriptRecord{
		MessageID:  messageID,
		FromNumber: fromNumber,
		Text:       text,
		Source:     source,
		Timestamp:  now,
		Status:     StatusNew,
	}
}

// AnalyzedEvent is published after a record's categories were written.
type AnalyzedEvent struct {
	EventType  string    `json:"eventType"`
	MessageID  string    `json:"messageId"`
	FromNumber string    `json:"fromNumber,omitempty"`
	Source     Source    `json:"source"`
	Categories []string  `json:"categories"`
	Timestamp  int64     `json:"timestamp"`
	AnalyzedAt time.Time `json:"analyzedAt"`
}
