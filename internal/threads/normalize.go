// Package threads turns raw dataset records into canonical threads.
package threads

import (
	"slices"
	"strings"
	"time"

	"ceassist/internal/models"

	"github.com/go-openapi/strfmt"
)

// epoch is where messages with unreadable timestamps sort.
var epoch = time.Unix(0, 0).UTC()

// fallbackLayouts covers timestamp shapes strfmt does not accept.
var fallbackLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
}

// Normalize copies the known fields of raw and orders its messages by
// timestamp. Messages whose timestamp cannot be parsed sort as the Unix
// epoch; ties keep their original relative order.
func Normalize(raw models.RawThread) models.Thread {
	messages := make([]models.Message, 0, len(raw.Messages))
	for _, m := range raw.Messages {
		messages = append(messages, models.Message{
			ID:        models.Value(m.ID),
			Sender:    models.Value(m.Sender),
			Timestamp: models.Value(m.Timestamp),
			Body:      models.Value(m.Body),
		})
	}
	SortMessages(messages)

	return models.Thread{
		ThreadID:    raw.ThreadID,
		Topic:       raw.Topic,
		Subject:     raw.Subject,
		InitiatedBy: raw.InitiatedBy,
		OrderID:     raw.OrderID,
		Product:     raw.Product,
		Messages:    messages,
	}
}

// SortMessages stably sorts messages in place by parsed timestamp.
func SortMessages(messages []models.Message) {
	type keyed struct {
		msg models.Message
		at  time.Time
	}
	ordered := make([]keyed, len(messages))
	for i, m := range messages {
		ordered[i] = keyed{msg: m, at: sortKey(m.Timestamp)}
	}
	slices.SortStableFunc(ordered, func(a, b keyed) int {
		return a.at.Compare(b.at)
	})
	for i := range ordered {
		messages[i] = ordered[i].msg
	}
}

// ParseTimestamp parses the timestamp formats seen in support datasets.
// Values without a zone are read as UTC.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if dt, err := strfmt.ParseDateTime(value); err == nil {
		return time.Time(dt), true
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func sortKey(value string) time.Time {
	if t, ok := ParseTimestamp(value); ok {
		return t
	}
	return epoch
}
