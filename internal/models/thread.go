package models

// Message senders
const (
	SenderCustomer = "customer"
	SenderCompany  = "company"
)

// RawMessage is a message as it appears in the source dataset. Every field
// may be missing.
type RawMessage struct {
	ID        *string `json:"id"`
	Sender    *string `json:"sender"`
	Timestamp *string `json:"timestamp"`
	Body      *string `json:"body"`
}

// RawThread is a conversation record as it appears in the source dataset.
// Unknown fields are ignored and known fields may be missing.
type RawThread struct {
	ThreadID    *string      `json:"thread_id"`
	Topic       *string      `json:"topic"`
	Subject     *string      `json:"subject"`
	InitiatedBy *string      `json:"initiated_by"`
	OrderID     *string      `json:"order_id"`
	Product     *string      `json:"product"`
	Messages    []RawMessage `json:"messages"`
}

// Message represents a single message in a support conversation
// @Description Single message in a support thread
type Message struct {
	ID        string `json:"id" example:"m1"`                         // Message ID
	Sender    string `json:"sender" example:"customer"`               // customer or company
	Timestamp string `json:"timestamp" example:"2025-01-01T00:00:00"` // Timestamp as provided by the source
	Body      string `json:"body" example:"Arrived damaged"`          // Message text
}

// Thread is a normalized conversation. Messages are ordered by timestamp.
// @Description Normalized support thread
type Thread struct {
	ThreadID    *string   `json:"thread_id" example:"T-1001"`      // Unique thread identifier
	Topic       *string   `json:"topic" example:"Damaged product"` // Dataset topic label
	Subject     *string   `json:"subject" example:"Order X-1"`     // Thread subject line
	InitiatedBy *string   `json:"initiated_by" example:"customer"` // Who opened the thread
	OrderID     *string   `json:"order_id" example:"X-1"`          // Foreign key into CRM orders
	Product     *string   `json:"product" example:"Widget"`        // Product name
	Messages    []Message `json:"messages"`                        // Messages in chronological order
}

// ID returns the thread identifier, or "" when the source omitted it.
func (t Thread) ID() string {
	return Value(t.ThreadID)
}

// CustomerRecord is one customer from the CRM dataset
type CustomerRecord struct {
	CustomerID          *string  `json:"customer_id"`
	Tier                *string  `json:"tier"`
	Entitlements        []string `json:"entitlements"`
	ShippingConstraints []string `json:"shipping_constraints"`
	Orders              []string `json:"orders"`
}

// Value dereferences an optional string, returning "" when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}
