package models

// Intent is the classified reason a customer reached out
type Intent string

// Action is the remedy the customer asked for
type Action string

// Status is the workflow state inferred from the company side of a thread
type Status string

// Intent categories
const (
	IntentDamaged             Intent = "Damaged/Defective item"
	IntentDeliveryDelay       Intent = "Delivery delay / tracking"
	IntentWrongVariant        Intent = "Wrong variant received"
	IntentReturnRefund        Intent = "Return/Refund request"
	IntentAddressConfirmation Intent = "Address confirmation"
	IntentGeneralInquiry      Intent = "General inquiry"
)

// Requested actions
const (
	ActionRefund         Action = "Refund"
	ActionReplacement    Action = "Replacement"
	ActionReturn         Action = "Return"
	ActionConfirmAddress Action = "Confirm address"
)

// Workflow statuses
const (
	StatusResolved   Status = "Resolved/Approved"
	StatusPending    Status = "Pending - Awaiting customer/company action"
	StatusInProgress Status = "In progress"
	StatusOpen       Status = "Open"
)
