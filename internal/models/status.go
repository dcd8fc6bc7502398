package models

// Order status values. The field is a free string; transitions are guarded by
// conditional updates in the database client, not by a table here.
const (
	StatusPendingPayment        = "pending_payment"
	StatusPending               = "pending"
	StatusPaid                  = "paid"
	StatusAccepted              = "accepted"
	StatusInProgress            = "in_progress"
	StatusCompleted             = "completed"
	StatusRefunded              = "refunded"
	StatusCancellationRequested = "cancellation_requested"
)

type StatusInfo struct {
	Status      string `json:"status"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

var statusTable = []StatusInfo{
	{StatusPendingPayment, "Awaiting payment", "gray", "Checkout was started but not completed."},
	{StatusPending, "Pending", "yellow", "Waiting for a producer to accept."},
	{StatusPaid, "Paid", "blue", "Payment received, looking for a producer."},
	{StatusAccepted, "Accepted", "indigo", "A producer has accepted your song."},
	{StatusInProgress, "In progress", "purple", "Your song is being produced."},
	{StatusCompleted, "Completed", "green", "Your song has been delivered."},
	{StatusRefunded, "Refunded", "red", "No producer accepted in time and the payment was refunded."},
	{StatusCancellationRequested, "Cancellation requested", "orange", "Cancellation is being reviewed."},
}

// Statuses returns a copy of the status display table.
func Statuses() []StatusInfo {
	out := make([]StatusInfo, len(statusTable))
	copy(out, statusTable)
	return out
}

func LookupStatus(status string) (StatusInfo, bool) {
	for _, info := range statusTable {
		if info.Status == status {
			return info, true
		}
	}
	return StatusInfo{}, false
}
