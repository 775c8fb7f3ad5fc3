package ledger

const (
	// DefaultFeeDueDays is applied when AssignFee gets no due date.
	DefaultFeeDueDays = 30

	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)
