package transform

// Registered names of the built-in transforms.
const (
	SendTransactionName  = "transform_send_transaction"
	GetFilterChangesName = "transform_get_filter_changes"
)

// SendTransaction normalizes a single transaction receipt.
func SendTransaction() Config {
	return NewBuilder(ShapeObject).TransactionIndex(true).Build()
}

// GetFilterChanges normalizes the log entries returned by a filter poll.
func GetFilterChanges() Config {
	return NewBuilder(ShapeArray).TransactionIndex(true).LogIndex(true).Build()
}
