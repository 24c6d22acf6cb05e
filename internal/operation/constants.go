package operation

// Log messages
const (
	LogMsgOperationCompleted = "Operation completed"
)
