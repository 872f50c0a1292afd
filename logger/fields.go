package logger

// Standard field names for consistent logging.
const (
	FieldService       = "service"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldUserID        = "user_id"
	FieldBookingID     = "booking_id"
	FieldApplicationID = "application_id"
	FieldTransactionID = "transaction_id"
	FieldPath          = "path"
	FieldMethod        = "method"
)
