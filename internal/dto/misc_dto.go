package dto

// BulkFailure is one rejected workbook row. Row is the 1-based sheet row.
type BulkFailure struct {
	Row        int    `json:"row"`
	Identifier string `json:"identifier,omitempty"`
	Reason     string `json:"reason"`
}

// BulkResult summarises a roster import.
type BulkResult struct {
	SuccessCount       int           `json:"successCount"`
	FailedCount        int           `json:"failedCount"`
	FailedEntries      []BulkFailure `json:"failedEntries"`
	TotalPracticeTests int           `json:"totalPracticeTests,omitempty"`
	FinalPracticeTests int           `json:"finalPracticeTests,omitempty"`
	ArchiveURL         string        `json:"archiveUrl,omitempty"`
}

// CallbackRequest is a public call-back form submission.
type CallbackRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Mobile  string `json:"mobile" validate:"required,numeric,min=7,max=15"`
	Message string `json:"message" validate:"omitempty,max=1000"`
}

// CallbackResponse acknowledges a stored call-back request.
type CallbackResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateOrderRequest starts a payment. Amount is in rupees.
type CreateOrderRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// CreateOrderResponse returns the gateway order to the client. Amount is in paise.
type CreateOrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}
