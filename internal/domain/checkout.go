package domain

// LineRequest is a (product, quantity) pair submitted for validation or checkout.
type LineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// StockFailure describes why one requested line cannot be fulfilled.
type StockFailure struct {
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName,omitempty"`
	RequestedQuantity int    `json:"requestedQuantity"`
	AvailableStock    int    `json:"availableStock"`
	Message           string `json:"message"`
}

type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Errors []StockFailure `json:"errors"`
}
