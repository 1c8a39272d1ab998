package dto

// ErrorResponse is the JSON body of every rejected request
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// BalanceErrorResponse keeps balanceUpdated present on verify-balance failures
type BalanceErrorResponse struct {
	Error          string `json:"error"`
	BalanceUpdated bool   `json:"balanceUpdated"`
}
