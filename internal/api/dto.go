package api

// SubmitTransactionReq is the body of POST /api/v1/transactions.
type SubmitTransactionReq struct {
	CustomerNo  string `json:"customer_no" validate:"required"`
	ProductCode string `json:"product_code" validate:"required"`
}
