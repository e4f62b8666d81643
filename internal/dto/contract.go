package dto

type ContractResponse struct {
	ID          string  `json:"id"`
	ClientName  string  `json:"client_name"`
	ProjectName string  `json:"project_name"`
	Description string  `json:"description,omitempty"`
	TotalValue  float64 `json:"total_value"`
	SignedDate  string  `json:"signed_date"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

type ContractListResponse struct {
	Contracts []ContractResponse `json:"contracts"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type ReceivableResponse struct {
	ID           string  `json:"id"`
	ContractID   string  `json:"contract_id,omitempty"`
	ClientName   string  `json:"client_name"`
	Description  string  `json:"description,omitempty"`
	Amount       float64 `json:"amount"`
	ExpectedDate string  `json:"expected_date"`
	Status       string  `json:"status"`
}
