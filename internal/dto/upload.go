package dto

type FileResultResponse struct {
	FileName           string           `json:"file_name"`
	Success            bool             `json:"success"`
	Kind               string           `json:"kind"`
	ContractsCreated   int              `json:"contracts_created"`
	ReceivablesCreated int              `json:"receivables_created"`
	ExpensesCreated    int              `json:"expenses_created"`
	Errors             []string         `json:"errors"`
	PhaseTimings       map[string]int64 `json:"phase_timings,omitempty"`
}

type BatchResultResponse struct {
	SessionID          string               `json:"session_id"`
	TotalFiles         int                  `json:"total_files"`
	SuccessfulFiles    int                  `json:"successful_files"`
	FailedFiles        int                  `json:"failed_files"`
	ContractsCreated   int                  `json:"contracts_created"`
	ReceivablesCreated int                  `json:"receivables_created"`
	ExpensesCreated    int                  `json:"expenses_created"`
	Files              []FileResultResponse `json:"files"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
