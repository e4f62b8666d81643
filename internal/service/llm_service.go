package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"fluxodocs/internal/models"
	"fluxodocs/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TableSummary is the bounded structural view of a segmented table sent for
// classification: header, a few sample rows and the total row count. Never the
// full table, to keep payloads small.
type TableSummary struct {
	SheetName  string     `json:"sheet_name"`
	Header     []string   `json:"header,omitempty"`
	HasHeader  bool       `json:"has_header"`
	SampleRows [][]string `json:"sample_rows"`
	RowCount   int        `json:"row_count"`
}

// VisualExtraction is what the AI service reads out of a whole PDF or image.
// The document-type policy (which entities a proposal/invoice/contract may
// produce) is applied by VisionExtractor, not here.
type VisualExtraction struct {
	DocumentType            string                   `json:"document_type"`
	HasExplicitPaymentTerms bool                     `json:"has_explicit_payment_terms"`
	Contracts               []VisualContractResult   `json:"contracts"`
	Receivables             []VisualReceivableResult `json:"receivables"`
	Expenses                []VisualExpenseResult    `json:"expenses"`
}

type VisualContractResult struct {
	ClientName  string  `json:"client_name"`
	ProjectName string  `json:"project_name"`
	Description string  `json:"description"`
	TotalValue  float64 `json:"total_value"`
	SignedDate  string  `json:"signed_date"`
}

type VisualReceivableResult struct {
	ClientName   string  `json:"client_name"`
	Description  string  `json:"description"`
	Amount       float64 `json:"amount"`
	ExpectedDate string  `json:"expected_date"`
}

type VisualExpenseResult struct {
	Description string  `json:"description"`
	Vendor      string  `json:"vendor"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"due_date"`
	Category    string  `json:"category"`
}

// DocumentAI is the narrow boundary to the AI document-understanding service.
// All brittle text handling (markdown fences, balanced-brace scanning, prompt
// content) stays behind this interface; pipeline stages never see raw model
// output.
type DocumentAI interface {
	ClassifyTable(ctx context.Context, summary TableSummary, guidance string) ([]models.TableClassification, error)
	ExtractVisual(ctx context.Context, content []byte, fileName string, guidance string) (*VisualExtraction, error)
}

type LLMService struct {
	client      *gigago.Client
	model       *gigago.GenerativeModel
	config      *config.GigaChatConfig
	retry       RetryPolicy
	logger      *zap.Logger
	httpClient  *http.Client
	baseURL     string
	accessToken string // cached token for file uploads and vision calls
}

func buildSystemInstruction() string {
	return `You are a financial document analyst for professional-services businesses (architecture studios, law firms, medical practices). You read messy Brazilian financial source material: spreadsheets with inconsistent layouts, proposals, invoices, receipts and signed contracts.

Rules that always apply:
- Amounts use Brazilian formatting: "R$ 1.234,56" means 1234.56. Dates are day-first (DD/MM/YYYY or "23/Oct/20").
- Return ONLY valid JSON in exactly the requested shape. No markdown fences, no commentary before or after.
- Never invent entities that are not present in the document. Missing data stays missing; do not guess values.
- Field names you may map: clientName, projectName, description, totalValue, signedDate, amount, expectedDate, dueDate, vendor, category.`
}

func NewLLMService(cfg *config.GigaChatConfig, pipelineCfg *config.PipelineConfig, logger *zap.Logger) (*LLMService, error) {
	ctx := context.Background()

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = buildSystemInstruction()
	model.Temperature = 0.1

	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	accessToken, err := getAccessToken(ctx, cfg, httpClient, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get access token: %w", err)
	}

	return &LLMService{
		client:      client,
		model:       model,
		config:      cfg,
		retry:       NewRetryPolicy(pipelineCfg.RetryAttempts, pipelineCfg.RetryBaseDelay),
		logger:      logger,
		httpClient:  httpClient,
		accessToken: accessToken,
		baseURL:     "https://gigachat.devices.sberbank.ru/api/v1",
	}, nil
}

// getAccessToken obtains an access token from the GigaChat OAuth endpoint,
// needed for file uploads and vision calls. The API key is already
// Base64-encoded per the GigaChat docs.
func getAccessToken(ctx context.Context, cfg *config.GigaChatConfig, httpClient *http.Client, logger *zap.Logger) (string, error) {
	oauthURL := "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"

	formData := url.Values{}
	formData.Set("scope", cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, "POST", oauthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.New().String())
	req.Header.Set("Authorization", "Basic "+cfg.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", string(bodyBytes)),
		)
		return "", fmt.Errorf("OAuth failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}

	return oauthResp.AccessToken, nil
}

// ClassifyTable asks the model which entity kind(s) a segmented table holds
// and how its columns map to fields. The answer is advisory; the transformer
// re-validates required fields before accepting any row.
func (s *LLMService) ClassifyTable(ctx context.Context, summary TableSummary, guidance string) ([]models.TableClassification, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal table summary: %w", err)
	}

	prompt := fmt.Sprintf(`Classify this table extracted from a spreadsheet of a professional-services business.

Table summary (header, sample rows, total row count):
%s
%s
Decide which entity kind(s) the table holds: "contract" (engagements: client, project, value, signed date), "receivable" (money owed to the business: amount, expected date) or "expense" (money the business owes: description, amount, due date). A table may hold more than one kind only when rows of different kinds share the grid.

Return ONLY a JSON object:
{"tables":[{"kind":"contract|receivable|expense","columns":{"<fieldName>":<zero-based column index>}}]}

Map only columns you can actually see. If has_header is false, infer the mapping positionally from the sample rows. If the table holds no financial entities, return {"tables":[]}.`, string(summaryJSON), guidanceBlock(guidance))

	var content string
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		resp, genErr := s.model.Generate(ctx, []gigago.Message{{Role: gigago.RoleUser, Content: prompt}})
		if genErr != nil {
			return genErr
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no response from model")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}

	jsonStr, ok := extractJSONObject(content)
	if !ok {
		return nil, fmt.Errorf("no JSON object in classification response: %s", truncate(content, 200))
	}

	var payload struct {
		Tables []struct {
			Kind    string         `json:"kind"`
			Columns map[string]int `json:"columns"`
		} `json:"tables"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse classification response: %w", err)
	}

	var out []models.TableClassification
	for _, t := range payload.Tables {
		kind, ok := parseEntityKind(t.Kind)
		if !ok {
			s.logger.Warn("Classifier returned unknown kind", zap.String("kind", t.Kind))
			continue
		}
		out = append(out, models.TableClassification{Kind: kind, Columns: t.Columns})
	}

	s.logger.Debug("Table classified",
		zap.String("sheet", summary.SheetName),
		zap.Int("classifications", len(out)),
	)
	return out, nil
}

// ExtractVisual sends a whole PDF/image to the vision API and parses the
// structured entities out of the reply. Visual documents are atomic: any
// malformed reply fails the file, there is no per-row fallback.
func (s *LLMService) ExtractVisual(ctx context.Context, content []byte, fileName string, guidance string) (*VisualExtraction, error) {
	fileID, err := s.uploadFile(ctx, bytes.NewReader(content), fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	prompt := fmt.Sprintf(`Read this financial document from a professional-services business and extract structured entities.
%s
First decide the document type: "proposal" (proposal or quote), "invoice", "receipt", "contract" (signed agreement) or "other".
Then extract every entity you can see. Set "has_explicit_payment_terms" to true only when the document spells out a payment schedule (installment amounts and dates, or percentage milestones).

Return ONLY a JSON object:
{"document_type":"...","has_explicit_payment_terms":true|false,"contracts":[{"client_name":"","project_name":"","description":"","total_value":0,"signed_date":"YYYY-MM-DD"}],"receivables":[{"client_name":"","description":"","amount":0,"expected_date":"YYYY-MM-DD"}],"expenses":[{"description":"","vendor":"","amount":0,"due_date":"YYYY-MM-DD","category":"materials|labor|equipment|transport|office|software|operations|other"}]}

Amounts must be plain numbers (1234.56, never "R$ 1.234,56"). Dates must be ISO YYYY-MM-DD. Use empty arrays when a section has no entities.`, guidanceBlock(guidance))

	var raw string
	err = s.retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		raw, callErr = s.visionCompletion(ctx, fileID, prompt)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("vision extraction failed: %w", err)
	}

	jsonStr, ok := extractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object in vision response: %s", truncate(raw, 200))
	}

	var extraction VisualExtraction
	if err := json.Unmarshal([]byte(jsonStr), &extraction); err != nil {
		return nil, fmt.Errorf("failed to parse vision response: %w", err)
	}

	s.logger.Info("Visual document extracted",
		zap.String("file", fileName),
		zap.String("document_type", extraction.DocumentType),
		zap.Int("contracts", len(extraction.Contracts)),
		zap.Int("receivables", len(extraction.Receivables)),
		zap.Int("expenses", len(extraction.Expenses)),
	)
	return &extraction, nil
}

// uploadFile pushes a document to the GigaChat Files API and returns its ID.
func (s *LLMService) uploadFile(ctx context.Context, fileReader io.Reader, fileName string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// "general" purpose allows the file to be referenced from generation
	// requests (the vision path).
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		switch ext {
		case ".pdf":
			mimeType = "application/pdf"
		case ".jpg", ".jpeg":
			mimeType = "image/jpeg"
		case ".png":
			mimeType = "image/png"
		default:
			mimeType = "application/octet-stream"
		}
	}

	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {mimeType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, fileReader); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token expired; refresh for the next call and let the retry policy
		// re-run the whole operation.
		if token, refreshErr := getAccessToken(ctx, s.config, s.httpClient, s.logger); refreshErr == nil {
			s.accessToken = token
		}
		return "", fmt.Errorf("upload unauthorized, token refreshed; retry")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	return uploadResp.ID, nil
}

// visionCompletion runs one chat completion with the uploaded file attached.
// Attachments format per the GigaChat API: [["file_id"]].
func (s *LLMService) visionCompletion(ctx context.Context, fileID, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []map[string]interface{}{
			{
				"role":        "user",
				"content":     prompt,
				"attachments": [][]string{{fileID}},
			},
		},
		"temperature": 0.1,
		"stream":      false,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision API failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", fmt.Errorf("no response from vision API")
	}

	return strings.TrimSpace(visionResp.Choices[0].Message.Content), nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}

func guidanceBlock(guidance string) string {
	guidance = strings.TrimSpace(guidance)
	if guidance == "" {
		return ""
	}
	return "\nUser guidance: " + guidance + "\n"
}

func parseEntityKind(s string) (models.EntityKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "contract", "contracts":
		return models.EntityKindContract, true
	case "receivable", "receivables":
		return models.EntityKindReceivable, true
	case "expense", "expenses":
		return models.EntityKindExpense, true
	}
	return "", false
}

// extractJSONObject returns the first balanced {...} region of text. Models
// wrap replies in markdown fences or leading prose often enough that naive
// json.Unmarshal on the whole reply is not an option.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
