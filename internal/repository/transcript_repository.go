package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"eventflow-relay/internal/models"
	"eventflow-relay/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	// ErrStoreDisabled is returned when no credentials are configured and nothing was sent.
	ErrStoreDisabled = errors.New("airtable store disabled")
	// ErrRecordNotFound is returned by UpdateCategories when no row has the MessageID.
	ErrRecordNotFound = errors.New("transcript record not found")
)

// StoreError is returned when Airtable answers with a non-2xx status.
type StoreError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("airtable %s failed with status %d: %s", e.Operation, e.StatusCode, e.Body)
}

type createFields struct {
	MessageID     string `json:"MessageID"`
	FromNumber    string `json:"FromNumber,omitempty"`
	Transcription string `json:"Transcription"`
	Source        string `json:"Source"`
	Timestamp     string `json:"Timestamp"`
	Status        string `json:"Status"`
}

type categoryFields struct {
	Categories string `json:"Categories"`
	Status     string `json:"Status"`
}

type recordRequest[T any] struct {
	Fields T `json:"fields"`
}

type listResponse struct {
	Records []struct {
		ID string `json:"id"`
	} `json:"records"`
}

type tablesResponse struct {
	Tables []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"tables"`
}

// TranscriptRepository reads and writes the Transcripts table in Airtable.
// Without credentials every operation is a logged no-op returning ErrStoreDisabled.
type TranscriptRepository struct {
	client  *resty.Client
	table   string
	metaURL string
	enabled bool
	logger  *zap.Logger
}

func NewTranscriptRepository(cfg *config.AirtableConfig, logger *zap.Logger) *TranscriptRepository {
	enabled := cfg.APIKey != "" && cfg.BaseID != ""

	root := strings.TrimRight(cfg.BaseURL, "/")
	client := resty.New()
	client.SetBaseURL(root + "/" + url.PathEscape(cfg.BaseID))
	client.SetAuthToken(cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(30 * time.Second)

	table := cfg.Table
	if table == "" {
		table = "Transcripts"
	}

	return &TranscriptRepository{
		client:  client,
		table:   table,
		metaURL: root + "/meta/bases/" + url.PathEscape(cfg.BaseID) + "/tables",
		enabled: enabled,
		logger:  logger,
	}
}

// Create inserts a record with status "new".
func (r *TranscriptRepository) Create(ctx context.Context, record *models.TranscriptRecord) error {
	if !r.enabled {
		r.logger.Warn("Airtable credentials not configured, skipping create",
			zap.String("message_id", record.MessageID),
		)
		return ErrStoreDisabled
	}

	body := recordRequest[createFields]{Fields: createFields{
		MessageID:     record.MessageID,
		FromNumber:    record.FromNumber,
		Transcription: record.Text,
		Source:        string(record.Source),
		Timestamp:     record.Timestamp.Format(time.RFC3339),
		Status:        string(models.StatusNew),
	}}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/" + r.table)
	if err != nil {
		return fmt.Errorf("failed to create transcript record: %w", err)
	}
	if !resp.IsSuccess() {
		return &StoreError{Operation: "create", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	r.logger.Debug("Transcript record created",
		zap.String("message_id", record.MessageID),
		zap.String("source", string(record.Source)),
	)
	return nil
}

// UpdateCategories finds the first record with the given MessageID and marks it analyzed.
// When no record matches nothing is patched and ErrRecordNotFound is returned.
func (r *TranscriptRepository) UpdateCategories(ctx context.Context, messageID string, categories []string) error {
	if !r.enabled {
		r.logger.Warn("Airtable credentials not configured, skipping category update",
			zap.String("message_id", messageID),
		)
		return ErrStoreDisabled
	}

	recordID, err := r.findRecordID(ctx, messageID)
	if err != nil {
		return err
	}
	if recordID == "" {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, messageID)
	}

	body := recordRequest[categoryFields]{Fields: categoryFields{
		Categories: strings.Join(categories, ", "),
		Status:     string(models.StatusAnalyzed),
	}}

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(body).
		Patch("/" + r.table + "/" + url.PathEscape(recordID))
	if err != nil {
		return fmt.Errorf("failed to update transcript categories: %w", err)
	}
	if !resp.IsSuccess() {
		return &StoreError{Operation: "update", StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

// ListTables returns the table names of the configured base. It is a connectivity check
// for the credentials; the pipeline never calls it.
func (r *TranscriptRepository) ListTables(ctx context.Context) ([]string, error) {
	if !r.enabled {
		return nil, ErrStoreDisabled
	}

	var result tablesResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get(r.metaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list airtable tables: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &StoreError{Operation: "list tables", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	names := make([]string, 0, len(result.Tables))
	for _, t := range result.Tables {
		names = append(names, t.Name)
	}
	return names, nil
}

func (r *TranscriptRepository) findRecordID(ctx context.Context, messageID string) (string, error) {
	var result listResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"filterByFormula": messageIDFormula(messageID),
			"maxRecords":      "1",
		}).
		SetResult(&result).
		Get("/" + r.table)
	if err != nil {
		return "", fmt.Errorf("failed to look up transcript record: %w", err)
	}
	if !resp.IsSuccess() {
		return "", &StoreError{Operation: "lookup", StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	if len(result.Records) == 0 {
		return "", nil
	}
	return result.Records[0].ID, nil
}

var formulaEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func messageIDFormula(messageID string) string {
	return fmt.Sprintf("{MessageID} = '%s'", formulaEscaper.Replace(messageID))
}
