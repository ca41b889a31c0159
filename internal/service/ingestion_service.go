package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventflow-relay/internal/dto"
	"eventflow-relay/internal/events"
	"eventflow-relay/internal/models"
	"eventflow-relay/internal/repository"
	"eventflow-relay/pkg/metrics"

	"go.uber.org/zap"
)

// ConfidenceThreshold is exclusive: transcriptions at or below it are dropped.
const ConfidenceThreshold = 0.7

// TranscriptStore persists transcript records. Writes that change nothing report
// repository.ErrStoreDisabled or repository.ErrRecordNotFound; neither counts as a failure.
type TranscriptStore interface {
	Create(ctx context.Context, record *models.TranscriptRecord) error
	UpdateCategories(ctx context.Context, messageID string, categories []string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, recordingURL string) (string, error)
}

type EventPublisher interface {
	PublishAnalyzed(ctx context.Context, key string, event any) error
}

// Result describes what one inbound event produced.
type Result struct {
	Discarded     string // reason, empty unless the event was dropped
	Stored        bool
	Analyzed      bool
	Categories    []string
	Transcription string
}

// IngestionService runs the create, classify, update chain for every inbound event.
// Outbound failures are counted and returned joined; the caller decides how to answer the webhook.
type IngestionService struct {
	store       TranscriptStore
	transcriber Transcriber
	publisher   EventPublisher
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

func NewIngestionService(
	store TranscriptStore,
	transcriber Transcriber,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		store:       store,
		transcriber: transcriber,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
	}
}

// LogCallStart records an incoming call. Nothing is stored.
func (s *IngestionService) LogCallStart(req *dto.CallStartRequest) {
	s.logger.Info("incoming_call",
		zap.String("from_number", req.From),
		zap.String("call_sid", req.CallSid),
		zap.Time("timestamp", s.now()),
	)
}

// ProcessRecording transcribes the recording and stores the text as a voice record.
func (s *IngestionService) ProcessRecording(ctx context.Context, req *dto.RecordingRequest) (Result, error) {
	start := time.Now()
	text, err := s.transcriber.Transcribe(ctx, req.RecordingURL)
	s.metrics.RecordOutbound("assemblyai", "transcribe", err, time.Since(start).Seconds())
	if err != nil {
		return Result{}, fmt.Errorf("transcribe recording for call %s: %w", req.CallSid, err)
	}

	result, err := s.storeAndAnalyze(ctx, req.CallSid, req.From, text, models.SourceVoice)
	result.Transcription = text
	return result, err
}

// ProcessTranscription stores a provider transcription when it has text and its confidence
// is above ConfidenceThreshold. A malformed confidence is returned as a *dto.FieldError.
func (s *IngestionService) ProcessTranscription(ctx context.Context, req *dto.TranscriptionRequest) (Result, error) {
	if strings.TrimSpace(req.TranscriptionText) == "" {
		s.metrics.RecordDiscarded("empty_text")
		return Result{Discarded: "empty_text"}, nil
	}

	confidence, err := req.ParseConfidence()
	if err != nil {
		return Result{}, err
	}
	if !(confidence > ConfidenceThreshold) {
		s.metrics.RecordDiscarded("low_confidence")
		s.logger.Debug("Transcription below confidence threshold",
			zap.String("call_sid", req.CallSid),
			zap.Float64("confidence", confidence),
		)
		return Result{Discarded: "low_confidence"}, nil
	}

	return s.storeAndAnalyze(ctx, req.CallSid, "", req.TranscriptionText, models.SourceVoice)
}

// ProcessSMS stores the message body as an sms record.
func (s *IngestionService) ProcessSMS(ctx context.Context, req *dto.SMSRequest) (Result, error) {
	return s.storeAndAnalyze(ctx, req.MessageSid, req.From, req.Body, models.SourceSMS)
}

func (s *IngestionService) storeAndAnalyze(ctx context.Context, messageID, fromNumber, text string, source models.Source) (Result, error) {
	var (
		result   Result
		failures []error
	)

	text = sanitizeText(text)
	record := models.NewTranscriptRecord(messageID, fromNumber, text, source, s.now())

	start := time.Now()
	err := s.store.Create(ctx, record)
	switch {
	case err == nil:
		s.metrics.RecordOutbound("airtable", "create", nil, time.Since(start).Seconds())
		result.Stored = true
		s.metrics.RecordCreated(string(source))
	case errors.Is(err, repository.ErrStoreDisabled):
		s.metrics.RecordStoreSkipped("create", "store_disabled")
	default:
		s.metrics.RecordOutbound("airtable", "create", err, time.Since(start).Seconds())
		// keep going: the update will simply find no row
		failures = append(failures, fmt.Errorf("store transcript %s: %w", messageID, err))
	}

	result.Categories = Classify(text)
	if len(result.Categories) == 0 {
		return result, errors.Join(failures...)
	}

	start = time.Now()
	err = s.store.UpdateCategories(ctx, messageID, result.Categories)
	switch {
	case err == nil:
		s.metrics.RecordOutbound("airtable", "update", nil, time.Since(start).Seconds())
	case errors.Is(err, repository.ErrStoreDisabled):
		s.metrics.RecordStoreSkipped("update", "store_disabled")
		return result, errors.Join(failures...)
	case errors.Is(err, repository.ErrRecordNotFound):
		s.metrics.RecordOutbound("airtable", "update", nil, time.Since(start).Seconds())
		s.metrics.RecordStoreSkipped("update", "record_not_found")
		s.logger.Warn("No transcript record found for category update",
			zap.String("message_id", messageID),
			zap.Bool("stored", result.Stored),
		)
		return result, errors.Join(failures...)
	default:
		s.metrics.RecordOutbound("airtable", "update", err, time.Since(start).Seconds())
		failures = append(failures, fmt.Errorf("update categories for %s: %w", messageID, err))
		return result, errors.Join(failures...)
	}
	result.Analyzed = true
	s.metrics.RecordAnalyzed()

	s.logger.Info("Transcript analyzed",
		zap.String("message_id", messageID),
		zap.String("source", string(source)),
		zap.Strings("categories", result.Categories),
	)

	analyzedAt := s.now()
	start = time.Now()
	err = s.publisher.PublishAnalyzed(ctx, messageID, models.AnalyzedEvent{
		EventType:  events.EventTypeAnalyzed,
		MessageID:  messageID,
		FromNumber: fromNumber,
		Source:     source,
		Categories: result.Categories,
		Timestamp:  analyzedAt.UnixMilli(),
		AnalyzedAt: analyzedAt,
	})
	s.metrics.RecordOutbound("kafka", "publish", err, time.Since(start).Seconds())
	if err != nil {
		failures = append(failures, fmt.Errorf("publish analyzed event for %s: %w", messageID, err))
	}

	return result, errors.Join(failures...)
}
