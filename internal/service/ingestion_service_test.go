package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"eventflow-relay/internal/dto"
	"eventflow-relay/internal/models"
	"eventflow-relay/internal/repository"
	"eventflow-relay/pkg/config"
	"eventflow-relay/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

type updateCall struct {
	MessageID  string
	Categories []string
}

// stubStore records calls and mimics the store's new to analyzed transition.
type stubStore struct {
	mu        sync.Mutex
	creates   []*models.TranscriptRecord
	updates   []updateCall
	createErr error
	updateErr error
}

func (s *stubStore) Create(_ context.Context, record *models.TranscriptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates = append(s.creates, record)
	return s.createErr
}

func (s *stubStore) UpdateCategories(_ context.Context, messageID string, categories []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, updateCall{MessageID: messageID, Categories: categories})
	if s.updateErr != nil {
		return s.updateErr
	}
	for _, r := range s.creates {
		if r.MessageID == messageID && s.createErr == nil {
			r.Categories = categories
			r.Status = models.StatusAnalyzed
			return nil
		}
	}
	return repository.ErrRecordNotFound
}

type stubTranscriber struct {
	text  string
	err   error
	calls []string
}

func (s *stubTranscriber) Transcribe(_ context.Context, recordingURL string) (string, error) {
	s.calls = append(s.calls, recordingURL)
	return s.text, s.err
}

type stubPublisher struct {
	keys []string
	err  error
}

func (s *stubPublisher) PublishAnalyzed(_ context.Context, key string, _ any) error {
	s.keys = append(s.keys, key)
	return s.err
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestIngestion(store *stubStore, tr *stubTranscriber, pub *stubPublisher) (*IngestionService, *metrics.Metrics) {
	m := metrics.New()
	svc := NewIngestionService(store, tr, pub, m, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, m
}

func TestProcessSMS_CorporateEvent(t *testing.T) {
	store := &stubStore{}
	pub := &stubPublisher{}
	svc, m := newTestIngestion(store, &stubTranscriber{}, pub)

	result, err := svc.ProcessSMS(context.Background(), &dto.SMSRequest{
		From:       "+1234567890",
		Body:       "Hi, I need help planning a corporate event for 100 people in March.",
		MessageSid: "TEST_SMS_SID_123",
	})
	if err != nil {
		t.Fatalf("ProcessSMS() error: %v", err)
	}

	if len(store.creates) != 1 {
		t.Fatalf("expected 1 create, got %d", len(store.creates))
	}
	rec := store.creates[0]
	if rec.MessageID != "TEST_SMS_SID_123" || rec.FromNumber != "+1234567890" || rec.Source != models.SourceSMS {
		t.Errorf("unexpected record %+v", rec)
	}
	if !rec.Timestamp.Equal(fixedNow) {
		t.Errorf("expected timestamp %v, got %v", fixedNow, rec.Timestamp)
	}
	if rec.Status != models.StatusAnalyzed {
		t.Errorf("expected status analyzed, got %s", rec.Status)
	}
	if !containsCategory(rec.Categories, "Corporate Event") {
		t.Errorf("expected Corporate Event, got %v", rec.Categories)
	}
	if !result.Stored || !result.Analyzed {
		t.Errorf("unexpected result %+v", result)
	}
	if !reflect.DeepEqual(pub.keys, []string{"TEST_SMS_SID_123"}) {
		t.Errorf("expected one analyzed event, got %v", pub.keys)
	}
	if got := testutil.ToFloat64(m.RecordsAnalyzed); got != 1 {
		t.Errorf("expected 1 analyzed record metric, got %v", got)
	}
}

func TestProcessSMS_NoKeywordsStaysNew(t *testing.T) {
	store := &stubStore{}
	pub := &stubPublisher{}
	svc, _ := newTestIngestion(store, &stubTranscriber{}, pub)

	result, err := svc.ProcessSMS(context.Background(), &dto.SMSRequest{Body: "call me back", MessageSid: "SM1"})
	if err != nil {
		t.Fatalf("ProcessSMS() error: %v", err)
	}
	if len(store.creates) != 1 || len(store.updates) != 0 {
		t.Fatalf("expected 1 create and 0 updates, got %d/%d", len(store.creates), len(store.updates))
	}
	if store.creates[0].Status != models.StatusNew || len(store.creates[0].Categories) != 0 {
		t.Errorf("expected untouched new record, got %+v", store.creates[0])
	}
	if result.Analyzed || len(pub.keys) != 0 {
		t.Errorf("expected no analysis, got %+v and events %v", result, pub.keys)
	}
}

func TestProcessTranscription_ConfidenceThreshold(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		confidence  string
		wantCreates int
		wantUpdates int
		discarded   string
	}{
		{"well below", "wedding", "0.2", 0, 0, "low_confidence"},
		{"at threshold", "wedding", "0.7", 0, 0, "low_confidence"},
		{"at threshold with trailing zero", "wedding", "0.70", 0, 0, "low_confidence"},
		{"just above with keyword", "wedding", "0.71", 1, 1, ""},
		{"above without keyword", "hello there", "0.95", 1, 0, ""},
		{"empty text", "", "0.99", 0, 0, "empty_text"},
		{"empty text skips confidence parsing", "  ", "garbage", 0, 0, "empty_text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &stubStore{}
			svc, m := newTestIngestion(store, &stubTranscriber{}, &stubPublisher{})

			result, err := svc.ProcessTranscription(context.Background(), &dto.TranscriptionRequest{
				TranscriptionText: tt.text,
				CallSid:           "CA1",
				Confidence:        tt.confidence,
			})
			if err != nil {
				t.Fatalf("ProcessTranscription() error: %v", err)
			}
			if len(store.creates) != tt.wantCreates {
				t.Errorf("expected %d creates, got %d", tt.wantCreates, len(store.creates))
			}
			if len(store.updates) != tt.wantUpdates {
				t.Errorf("expected %d updates, got %d", tt.wantUpdates, len(store.updates))
			}
			if result.Discarded != tt.discarded {
				t.Errorf("expected discarded %q, got %q", tt.discarded, result.Discarded)
			}
			if tt.discarded != "" {
				if got := testutil.ToFloat64(m.TranscriptionsDiscarded.WithLabelValues(tt.discarded)); got != 1 {
					t.Errorf("expected discarded metric 1, got %v", got)
				}
			}
		})
	}
}

func TestProcessTranscription_VoiceRecordWithoutFromNumber(t *testing.T) {
	store := &stubStore{}
	svc, _ := newTestIngestion(store, &stubTranscriber{}, &stubPublisher{})

	_, err := svc.ProcessTranscription(context.Background(), &dto.TranscriptionRequest{
		TranscriptionText: "I am planning a wedding for 150 guests in June. We need catering and photography services.",
		CallSid:           "TEST_CALL_SID_123",
		Confidence:        "0.85",
	})
	if err != nil {
		t.Fatalf("ProcessTranscription() error: %v", err)
	}

	rec := store.creates[0]
	if rec.Source != models.SourceVoice || rec.FromNumber != "" || rec.MessageID != "TEST_CALL_SID_123" {
		t.Errorf("unexpected record %+v", rec)
	}
	want := []string{"Wedding Planning", "Catering Services", "Photography Services"}
	if !reflect.DeepEqual(store.updates[0].Categories, want) {
		t.Errorf("expected categories %v, got %v", want, store.updates[0].Categories)
	}
}

func TestProcessTranscription_InvalidConfidence(t *testing.T) {
	for _, confidence := range []string{"very sure", "NaN", "nan", "-Inf", "1.01"} {
		t.Run(confidence, func(t *testing.T) {
			store := &stubStore{}
			pub := &stubPublisher{}
			svc, _ := newTestIngestion(store, &stubTranscriber{}, pub)

			result, err := svc.ProcessTranscription(context.Background(), &dto.TranscriptionRequest{
				TranscriptionText: "wedding",
				Confidence:        confidence,
			})

			var fieldErr *dto.FieldError
			if !errors.As(err, &fieldErr) || !errors.Is(err, dto.ErrInvalidConfidence) {
				t.Fatalf("expected invalid confidence field error, got %v", err)
			}
			if len(store.creates) != 0 || len(store.updates) != 0 || len(pub.keys) != 0 {
				t.Errorf("expected no side effects, got %d creates, %d updates, %d events",
					len(store.creates), len(store.updates), len(pub.keys))
			}
			if result.Stored || result.Analyzed {
				t.Errorf("unexpected result %+v", result)
			}
		})
	}
}

func TestProcessRecording(t *testing.T) {
	store := &stubStore{}
	tr := &stubTranscriber{text: "We need a venue for a birthday party."}
	svc, _ := newTestIngestion(store, tr, &stubPublisher{})

	result, err := svc.ProcessRecording(context.Background(), &dto.RecordingRequest{
		RecordingURL: "https://api.twilio.com/2010-04-01/Accounts/AC123/Recordings/RE123",
		CallSid:      "CA123",
		From:         "+1234567890",
	})
	if err != nil {
		t.Fatalf("ProcessRecording() error: %v", err)
	}

	if !reflect.DeepEqual(tr.calls, []string{"https://api.twilio.com/2010-04-01/Accounts/AC123/Recordings/RE123"}) {
		t.Errorf("unexpected transcriber calls %v", tr.calls)
	}
	rec := store.creates[0]
	if rec.Source != models.SourceVoice || rec.MessageID != "CA123" || rec.FromNumber != "+1234567890" {
		t.Errorf("unexpected record %+v", rec)
	}
	want := []string{"Birthday Party", "Social Party", "Venue Booking"}
	if !reflect.DeepEqual(result.Categories, want) {
		t.Errorf("expected categories %v, got %v", want, result.Categories)
	}
	if result.Transcription != tr.text {
		t.Errorf("expected transcription in result, got %q", result.Transcription)
	}
}

func TestProcessRecording_TranscriptionErrorHasNoEffects(t *testing.T) {
	store := &stubStore{}
	pub := &stubPublisher{}
	tr := &stubTranscriber{err: ErrTranscriptionFailed}
	svc, m := newTestIngestion(store, tr, pub)

	_, err := svc.ProcessRecording(context.Background(), &dto.RecordingRequest{RecordingURL: "https://x/rec", CallSid: "CA1"})
	if !errors.Is(err, ErrTranscriptionFailed) {
		t.Fatalf("expected ErrTranscriptionFailed, got %v", err)
	}
	if len(store.creates) != 0 || len(store.updates) != 0 || len(pub.keys) != 0 {
		t.Errorf("expected no side effects, got %d creates, %d updates, %d events", len(store.creates), len(store.updates), len(pub.keys))
	}
	if got := testutil.ToFloat64(m.OutboundFailures.WithLabelValues("assemblyai", "transcribe")); got != 1 {
		t.Errorf("expected 1 transcription failure metric, got %v", got)
	}
}

func TestStoreAndAnalyze_CreateFailureStillClassifies(t *testing.T) {
	store := &stubStore{createErr: errors.New("airtable down")}
	svc, m := newTestIngestion(store, &stubTranscriber{}, &stubPublisher{})

	result, err := svc.ProcessSMS(context.Background(), &dto.SMSRequest{Body: "conference booking", MessageSid: "SM9"})
	if err == nil {
		t.Fatal("expected joined failure")
	}
	if result.Stored {
		t.Error("expected Stored=false after create failure")
	}
	if len(store.updates) != 1 {
		t.Errorf("expected update attempt after failed create, got %d", len(store.updates))
	}
	if got := testutil.ToFloat64(m.OutboundFailures.WithLabelValues("airtable", "create")); got != 1 {
		t.Errorf("expected 1 create failure metric, got %v", got)
	}
	if result.Analyzed {
		t.Error("expected Analyzed=false when no row was patched")
	}
}

func TestStoreAndAnalyze_UpdateFailureSkipsPublish(t *testing.T) {
	store := &stubStore{updateErr: errors.New("rate limited")}
	pub := &stubPublisher{}
	svc, _ := newTestIngestion(store, &stubTranscriber{}, pub)

	result, err := svc.ProcessSMS(context.Background(), &dto.SMSRequest{Body: "wedding", MessageSid: "SM10"})
	if err == nil {
		t.Fatal("expected update failure")
	}
	if result.Analyzed || len(pub.keys) != 0 {
		t.Errorf("expected no analysis or events, got %+v / %v", result, pub.keys)
	}
}

func TestStoreAndAnalyze_PublishFailureIsReported(t *testing.T) {
	store := &stubStore{}
	pub := &stubPublisher{err: errors.New("broker unavailable")}
	svc, m := newTestIngestion(store, &stubTranscriber{}, pub)

	result, err := svc.ProcessSMS(context.Background(), &dto.SMSRequest{Body: "catering", MessageSid: "SM11"})
	if err == nil {
		t.Fatal("expected publish failure")
	}
	if !result.Analyzed {
		t.Error("expected record to be analyzed before publish")
	}
	if got := testutil.ToFloat64(m.OutboundFailures.WithLabelValues("kafka", "publish")); got != 1 {
		t.Errorf("expected 1 publish failure metric, got %v", got)
	}
}

// airtableStub answers create with createCode, lookups with no rows, and counts PATCH calls.
type airtableStub struct {
	mu         sync.Mutex
	createCode int
	patches    int
}

func (a *airtableStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodPost:
		w.WriteHeader(a.createCode)
		_, _ = w.Write([]byte(`{"error":{"type":"INVALID_VALUE_FOR_COLUMN"}}`))
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"records": []any{}})
	case http.MethodPatch:
		a.patches++
		_, _ = w.Write([]byte(`{}`))
	}
}

func (a *airtableStub) patchCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.patches
}

func newAirtableIngestion(t *testing.T, cfg *config.AirtableConfig, pub *stubPublisher) (*IngestionService, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	repo := repository.NewTranscriptRepository(cfg, zap.NewNop())
	svc := NewIngestionService(repo, &stubTranscriber{}, pub, m, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, m
}

func TestStoreAndAnalyze_UnmatchedRecordIsNotAnalyzed(t *testing.T) {
	stub := &airtableStub{createCode: http.StatusUnprocessableEntity}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	pub := &stubPublisher{}
	svc, m := newAirtableIngestion(t, &config.AirtableConfig{
		APIKey:  "keyTEST",
		BaseID:  "appTEST",
		BaseURL: srv.URL + "/v0",
		Table:   "Transcripts",
	}, pub)

	result, err := svc.ProcessSMS(context.Background(), &dto.SMSRequest{Body: "wedding reception", MessageSid: "SM1"})

	var storeErr *repository.StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected create failure, got %v", err)
	}
	if result.Stored || result.Analyzed {
		t.Errorf("unexpected result %+v", result)
	}
	if n := stub.patchCount(); n != 0 {
		t.Errorf("expected no PATCH calls, got %d", n)
	}
	if len(pub.keys) != 0 {
		t.Errorf("expected no analyzed events, got %v", pub.keys)
	}
	if got := testutil.ToFloat64(m.RecordsAnalyzed); got != 0 {
		t.Errorf("expected 0 analyzed records, got %v", got)
	}
	if got := testutil.ToFloat64(m.StoreSkipped.WithLabelValues("update", "record_not_found")); got != 1 {
		t.Errorf("expected 1 unmatched update, got %v", got)
	}
}

func TestStoreAndAnalyze_DisabledStoreCountsNothing(t *testing.T) {
	pub := &stubPublisher{}
	svc, m := newAirtableIngestion(t, &config.AirtableConfig{BaseURL: "http://127.0.0.1:1/v0"}, pub)

	result, err := svc.ProcessSMS(context.Background(), &dto.SMSRequest{Body: "corporate conference", MessageSid: "SM2"})
	if err != nil {
		t.Fatalf("expected disabled store to be silent, got %v", err)
	}
	if result.Stored || result.Analyzed {
		t.Errorf("unexpected result %+v", result)
	}
	if len(result.Categories) != 2 {
		t.Errorf("expected categories to be derived, got %v", result.Categories)
	}
	if len(pub.keys) != 0 {
		t.Errorf("expected no analyzed events, got %v", pub.keys)
	}
	if got := testutil.ToFloat64(m.RecordsCreated.WithLabelValues("sms")); got != 0 {
		t.Errorf("expected 0 created records, got %v", got)
	}
	if got := testutil.ToFloat64(m.RecordsAnalyzed); got != 0 {
		t.Errorf("expected 0 analyzed records, got %v", got)
	}
	for _, op := range []string{"create", "update"} {
		if got := testutil.ToFloat64(m.StoreSkipped.WithLabelValues(op, "store_disabled")); got != 1 {
			t.Errorf("expected 1 skipped %s, got %v", op, got)
		}
	}
}

func containsCategory(categories []string, want string) bool {
	for _, c := range categories {
		if c == want {
			return true
		}
	}
	return false
}
