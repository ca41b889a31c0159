package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"eventflow-relay/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrTranscriptionFailed is returned when the provider reports the error terminal state.
var ErrTranscriptionFailed = errors.New("transcription failed")

const (
	transcriptStatusCompleted = "completed"
	transcriptStatusError     = "error"

	transcriptLanguage = "en_us"
)

type transcriptRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
	LanguageCode  string `json:"language_code"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// TranscriptionService submits recordings to AssemblyAI and waits for the finished transcript.
type TranscriptionService struct {
	client       *resty.Client
	pollInterval time.Duration
	logger       *zap.Logger
}

func NewTranscriptionService(cfg *config.AssemblyAIConfig, logger *zap.Logger) *TranscriptionService {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/v2")
	client.SetHeader("Authorization", cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(30 * time.Second)

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	return &TranscriptionService{
		client:       client,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Transcribe blocks until the transcript for recordingURL reaches a terminal state.
// Speaker labels are on and the language is US English.
func (s *TranscriptionService) Transcribe(ctx context.Context, recordingURL string) (string, error) {
	var submitted transcriptResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(transcriptRequest{
			AudioURL:      recordingURL,
			SpeakerLabels: true,
			LanguageCode:  transcriptLanguage,
		}).
		SetResult(&submitted).
		Post("/transcript")
	if err != nil {
		return "", fmt.Errorf("failed to submit recording: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("failed to submit recording: status %d: %s", resp.StatusCode(), resp.String())
	}
	if submitted.ID == "" {
		return "", fmt.Errorf("failed to submit recording: response has no transcript id")
	}

	s.logger.Info("Recording submitted for transcription",
		zap.String("transcript_id", submitted.ID),
		zap.String("status", submitted.Status),
	)

	transcript := submitted
	for !isTerminal(transcript.Status) {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for transcript %s: %w", submitted.ID, ctx.Err())
		case <-time.After(s.pollInterval):
		}

		transcript, err = s.fetch(ctx, submitted.ID)
		if err != nil {
			return "", err
		}
	}

	if transcript.Status == transcriptStatusError {
		return "", fmt.Errorf("%w: %s", ErrTranscriptionFailed, transcript.Error)
	}
	return transcript.Text, nil
}

func (s *TranscriptionService) fetch(ctx context.Context, id string) (transcriptResponse, error) {
	var result transcriptResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/transcript/" + url.PathEscape(id))
	if err != nil {
		return result, fmt.Errorf("failed to poll transcript %s: %w", id, err)
	}
	if !resp.IsSuccess() {
		return result, fmt.Errorf("failed to poll transcript %s: status %d: %s", id, resp.StatusCode(), resp.String())
	}
	return result, nil
}

func isTerminal(status string) bool {
	return status == transcriptStatusCompleted || status == transcriptStatusError
}
