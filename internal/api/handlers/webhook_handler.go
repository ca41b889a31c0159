package handlers

import (
	"errors"

	"eventflow-relay/internal/dto"
	"eventflow-relay/internal/service"
	"eventflow-relay/pkg/metrics"
	"eventflow-relay/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const smsReply = "Thanks for your message! We'll get back to you shortly about your event planning needs."

// WebhookHandler answers the telephony provider's webhooks. Third-party failures never change
// the response: the provider always gets an acknowledgment.
type WebhookHandler struct {
	ingestion *service.IngestionService
	routes    service.VoiceRoutes
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewWebhookHandler(
	ingestion *service.IngestionService,
	routes service.VoiceRoutes,
	m *metrics.Metrics,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		ingestion: ingestion,
		routes:    routes,
		metrics:   m,
		logger:    logger,
	}
}

// VoiceStart godoc
// @Summary Incoming call
// @Description Greets the caller and records a message with recording and transcription callbacks
// @Tags voice
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param From formData string false "Caller number"
// @Param CallSid formData string false "Call SID"
// @Success 200 {string} string "TwiML"
// @Router /webhook/voice/start [post]
func (h *WebhookHandler) VoiceStart(c *fiber.Ctx) error {
	var req dto.CallStartRequest
	h.parseForm(c, "call_start", &req)
	h.metrics.RecordWebhook("call_start")

	h.ingestion.LogCallStart(&req)

	twiml, err := service.GreetingTwiML(h.routes)
	if err != nil {
		return err
	}
	return sendTwiML(c, twiml)
}

// Recording godoc
// @Summary Recording completed
// @Description Transcribes the recording, stores and categorizes the transcript, then hangs up
// @Tags voice
// @Accept x-www-form-urlencoded
// @Produce xml
// @Param RecordingUrl formData string true "Recording URL"
// @Param CallSid formData string false "Call SID"
// @Param From formData string false "Caller number"
// @Success 200 {string} string "TwiML"
// @Router /webhook/voice/recording [post]
func (h *WebhookHandler) Recording(c *fiber.Ctx) error {
	var req dto.RecordingRequest
	h.parseForm(c, "recording", &req)
	h.metrics.RecordWebhook("recording")

	log := h.requestLogger(c).With(zap.String("call_sid", req.CallSid))

	if err := req.Validate(); err != nil {
		h.recordInvalid("recording", err)
		log.Warn("Recording webhook rejected", zap.Error(err))
	} else if result, err := h.ingestion.ProcessRecording(c.UserContext(), &req); err != nil {
		log.Error("Recording processed with failures", zap.Error(err), zap.Bool("stored", result.Stored))
	}

	// the caller is still on the line, so always answer with TwiML
	twiml, err := service.RecordingAckTwiML()
	if err != nil {
		return err
	}
	return sendTwiML(c, twiml)
}

// Transcription godoc
// @Summary Transcription completed
// @Description Stores and categorizes the provider transcription when confidence is above 0.7
// @Tags voice
// @Accept x-www-form-urlencoded
// @Produce json
// @Param TranscriptionText formData string false "Transcribed text"
// @Param CallSid formData string false "Call SID"
// @Param Confidence formData string false "Confidence between 0 and 1"
// @Success 200 {object} dto.StatusResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /webhook/voice/transcription [post]
func (h *WebhookHandler) Transcription(c *fiber.Ctx) error {
	var req dto.TranscriptionRequest
	h.parseForm(c, "transcription", &req)
	h.metrics.RecordWebhook("transcription")

	log := h.requestLogger(c).With(zap.String("call_sid", req.CallSid))

	result, err := h.ingestion.ProcessTranscription(c.UserContext(), &req)
	var fieldErr *dto.FieldError
	switch {
	case errors.As(err, &fieldErr):
		h.recordInvalid("transcription", err)
		log.Warn("Transcription webhook rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: fieldErr.Error()})
	case err != nil:
		log.Error("Transcription processed with failures", zap.Error(err), zap.Bool("stored", result.Stored))
	case result.Discarded != "":
		log.Debug("Transcription discarded", zap.String("reason", result.Discarded))
	}

	return c.JSON(dto.StatusResponse{Status: "success"})
}

// SMS godoc
// @Summary Incoming SMS
// @Description Stores and categorizes the message body and returns the auto-reply text
// @Tags sms
// @Accept x-www-form-urlencoded
// @Produce json
// @Param From formData string false "Sender number"
// @Param Body formData string false "Message body"
// @Param MessageSid formData string false "Message SID"
// @Success 200 {object} dto.StatusResponse
// @Router /webhook/sms [post]
func (h *WebhookHandler) SMS(c *fiber.Ctx) error {
	var req dto.SMSRequest
	h.parseForm(c, "sms", &req)
	h.metrics.RecordWebhook("sms")

	if result, err := h.ingestion.ProcessSMS(c.UserContext(), &req); err != nil {
		h.requestLogger(c).Error("SMS processed with failures",
			zap.String("message_sid", req.MessageSid),
			zap.Error(err),
			zap.Bool("stored", result.Stored),
		)
	}

	return c.JSON(dto.StatusResponse{Status: "success", Message: smsReply})
}

// parseForm decodes form fields into req. Bodies that are not forms leave req empty;
// the per-event validation decides whether that matters.
func (h *WebhookHandler) parseForm(c *fiber.Ctx, event string, req interface{}) {
	if err := c.BodyParser(req); err != nil {
		h.requestLogger(c).Debug("Webhook body not parsed",
			zap.String("event", event),
			zap.String("content_type", c.Get(fiber.HeaderContentType)),
			zap.Error(err),
		)
	}
}

func (h *WebhookHandler) recordInvalid(event string, err error) {
	kind := "missing_field"
	var fieldErr *dto.FieldError
	if errors.As(err, &fieldErr) {
		kind = fieldErr.KindLabel()
	}
	h.metrics.RecordInvalidRequest(event, kind)
}

func (h *WebhookHandler) requestLogger(c *fiber.Ctx) *zap.Logger {
	return h.logger.With(zap.String("request_id", middleware.RequestID(c)))
}

func sendTwiML(c *fiber.Ctx, twiml string) error {
	c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
	return c.SendString(twiml)
}
