package service

import (
	"github.com/twilio/twilio-go/twiml"
)

const (
	greetingPrompt      = "Thank you for calling EventFlow AI. Please tell us about your event planning needs."
	recordingThanks     = "Thank you for your message. We'll get back to you shortly."
	maxRecordingSeconds = "60"
)

// VoiceRoutes are the callback paths the provider is told to use after recording.
type VoiceRoutes struct {
	Recording     string
	Transcription string
}

// GreetingTwiML plays the prompt and records the caller with both callbacks configured.
func GreetingTwiML(routes VoiceRoutes) (string, error) {
	return twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: greetingPrompt},
		&twiml.VoiceRecord{
			Action:             routes.Recording,
			Method:             "POST",
			MaxLength:          maxRecordingSeconds,
			Transcribe:         "true",
			TranscribeCallback: routes.Transcription,
		},
	})
}

// RecordingAckTwiML thanks the caller and ends the call.
func RecordingAckTwiML() (string, error) {
	return twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: recordingThanks},
		&twiml.VoiceHangup{},
	})
}
