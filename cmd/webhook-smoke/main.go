package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"eventflow-relay/internal/repository"
	"eventflow-relay/pkg/config"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type check struct {
	name   string
	method string
	path   string
	form   map[string]string
	verify func(resp *resty.Response) error
	// gate stops the run when it fails
	gate bool
}

type tableLister interface {
	ListTables(ctx context.Context) ([]string, error)
}

func main() {
	var (
		baseURL          string
		includeRecording bool
		checkStore       bool
	)

	cmd := &cobra.Command{
		Use:           "webhook-smoke",
		Short:         "Post sample webhooks to a running relay and report pass/fail",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")).SetTimeout(2 * time.Minute)

			var store tableLister
			if checkStore {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				store = repository.NewTranscriptRepository(&cfg.Airtable, zap.NewNop())
			}

			if failed := run(cmd.Context(), client, cmd.OutOrStdout(), checks(includeRecording), store); failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:5000", "Relay base URL")
	cmd.Flags().BoolVar(&includeRecording, "include-recording", false, "Also post a recording callback (calls the transcription API)")
	cmd.Flags().BoolVar(&checkStore, "check-store", false, "Also check Airtable credentials from the environment by listing the base's tables")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func checks(includeRecording bool) []check {
	callSid := "CA" + strings.ReplaceAll(uuid.NewString(), "-", "")
	smsSid := "SM" + strings.ReplaceAll(uuid.NewString(), "-", "")

	list := []check{
		{
			name:   "health",
			method: http.MethodGet,
			path:   "/",
			verify: expectBody(`"status":"running"`),
			gate:   true,
		},
		{
			name:   "voice start",
			method: http.MethodPost,
			path:   "/webhook/voice/start",
			form:   map[string]string{"From": "+1234567890", "CallSid": callSid, "CallStatus": "ringing"},
			verify: expectBody("<Record"),
		},
		{
			name:   "sms",
			method: http.MethodPost,
			path:   "/webhook/sms",
			form: map[string]string{
				"From":       "+1234567890",
				"Body":       "Hi, I need help planning a corporate event for 100 people in March.",
				"MessageSid": smsSid,
			},
			verify: expectBody(`"status":"success"`),
		},
		{
			name:   "transcription",
			method: http.MethodPost,
			path:   "/webhook/voice/transcription",
			form: map[string]string{
				"TranscriptionText": "I am planning a wedding for 150 guests in June. We need catering and photography services.",
				"CallSid":           callSid,
				"Confidence":        "0.85",
			},
			verify: expectBody(`"status":"success"`),
		},
	}

	if includeRecording {
		list = append(list, check{
			name:   "recording",
			method: http.MethodPost,
			path:   "/webhook/voice/recording",
			form: map[string]string{
				"RecordingUrl": "https://api.twilio.com/2010-04-01/Accounts/AC123/Recordings/RE123",
				"CallSid":      callSid,
				"From":         "+1234567890",
			},
			verify: expectBody("<Hangup"),
		})
	}
	return list
}

// run executes the checks in order and returns the number of failures. A failed gate check
// ends the run. When store is set its tables are listed right after the gate checks pass.
func run(ctx context.Context, client *resty.Client, w io.Writer, list []check, store tableLister) int {
	var (
		failed int
		total  int
	)
	storeChecked := store == nil

	for _, c := range list {
		if !c.gate && !storeChecked {
			storeChecked = true
			total++
			if err := checkTables(ctx, w, store); err != nil {
				failed++
			}
		}

		total++
		req := client.R().SetContext(ctx)
		if c.form != nil {
			req.SetFormData(c.form)
		}

		resp, err := req.Execute(c.method, c.path)
		if err == nil {
			err = c.verify(resp)
		}

		if err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %-14s %v\n", c.name, err)
			if c.gate {
				fmt.Fprintf(w, "\nServer not running at %s, start it with: eventflow-relay serve\n", client.BaseURL)
				return failed
			}
			continue
		}
		fmt.Fprintf(w, "PASS %-14s %d\n", c.name, resp.StatusCode())
	}

	if !storeChecked {
		total++
		if err := checkTables(ctx, w, store); err != nil {
			failed++
		}
	}

	fmt.Fprintf(w, "\n%d/%d checks passed\n", total-failed, total)
	return failed
}

func checkTables(ctx context.Context, w io.Writer, store tableLister) error {
	tables, err := store.ListTables(ctx)
	switch {
	case errors.Is(err, repository.ErrStoreDisabled):
		fmt.Fprintf(w, "FAIL %-14s credentials not configured (AIRTABLE_API_KEY, AIRTABLE_BASE_ID)\n", "airtable")
	case err != nil:
		fmt.Fprintf(w, "FAIL %-14s %v\n", "airtable", err)
	default:
		fmt.Fprintf(w, "PASS %-14s found %d tables in base\n", "airtable", len(tables))
	}
	return err
}

func expectBody(fragment string) func(resp *resty.Response) error {
	return func(resp *resty.Response) error {
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String())
		}
		if !strings.Contains(resp.String(), fragment) {
			return fmt.Errorf("response missing %q: %s", fragment, resp.String())
		}
		return nil
	}
}
