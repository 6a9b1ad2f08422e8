package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/amishk599/jobboard/internal/model"
)

// Ensure SlackNotifier implements model.Notifier.
var _ model.Notifier = (*SlackNotifier)(nil)

// SlackNotifier sends new-application alerts to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each application to Slack via webhook.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify posts one Block Kit message. Non-200 responses are returned as
// *model.HTTPError so a retry decorator can decide what to do.
func (s *SlackNotifier) Notify(ctx context.Context, note model.Notification) error {
	body, err := json.Marshal(buildPayload(note))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("slack: %s", bytes.TrimSpace(msg)),
		}
	}
	s.logger.Info("slack message sent", "application_id", note.Application.ID, "job_id", note.Job.ID)
	return nil
}

func retryAfter(h string) time.Duration {
	secs, err := strconv.Atoi(h)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// SendTestMessage sends a dummy application notification to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	now := time.Now().UTC()
	note := model.Notification{
		Job: model.Job{
			ID:               "test-job",
			Title:            "Test Notification",
			Department:       "Engineering",
			Location:         "Everywhere",
			PostedAt:         now,
			Active:           true,
			MaxApplications:  model.DefaultMaxApplications,
			ApplicationCount: 1,
		},
		Application: model.Application{
			ID:          uuid.NewString(),
			JobID:       "test-job",
			FullName:    "Integration Check",
			Email:       "test@example.com",
			Phone:       "+15550000000",
			Status:      model.StatusPending,
			SubmittedAt: now,
		},
	}
	return n.Notify(ctx, note)
}

func buildPayload(note model.Notification) slackPayload {
	j, a := note.Job, note.Application
	return slackPayload{Blocks: []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "📨 New application: " + j.Title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Applicant:*\n" + a.FullName},
				{Type: "mrkdwn", Text: "*Email:*\n" + a.Email},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Department:*\n" + j.Department},
				{Type: "mrkdwn", Text: "*Location:*\n" + j.Location},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Applied:*\n" + a.SubmittedAt.Format(time.RFC1123)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Applications:*\n%d / %d", j.ApplicationCount, j.Capacity())},
			},
		},
		{Type: "divider"},
	}}
}
