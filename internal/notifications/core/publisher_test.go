package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holidayguard/internal/types"
)

// mockSQSSender records all SendMessage calls for verification.
type mockSQSSender struct {
	calls     []*sqs.SendMessageInput
	returnErr error
}

func (m *mockSQSSender) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.calls = append(m.calls, params)
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return &sqs.SendMessageOutput{}, nil
}

// stubSink is a Sink with a canned result.
type stubSink struct {
	name    string
	enabled bool
	err     error
	sent    []*types.Notification
}

func (s *stubSink) Name() string  { return s.name }
func (s *stubSink) Enabled() bool { return s.enabled }
func (s *stubSink) Send(_ context.Context, n *types.Notification) error {
	s.sent = append(s.sent, n)
	return s.err
}

type recordingMetrics struct {
	results map[string]types.DeliveryStatus
}

func (m *recordingMetrics) RecordDelivery(_ context.Context, sink string, status types.DeliveryStatus) {
	if m.results == nil {
		m.results = map[string]types.DeliveryStatus{}
	}
	m.results[sink] = status
}

func newTestNotification() *types.Notification {
	n := types.NewNotification(types.EventRestartResult, types.SeverityInfo, "restart done",
		time.Date(2026, 2, 11, 4, 0, 0, 0, time.UTC))
	n.Restart = &types.RestartOutcome{Status: types.OutcomeSuccess}
	return n
}

func TestArchivePublisher_Send(t *testing.T) {
	sender := &mockSQSSender{}
	pub := NewArchivePublisher(sender, "https://sqs.us-east-1.amazonaws.com/123/outcomes")
	require.True(t, pub.Enabled())

	n := newTestNotification()
	n.TestMode = true
	require.NoError(t, pub.Send(context.Background(), n))

	require.Len(t, sender.calls, 1)
	call := sender.calls[0]
	assert.Equal(t, "https://sqs.us-east-1.amazonaws.com/123/outcomes", *call.QueueUrl)
	assert.Equal(t, "ECS_RESTART_RESULT", *call.MessageAttributes["event_type"].StringValue)
	assert.Equal(t, "true", *call.MessageAttributes["test_mode"].StringValue)

	var sent types.Notification
	require.NoError(t, json.Unmarshal([]byte(*call.MessageBody), &sent))
	assert.Equal(t, n.ID, sent.ID)
	assert.Equal(t, types.OutcomeSuccess, sent.Restart.Status)
}

func TestArchivePublisher_SendError(t *testing.T) {
	sender := &mockSQSSender{returnErr: errors.New("access denied")}
	err := NewArchivePublisher(sender, "q").Send(context.Background(), newTestNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestArchivePublisher_DisabledWithoutQueue(t *testing.T) {
	assert.False(t, NewArchivePublisher(&mockSQSSender{}, "").Enabled())
	assert.False(t, NewArchivePublisher(nil, "q").Enabled())
}

func TestDispatcher_Notify(t *testing.T) {
	ok := &stubSink{name: "ok", enabled: true}
	failing := &stubSink{name: "webhook", enabled: true, err: errors.New("503 from sink")}
	off := &stubSink{name: "archive"}
	metrics := &recordingMetrics{}

	var buf bytes.Buffer
	d := NewDispatcher(slog.New(slog.NewJSONHandler(&buf, nil)), metrics, ok, failing, off)

	ctx := types.WithRequestID(context.Background(), "req-1")
	n := newTestNotification()
	report := d.Notify(ctx, n)

	require.Len(t, report.Results, 3)
	assert.Equal(t, n.ID, report.NotificationID)
	assert.Equal(t, types.DeliveryDelivered, report.Status("ok"))
	assert.Equal(t, types.DeliveryDegraded, report.Status("webhook"))
	assert.Equal(t, types.DeliverySkipped, report.Status("archive"))
	assert.Equal(t, types.DeliverySkipped, report.Status("missing"))
	assert.True(t, report.Degraded())
	assert.Equal(t, "503 from sink", report.Results[1].Error)

	assert.Len(t, ok.sent, 1)
	assert.Empty(t, off.sent)
	assert.Equal(t, "req-1", n.RequestID)

	assert.Equal(t, types.DeliveryDegraded, metrics.results["webhook"])
	assert.Equal(t, types.DeliverySkipped, metrics.results["archive"])
	assert.Contains(t, buf.String(), "notification sink failed")
}

func TestDispatcher_NoSinks(t *testing.T) {
	d := NewDispatcher(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), nil)
	report := d.Notify(context.Background(), newTestNotification())
	assert.Empty(t, report.Results)
	assert.False(t, report.Degraded())
}

func TestLogSink_Send(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))
	assert.True(t, sink.Enabled())
	assert.Equal(t, LogSinkName, sink.Name())

	n := types.NewNotification(types.EventProcessingError, types.SeverityError, "bad event", time.Now())
	n.Error = "validation_missing_required_field"
	require.NoError(t, sink.Send(context.Background(), n))

	line := buf.String()
	assert.True(t, strings.Contains(line, `"level":"ERROR"`), line)
	assert.Contains(t, line, `"msg":"bad event"`)
	assert.Contains(t, line, n.ID)
}
