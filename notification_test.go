package eventstream_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/eventstream"
	"github.com/coregx/eventstream/model"
)

func TestNoOpNotificationService(t *testing.T) {
	svc := &eventstream.NoOpNotificationService{}
	ctx := context.Background()

	assert.NoError(t, svc.NotifyDeadLetter(ctx, model.DeadLetter{}))
	assert.NoError(t, svc.NotifyHandlerFailure(ctx, model.Event{}, 1, errors.New("x")))
	assert.NoError(t, svc.NotifyReconnectExhausted(ctx, nil))
}

func TestLoggingNotificationService(t *testing.T) {
	logger := newRecordingLogger()
	svc := eventstream.NewLoggingNotificationService(logger)
	ctx := context.Background()

	evt, err := model.NewUserActivity(model.UserActivityPayload{UserID: "u1", Action: "LOGIN_FAILURE"}, "")
	require.NoError(t, err)

	require.NoError(t, svc.NotifyHandlerFailure(ctx, evt, 2, errors.New("timeout")))
	assert.True(t, logger.contains("warn", "attempt 2", evt.EventID, "timeout"))

	dl := model.NewDeadLetter(evt, errors.New("exhausted"))
	require.NoError(t, svc.NotifyDeadLetter(ctx, dl))
	assert.True(t, logger.contains("warn", "DLQ", evt.EventID, "exhausted"))

	require.NoError(t, svc.NotifyReconnectExhausted(ctx, []string{model.ChannelProduct}))
	assert.True(t, logger.contains("error", "reconnect exhausted", model.ChannelProduct))
}
