package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teacherdesk/internal/queue"
)

func TestQueueNotifier_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewInMemory(1)
	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	sent := New(KindSuccess, "3 to-dos extracted", 3)
	require.NoError(t, NewQueueNotifier(q).Notify(ctx, sent))

	select {
	case msg := <-msgs:
		got, err := Decode(msg)
		require.NoError(t, err)
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, KindSuccess, got.Kind)
		assert.Equal(t, 3, got.Count)
		assert.True(t, sent.At.Equal(got.At))
	case <-time.After(time.Second):
		t.Fatal("no message published")
	}
}

func TestDecode_RejectsOtherTypes(t *testing.T) {
	_, err := Decode(queue.Message{Type: "checkin"})
	assert.Error(t, err)
}

func TestLogNotifier_WritesMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	require.NoError(t, NewLogNotifier(logger).Notify(context.Background(), New(KindFailure, "extraction failed", 0)))

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "extraction failed")
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, Notification) error { return errors.New("down") }

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	rec := &Recorder{}
	err := Multi{failingNotifier{}, rec}.Notify(context.Background(), New(KindSuccess, "ok", 1))

	assert.EqualError(t, err, "down")
	assert.Len(t, rec.Notifications(), 1)
}

func TestRecorder_KeepsNewest(t *testing.T) {
	r := &Recorder{Limit: 2}
	for _, msg := range []string{"a", "b", "c"} {
		require.NoError(t, r.Notify(context.Background(), New(KindSuccess, msg, 0)))
	}

	got := r.Notifications()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Message)
	assert.Equal(t, "c", got[1].Message)
}

func TestDrain_DeliversAndSkipsForeignMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := queue.NewInMemory(4)
	rec := &Recorder{}
	done := make(chan error, 1)
	go func() { done <- Drain(ctx, q, rec, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))) }()

	require.NoError(t, q.Publish(ctx, queue.Message{Type: "checkin", Body: []byte(`{}`)}))
	note := New(KindFailure, "Extracting to-dos failed.", 0)
	require.NoError(t, NewQueueNotifier(q).Notify(ctx, note))

	require.Eventually(t, func() bool { return len(rec.Notifications()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, note.ID, rec.Notifications()[0].ID)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("drain did not stop")
	}
}
