package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type publishCall struct {
	channel string
	message []byte
}

type stubPublisher struct {
	calls []publishCall
	err   error
}

func (s *stubPublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	data, _ := message.([]byte)
	s.calls = append(s.calls, publishCall{channel: channel, message: data})
	if s.err != nil {
		return redis.NewIntResult(0, s.err)
	}
	return redis.NewIntResult(1, nil)
}

func TestRedisNotifier_Publish(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	publisher := &stubPublisher{}
	notifier := NewRedisNotifier(publisher, "", func() time.Time { return fixed }, slog.New(slog.NewTextHandler(io.Discard, nil)))

	payload := map[string]string{"eventId": "event-1", "responseId": "r-1"}
	if err := notifier.Publish(context.Background(), "response.submitted", payload); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if len(publisher.calls) != 1 || publisher.calls[0].channel != DefaultChannel {
		t.Fatalf("expected one publish on %q, got %+v", DefaultChannel, publisher.calls)
	}

	envelope, err := Decode(string(publisher.calls[0].message))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if envelope.Type != "response.submitted" || !envelope.Timestamp.Equal(fixed) {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	if _, err := uuid.Parse(envelope.ID); err != nil {
		t.Fatalf("expected a UUID id, got %q", envelope.ID)
	}
	var decoded map[string]string
	if err := json.Unmarshal(envelope.Payload, &decoded); err != nil || decoded["responseId"] != "r-1" {
		t.Fatalf("unexpected payload %s", envelope.Payload)
	}
}

func TestRedisNotifier_Errors(t *testing.T) {
	t.Parallel()

	t.Run("publish failure", func(t *testing.T) {
		t.Parallel()
		down := errors.New("connection refused")
		notifier := NewRedisNotifier(&stubPublisher{err: down}, "custom", nil, nil)
		if err := notifier.Publish(context.Background(), "event.deleted", nil); !errors.Is(err, down) {
			t.Fatalf("expected wrapped publish error, got %v", err)
		}
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		t.Parallel()
		publisher := &stubPublisher{}
		notifier := NewRedisNotifier(publisher, "custom", nil, nil)
		if err := notifier.Publish(context.Background(), "x", func() {}); err == nil {
			t.Fatalf("expected marshal error")
		}
		if len(publisher.calls) != 0 {
			t.Fatalf("expected nothing to be published")
		}
	})

	t.Run("unconfigured", func(t *testing.T) {
		t.Parallel()
		var notifier *RedisNotifier
		if err := notifier.Publish(context.Background(), "x", nil); err == nil {
			t.Fatalf("expected error for nil notifier")
		}
	})
}

func TestDecode(t *testing.T) {
	t.Parallel()

	if _, err := Decode("not json"); err == nil {
		t.Fatalf("expected error for malformed message")
	}
	if _, err := Decode(`{"id":"x","payload":{}}`); err == nil {
		t.Fatalf("expected error for missing type")
	}
}

func TestDial_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := Dial(context.Background(), "http://not-redis"); err == nil {
		t.Fatalf("expected error for non redis URL")
	}
}
