package queue_test

import (
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/filedock/pkg/queue"
)

type capturePublisher struct {
	topic string
	msgs  []*message.Message
}

func (c *capturePublisher) Publish(topic string, msgs ...*message.Message) error {
	c.topic = topic
	c.msgs = append(c.msgs, msgs...)

	return nil
}

func (c *capturePublisher) Close() error { return nil }

func TestPublishFileUploaded(t *testing.T) {
	pub := &capturePublisher{}
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("CST", 8*3600))

	payload := queue.FileUploadedPayload{
		File:         queue.FileRef{ResourceType: "Images", Folder: "/", FileName: "20250304050607123456.png"},
		OriginalName: "cat.png",
		Size:         42,
		Warning:      207,
	}

	err := queue.PublishFileUploaded(pub, payload, queue.WithProducer("filedock"), queue.WithTraceID("t-1"), queue.WithOccurredAt(at))
	if err != nil {
		t.Fatalf("PublishFileUploaded: %v", err)
	}

	if pub.topic != queue.TopicFileUploaded || len(pub.msgs) != 1 {
		t.Fatalf("published %d messages to %q", len(pub.msgs), pub.topic)
	}

	msg := pub.msgs[0]
	if msg.Metadata.Get("producer") != "filedock" || msg.Metadata.Get("trace_id") != "t-1" {
		t.Errorf("metadata = %v", msg.Metadata)
	}

	env, err := queue.ParseFileUploaded(msg)
	if err != nil {
		t.Fatalf("ParseFileUploaded: %v", err)
	}

	if env.Header.Topic != queue.TopicFileUploaded || !env.Header.OccurredAt.Equal(at) {
		t.Errorf("header = %+v", env.Header)
	}

	if env.Header.OccurredAt.Location() != time.UTC {
		t.Errorf("occurred_at not UTC: %v", env.Header.OccurredAt)
	}

	if env.Payload != payload {
		t.Errorf("payload = %+v", env.Payload)
	}
}

func TestPublishFileRejected(t *testing.T) {
	pub := &capturePublisher{}

	if err := queue.PublishFileRejected(pub, queue.FileRejectedPayload{OriginalName: "x.php", ErrorNumber: 105}); err != nil {
		t.Fatal(err)
	}

	env, err := queue.ParseFileRejected(pub.msgs[0])
	if err != nil || env.Payload.ErrorNumber != 105 || pub.topic != queue.TopicFileRejected {
		t.Fatalf("env = %+v, err = %v", env, err)
	}
}
