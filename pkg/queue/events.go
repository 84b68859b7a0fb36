package queue

import "github.com/ThreeDotsLabs/watermill/message"

// PublishFileUploaded 发布 fd.file.uploaded 事件.
func PublishFileUploaded(pub message.Publisher, payload FileUploadedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileUploaded, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicFileUploaded, msg)
}

// PublishFileRejected 发布 fd.file.rejected 事件.
func PublishFileRejected(pub message.Publisher, payload FileRejectedPayload, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(TopicFileRejected, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicFileRejected, msg)
}

// ParseFileUploaded 解析 fd.file.uploaded 消息.
func ParseFileUploaded(msg *message.Message) (Message[FileUploadedPayload], error) {
	return ParseWatermillMessage[FileUploadedPayload](msg)
}

// ParseFileRejected 解析 fd.file.rejected 消息.
func ParseFileRejected(msg *message.Message) (Message[FileRejectedPayload], error) {
	return ParseWatermillMessage[FileRejectedPayload](msg)
}
