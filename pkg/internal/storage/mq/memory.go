package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/filedock/pkg/configs"
)

func init() {
	RegisterFactory(configs.MQTypeMemory, memoryFactory)
}

// memoryFactory 进程内 Pub/Sub，Publisher 与 Subscriber 为同一实例.
func memoryFactory(_ context.Context, _ *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)

	return ps, &sharedCloseSubscriber{ps}, nil
}

// sharedCloseSubscriber 避免 Client.Close 对同一 GoChannel 关闭两次时的重复日志.
type sharedCloseSubscriber struct {
	*gochannel.GoChannel
}

func (s *sharedCloseSubscriber) Close() error { return nil }
