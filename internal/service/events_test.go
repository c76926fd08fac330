package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestEventPublisherWritesRedisChannel(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, "olympiad:events")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	publisher := NewEventPublisher(client, nil, "olympiad", zerolog.Nop())
	publisher.Publish(ctx, EventCoordinatorApproved, map[string]string{"userId": "c1"})

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	require.Equal(t, EventCoordinatorApproved, event.Event)
	require.JSONEq(t, `{"userId":"c1"}`, string(event.Payload))
}

func TestEventPublisherWithoutTransports(t *testing.T) {
	publisher := NewEventPublisher(nil, nil, "", zerolog.Nop())
	require.NotPanics(t, func() {
		publisher.Publish(context.Background(), EventCertificateIssued, map[string]string{"code": "GIO-GQC-1000"})
	})
}
