// Package kafkatest starts a throwaway broker for integration tests.
package kafkatest

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

const image = "confluentinc/confluent-local:7.5.0"

// Broker runs a single-node cluster for the lifetime of t and returns its
// bootstrap address. Tests calling it are skipped in short mode.
func Broker(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("kafka container test skipped in short mode")
	}

	ctx := context.Background()
	ctr, err := kafka.Run(ctx, image, kafka.WithClusterID("bagshop-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// Topic creates a one-partition topic and blocks until it has a leader.
func Topic(t *testing.T, broker, topic string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := &kafkago.Client{Addr: kafkago.TCP(broker), Timeout: 10 * time.Second}
	resp, err := client.CreateTopics(ctx, &kafkago.CreateTopicsRequest{
		Topics: []kafkago.TopicConfig{{Topic: topic, NumPartitions: 1, ReplicationFactor: 1}},
	})
	require.NoError(t, err)
	if err := resp.Errors[topic]; err != nil && !errors.Is(err, kafkago.TopicAlreadyExists) {
		t.Fatalf("create topic %s: %v", topic, err)
	}

	require.Eventually(t, func() bool {
		md, err := client.Metadata(ctx, &kafkago.MetadataRequest{Topics: []string{topic}})
		if err != nil || len(md.Topics) != 1 {
			return false
		}
		tp := md.Topics[0]
		return tp.Error == nil && len(tp.Partitions) == 1 && tp.Partitions[0].Leader.Host != ""
	}, 20*time.Second, 250*time.Millisecond)
}
