package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/docker/docker/client"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const integrationQueue = "council_usage_events_test"

// RabbitMQIntegrationSuite публикует события в настоящий брокер и читает их обратно.
type RabbitMQIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *rabbitmq.RabbitMQContainer
	conn      *amqp.Connection
	publisher UsageEventPublisher
}

func (s *RabbitMQIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.container, err = rabbitmq.Run(s.ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Server startup complete").WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start rabbitmq container")

	url, err := s.container.AmqpURL(s.ctx)
	require.NoError(s.T(), err)

	s.conn, err = ConnectRabbitMQ(s.ctx, url, 5, time.Second, zap.NewNop())
	require.NoError(s.T(), err)

	s.publisher, err = NewRabbitMQUsagePublisher(s.conn, integrationQueue, zap.NewNop())
	require.NoError(s.T(), err)
}

func (s *RabbitMQIntegrationSuite) TearDownSuite() {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RabbitMQIntegrationSuite) TestPublishedEventReachesQueue() {
	err := s.publisher.PublishUsageEvent(s.ctx, UsageEvent{
		Kind:         EventKindCouncil,
		Status:       EventStatusSuccess,
		ScenarioType: "Water & Drought",
		UserID:       "user-1",
		DurationMs:   1200,
	})
	s.Require().NoError(err)

	ch, err := s.conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	var msg amqp.Delivery
	s.Eventually(func() bool {
		var ok bool
		msg, ok, err = ch.Get(integrationQueue, true)
		return err == nil && ok
	}, 10*time.Second, 100*time.Millisecond)

	s.Equal("application/json", msg.ContentType)
	s.Equal(amqp.Persistent, msg.DeliveryMode)

	var got UsageEvent
	s.Require().NoError(json.Unmarshal(msg.Body, &got))
	s.Equal(EventKindCouncil, got.Kind)
	s.Equal("Water & Drought", got.ScenarioType)
	s.Equal(got.ID.String(), msg.MessageId)
	s.False(got.OccurredAt.IsZero())
}

func TestRabbitMQIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode.")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("Skipping integration tests: docker client unavailable: %v", err)
	}
	defer cli.Close()
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Skipping integration tests: docker is not running: %v", err)
	}
	suite.Run(t, new(RabbitMQIntegrationSuite))
}
