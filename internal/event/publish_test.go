package event

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"newsflow/internal/article"
)

// -------------------------
// Mock AMQP channel
// -------------------------

type MockAMQPChannel struct {
	mock.Mock
}

func (m *MockAMQPChannel) PublishWithContext(
	ctx context.Context,
	exchange, key string,
	mandatory, immediate bool,
	msg amqp.Publishing,
) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *MockAMQPChannel) Close() error { return nil } // unused, but needed

// -------------------------
// Helper
// -------------------------

func newTestPublisher(mockCh *MockAMQPChannel) *RabbitPublisher {
	return &RabbitPublisher{
		conn:       nil,
		ch:         mockCh,
		exchange:   "newsflow.events",
		routingKey: "article.ingested",
		logger:     zerolog.Nop(),
	}
}

// -------------------------
// Tests
// -------------------------

func TestPublishArticleIngested_PublishesCorrectly(t *testing.T) {
	mockCh := &MockAMQPChannel{}
	pub := newTestPublisher(mockCh)

	art := &article.Article{
		ID:    "storm_hits_coast_1700000000000",
		Title: "Storm hits coast",
	}

	mockCh.
		On("PublishWithContext",
			mock.Anything,
			"newsflow.events",
			"article.ingested",
			false,
			false,
			mock.AnythingOfType("amqp091.Publishing"),
		).
		Return(nil).
		Once()

	err := pub.PublishArticleIngested(context.Background(), art)
	require.NoError(t, err)

	mockCh.AssertExpectations(t)
}

func TestPublishArticleIngested_JSONContainsArticle(t *testing.T) {
	mockCh := &MockAMQPChannel{}
	pub := newTestPublisher(mockCh)

	art := &article.Article{
		ID:       "budget_2025_1700000000000",
		Title:    "Budget 2025",
		Category: "business",
	}

	var capturedMsg amqp.Publishing

	mockCh.
		On("PublishWithContext",
			mock.Anything,
			"newsflow.events",
			"article.ingested",
			false,
			false,
			mock.AnythingOfType("amqp091.Publishing"),
		).
		Return(nil).
		Run(func(args mock.Arguments) {
			capturedMsg = args.Get(5).(amqp.Publishing)
		})

	err := pub.PublishArticleIngested(context.Background(), art)
	require.NoError(t, err)

	body := string(capturedMsg.Body)

	assert.Contains(t, body, `"event":"article.ingested"`)
	assert.Contains(t, body, `"id":"budget_2025_1700000000000"`)
	assert.Contains(t, body, `"Budget 2025"`)
}

func TestPublishArticleIngested_ErrorBubbles(t *testing.T) {
	mockCh := &MockAMQPChannel{}
	pub := newTestPublisher(mockCh)

	publishErr := errors.New("boom")

	mockCh.
		On("PublishWithContext",
			mock.Anything,
			mock.Anything,
			mock.Anything,
			mock.Anything,
			mock.Anything,
			mock.Anything,
		).
		Return(publishErr)

	err := pub.PublishArticleIngested(context.Background(), &article.Article{})
	require.Error(t, err)
	require.Equal(t, publishErr, err)
}
