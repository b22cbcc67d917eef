package broker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar-agentkit/stellarflow/stream"
)

type fakeChannel struct {
	mu     sync.Mutex
	keys   []string
	bodies [][]byte
	err    error
	closed bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, msg.Body)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestNewPublisherRequiresURL(t *testing.T) {
	_, err := NewPublisher(Config{})
	assert.Error(t, err)
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, queue: "q"}

	require.NoError(t, p.Publish(context.Background(), map[string]int{"a": 1}))
	assert.Equal(t, []string{"q"}, ch.keys)
	assert.JSONEq(t, `{"a":1}`, string(ch.bodies[0]))

	ch.err = errors.New("closed")
	assert.Error(t, p.Publish(context.Background(), 1))

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublishUninitialized(t *testing.T) {
	var p *Publisher
	assert.Error(t, p.Publish(context.Background(), 1))
	assert.NoError(t, p.Close())
}

func TestFragmentSink(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, queue: DefaultQueue}

	src := stream.FromSlice([]string{"Hello ", "world"}, nil)
	text, err := stream.Aggregate(context.Background(), src, FragmentSink(p))
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)

	require.Len(t, ch.bodies, 2)
	var msg FragmentMessage
	require.NoError(t, json.Unmarshal(ch.bodies[1], &msg))
	assert.Equal(t, 1, msg.Index)
	assert.Equal(t, "world", msg.Text)
}

func TestRabbitMQ(t *testing.T) {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		t.Skip("AMQP_URL not set")
	}
	queue := "stellarflow.test." + time.Now().Format("150405.000")
	p, err := NewPublisher(Config{URL: url, Queue: queue})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Publish(context.Background(), FragmentMessage{RunID: "r", Step: "s", Text: "x"}))

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	msg, ok, err := ch.Get(queue, true)
	require.NoError(t, err)
	require.True(t, ok)
	var got FragmentMessage
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, "r", got.RunID)
	_, _ = ch.QueueDelete(queue, false, false, false)
}
