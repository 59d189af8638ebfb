package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-narrator/pkg/events"
	"github.com/teslashibe/go-narrator/pkg/hazard"
)

var t0 = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func TestMultiCallsEveryPublisher(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	m := events.Multi{
		events.PublisherFunc(func(context.Context, events.Event) error {
			calls = append(calls, "a")
			return boom
		}),
		nil,
		events.PublisherFunc(func(context.Context, events.Event) error {
			calls = append(calls, "b")
			return nil
		}),
	}

	err := m.Publish(context.Background(), events.New(events.KindTrigger, t0, nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestRecentKeepsNewestFirst(t *testing.T) {
	r := events.NewRecent(2)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Publish(ctx, events.New(events.KindNarration, t0.Add(time.Duration(i)*time.Second), i)))
	}
	require.NoError(t, r.Publish(ctx, events.New(events.KindHazard, t0, "h")))

	got := r.List(events.KindNarration)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Data)
	assert.Equal(t, 1, got[1].Data)

	latest, ok := r.Latest(events.KindHazard)
	require.True(t, ok)
	assert.Equal(t, "h", latest.Data)

	_, ok = r.Latest(events.KindTrigger)
	assert.False(t, ok)
}

// fakeClient implements the subset of mqtt.Client the publisher uses.
type fakeClient struct {
	mqtt.Client

	mu        sync.Mutex
	connected bool
	err       error
	messages  []published
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

func (c *fakeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return doneToken{err: c.err}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

type doneToken struct{ err error }

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

func TestMQTTPublishesByKind(t *testing.T) {
	client := &fakeClient{connected: true}
	m := events.NewMQTT(client, events.MQTTConfig{Topic: "walk"})
	ctx := context.Background()

	ev := events.New(events.KindHazard, t0, events.HazardEvent{
		Seq:     12,
		Hazards: []hazard.Hazard{{ID: "t3", Class: "car", Priority: hazard.PriorityHigh}},
		Text:    "STOP! Car in front of you",
		Spoken:  true,
	})
	require.NoError(t, m.Publish(ctx, ev))
	require.NoError(t, m.Publish(ctx, events.New(events.KindDetection, t0, events.DetectionEvent{Seq: 12})))
	require.NoError(t, m.Publish(ctx, events.New(events.KindNarration, t0, events.NarrationEvent{Text: "A quiet street."})))

	require.Len(t, client.messages, 2)
	assert.Equal(t, "walk/hazard", client.messages[0].topic)
	assert.Equal(t, byte(1), client.messages[0].qos)
	assert.Equal(t, "walk/narration", client.messages[1].topic)
	assert.Equal(t, byte(0), client.messages[1].qos)

	var decoded struct {
		Kind string `json:"kind"`
		Data struct {
			Text    string `json:"text"`
			Hazards []struct {
				Priority string `json:"priority"`
			} `json:"hazards"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(client.messages[0].payload, &decoded))
	assert.Equal(t, "hazard", decoded.Kind)
	assert.Equal(t, "STOP! Car in front of you", decoded.Data.Text)
	require.Len(t, decoded.Data.Hazards, 1)
	assert.Equal(t, "high", decoded.Data.Hazards[0].Priority)

	stats := m.Stats()
	assert.Equal(t, uint64(2), stats.Published)
	assert.Equal(t, uint64(1), stats.Skipped)
}

func TestMQTTErrors(t *testing.T) {
	ctx := context.Background()
	ev := events.New(events.KindTrigger, t0, events.TriggerEvent{Source: "http"})

	down := events.NewMQTT(&fakeClient{}, events.MQTTConfig{})
	assert.ErrorIs(t, down.Publish(ctx, ev), events.ErrNotConnected)

	refused := errors.New("not authorized")
	client := &fakeClient{connected: true, err: refused}
	m := events.NewMQTT(client, events.MQTTConfig{})
	assert.ErrorIs(t, m.Publish(ctx, ev), refused)
	assert.Equal(t, "narrator/trigger", client.messages[0].topic)
	assert.Equal(t, uint64(1), m.Stats().Failed)

	require.NoError(t, m.Close())
	assert.False(t, m.Stats().Connected)
}

func TestDialMQTTRequiresBroker(t *testing.T) {
	_, err := events.DialMQTT(events.MQTTConfig{})
	assert.Error(t, err)
}
