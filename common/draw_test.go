package common

import (
	"errors"
	"strconv"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xor-shift/xsrng/util/rng"
)

func TestParseDrawRequests(t *testing.T) {
	requests, err := ParseDrawRequests([]byte(`[{"min": 0, "max": 10, "count": 3}, {"min": 5, "max": 5, "count": 1}]`), 100)
	require.NoError(t, err)

	assert.Equal(t, []DrawRequest{{Min: 0, Max: 10, Count: 3}, {Min: 5, Max: 5, Count: 1}}, requests)
}

func TestParseDrawRequestsErrors(t *testing.T) {
	var tooWide error = rng.ErrRangeTooWide
	if strconv.IntSize == 32 {
		tooWide = nil
	}

	tests := []struct {
		name string
		body string
		want error
	}{
		{"not json", `{`, nil},
		{"empty", `[]`, nil},
		{"unknown field", `[{"min": 0, "max": 1, "count": 1, "seed": 4}]`, nil},
		{"wrong type", `[{"min": "zero", "max": 1, "count": 1}]`, nil},
		{"negative min", `[{"min": -1, "max": 1, "count": 1}]`, rng.ErrNegativeLowerBound},
		{"inverted", `[{"min": 0, "max": 1, "count": 1}, {"min": 9, "max": 1, "count": 1}]`, rng.ErrInvertedRange},
		{"too wide", `[{"min": 0, "max": 4294967296, "count": 1}]`, tooWide},
		{"fractional", `[{"min": 0.9, "max": 10.7, "count": 2.9}]`, nil},
		{"fractional count", `[{"min": 0, "max": 10, "count": 2.5}]`, nil},
		{"exponent", `[{"min": 0, "max": 1e3, "count": 1}]`, nil},
		{"trailing data", `[{"min": 0, "max": 10, "count": 1}] [`, nil},
		{"zero count", `[{"min": 0, "max": 1, "count": 0}]`, nil},
		{"count over limit", `[{"min": 0, "max": 1, "count": 101}]`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests, err := ParseDrawRequests([]byte(tt.body), 100)
			require.Error(t, err)
			assert.Nil(t, requests)

			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}
		})
	}
}

func TestBatchCodec(t *testing.T) {
	batch := DrawBatch{
		SessionID: 3,
		Seed:      42,
		Order:     7,
		Request:   DrawRequest{Min: 0, Max: 100, Count: 3},
		Values:    []int{16, 17, 70},
	}

	body, err := EncodeBatch(batch)
	require.NoError(t, err)

	decoded, err := DecodeBatch(body)
	require.NoError(t, err)
	assert.Equal(t, batch, decoded)
}

type recordingPublisher struct {
	exchanges []string
	messages  []amqp.Publishing
	err       error
}

func (p *recordingPublisher) Publish(exchange, _ string, _, _ bool, msg amqp.Publishing) error {
	p.exchanges = append(p.exchanges, exchange)
	p.messages = append(p.messages, msg)
	return p.err
}

func TestPublishAndHandleDelivery(t *testing.T) {
	pub := &recordingPublisher{}
	batch := DrawBatch{SessionID: 1, Order: 2, Request: DrawRequest{Max: 2, Count: 1}, Values: []int{1}}

	require.NoError(t, PublishBatch(pub, "draws", batch))
	require.Len(t, pub.messages, 1)
	assert.Equal(t, "draws", pub.exchanges[0])
	assert.Equal(t, "application/octet-stream", pub.messages[0].ContentType)

	var got []DrawBatch
	HandleDelivery(pub.messages[0].Body, func(b DrawBatch) error {
		got = append(got, b)
		return nil
	})
	HandleDelivery([]byte("garbage"), func(b DrawBatch) error {
		t.Fatal("callback must not run for undecodable bodies")
		return nil
	})

	assert.Equal(t, []DrawBatch{batch}, got)
}

func TestPublishBatchPropagatesError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	assert.EqualError(t, PublishBatch(pub, "draws", DrawBatch{}), "channel closed")
}
