package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"enroll/internal/events"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var out kgo.ProduceResults
	for _, r := range rs {
		f.records = append(f.records, r)
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func (f *fakeProducer) Close() { f.closed = true }

func TestPublisherWritesKeyedRecord(t *testing.T) {
	fp := &fakeProducer{}
	p := NewPublisher(fp, "enroll.ledger")

	e := events.New(events.TypeInstallmentPaid, "r1", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	e.Slot = 2
	require.NoError(t, p.Publish(context.Background(), e))

	require.Len(t, fp.records, 1)
	rec := fp.records[0]
	assert.Equal(t, "enroll.ledger", rec.Topic)
	assert.Equal(t, []byte("r1"), rec.Key)
	assert.Equal(t, "installment.paid", string(rec.Headers[0].Value))

	var decoded events.Event
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, 2, decoded.Slot)
	assert.Equal(t, e.ID, decoded.ID)

	require.NoError(t, p.Close())
	assert.True(t, fp.closed)
}

func TestPublisherReturnsProduceError(t *testing.T) {
	fp := &fakeProducer{err: errors.New("broker down")}
	p := NewPublisher(fp, "t")
	err := p.Publish(context.Background(), events.New(events.TypeRegistrantCreated, "r1", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}
