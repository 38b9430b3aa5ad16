package activitylog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enroll/internal/platform/sheets/sheetstest"
)

func TestSheetsSink_EnsureSchemaThenAppend(t *testing.T) {
	fake := sheetstest.New()
	sink := NewSheetsSink(fake, "Logs")
	ctx := context.Background()

	require.NoError(t, sink.EnsureSchema(ctx))
	require.NoError(t, sink.EnsureSchema(ctx))

	err := sink.Write(ctx, Entry{
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600)),
		Kind:      KindPayment,
		Level:     LevelInfo,
		Message:   "pix created",
		Data:      map[string]any{"order_id": "ORDE_1"},
		RequestID: "req-9",
	})
	require.NoError(t, err)

	rows := fake.Rows("Logs")
	require.Len(t, rows, 2)
	assert.Equal(t, []any{"timestamp", "tipo", "nivel", "mensagem", "dados"}, rows[0])
	assert.Equal(t, "2025-03-01T15:00:00Z", rows[1][0])
	assert.Equal(t, "pagamento", rows[1][1])
	assert.Equal(t, "INFO", rows[1][2])

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(rows[1][4].(string)), &data))
	assert.Equal(t, "ORDE_1", data["order_id"])
	assert.Equal(t, "req-9", data["request_id"])
}

func TestSheetsSink_EmptyDataLeavesCellBlank(t *testing.T) {
	fake := sheetstest.New()
	sink := NewSheetsSink(fake, "Logs")
	require.NoError(t, sink.EnsureSchema(context.Background()))

	require.NoError(t, sink.Write(context.Background(), Entry{Kind: KindReconcile, Level: LevelInfo, Message: "sweep"}))
	assert.Equal(t, "", fake.Rows("Logs")[1][4])
}
