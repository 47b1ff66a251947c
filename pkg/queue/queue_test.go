package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Symbol string `json:"symbol"`
	Score  int    `json:"score"`
}

func TestDecode(t *testing.T) {
	p, err := Decode[payload](json.RawMessage(`{"symbol":"ETHUSDT","score":4}`))
	require.NoError(t, err)
	assert.Equal(t, payload{Symbol: "ETHUSDT", Score: 4}, *p)

	_, err = Decode[payload](json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestJobFunc(t *testing.T) {
	var got string
	j := JobFunc{
		JobName: "persist",
		MsgType: "t",
		Fn: func(_ context.Context, raw json.RawMessage) error {
			got = string(raw)
			return nil
		},
	}
	assert.Equal(t, "persist", j.Name())
	assert.Equal(t, "t", j.Type())
	require.NoError(t, j.Handle(context.Background(), json.RawMessage(`{}`)))
	assert.Equal(t, "{}", got)
}

func TestQueueModeString(t *testing.T) {
	assert.Equal(t, "producer-only", ModeProducerOnly.String())
	assert.Equal(t, "consumer-only", ModeConsumerOnly.String())
	assert.Equal(t, "producer-consumer", ModeProducerConsumer.String())
}
