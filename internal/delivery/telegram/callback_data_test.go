package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackDataRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		data    callbackData
		encoded string
	}{
		{"bare action", callbackData{Action: actionGame, Params: []string{gameNew}}, "game:new"},
		{"page navigation", callbackData{Action: actionToday, Params: []string{todayPage, "2"}}, "today:page:2"},
		{"card view", callbackData{Action: actionCard, Params: []string{cardView, "14"}}, "card:view:14"},
		{"card answer", callbackData{Action: actionCard, Params: []string{cardAnswer, "3"}}, "card:answer:3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.encoded, tt.data.encode())

			decoded := decodeCallback(tt.encoded)
			assert.Equal(t, tt.data.Action, decoded.Action)
			assert.Equal(t, tt.data.Params, decoded.Params)
		})
	}
}

func TestDecodeCallback_ParamlessAction(t *testing.T) {
	decoded := decodeCallback("today")
	assert.Equal(t, "today", decoded.Action)
	assert.Empty(t, decoded.Params)
}

func TestCallbackData_StaysWithinTelegramLimit(t *testing.T) {
	// Telegram rejects callback data over 64 bytes; deck positions keep the
	// payload tiny even for large batches.
	longest := callbackData{Action: actionCard, Params: []string{cardAnswer, "100"}}
	assert.LessOrEqual(t, len(longest.encode()), 64)
}
