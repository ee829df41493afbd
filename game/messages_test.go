package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientMessage(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"authenticate","token":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, Authenticate{Token: "abc"}, msg)

	msg, err = DecodeClientMessage([]byte(`{"type":"move_paddle","data":"down"}`))
	require.NoError(t, err)
	assert.Equal(t, MovePaddle{Direction: DirectionDown}, msg)
}

func TestDecodeClientMessage_Rejections(t *testing.T) {
	_, err := DecodeClientMessage([]byte(`{"type":"chat","data":"hi"}`))
	assert.ErrorIs(t, err, ErrUnknownMessageType)

	for _, raw := range []string{
		`not json`,
		`{"data":"up"}`,
		`{"type":"move_paddle","data":"left"}`,
		`{"type":"move_paddle","data":{"dir":"up"}}`,
		`{"type":"move_paddle"}`,
	} {
		_, err := DecodeClientMessage([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedMessage, raw)
	}
}

func TestServerMessageWireShape(t *testing.T) {
	update, err := json.Marshal(NewGameUpdateMessage(GameUpdateData{
		Player1: PlayerView{Y: 10, Score: 1, UserID: "a"},
		Player2: PlayerView{Y: 20, Score: 2, UserID: "b"},
		Ball:    BallView{X: 3, Y: 4},
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"game_update","data":{
		"player1":{"y":10,"score":1,"userId":"a"},
		"player2":{"y":20,"score":2,"userId":"b"},
		"ball":{"x":3,"y":4}}}`, string(update))

	end, err := json.Marshal(NewGameEndMessage(GameEndData{Winner: "a", Player1Score: 5, Player2Score: 3, Disconnected: true}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"game_end","data":{"winner":"a","player1Score":5,"player2Score":3,"disconnected":true}}`, string(end))

	waiting, err := json.Marshal(NewWaitingMessage(2))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"waiting","countDown":2}`, string(waiting))

	errFrame, err := json.Marshal(NewErrorMessage("", "Please authenticate first"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","message":"Please authenticate first"}`, string(errFrame))
}
