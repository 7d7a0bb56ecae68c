package telegram

import "strings"

// Callback action constants.
const (
	actionToday = "today"
	actionCard  = "card"
	actionGame  = "game"
)

// Card sub-actions.
const (
	cardView   = "view"
	cardAnswer = "answer"
)

// Today sub-actions.
const (
	todayPage = "page"
)

// Game sub-actions.
const (
	gameNew = "new"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates the callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses a callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	if len(parts) == 0 {
		return callbackData{Raw: data}
	}
	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}
