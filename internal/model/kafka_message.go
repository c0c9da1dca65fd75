package model

// RowMessage is one staging row on its way through Kafka. The key of the
// enclosing Kafka message is Schema+"."+Table so consumers can dispatch
// without decoding the payload.
type RowMessage struct {
	Schema string            `json:"schema"`
	Table  string            `json:"table"`
	Row    map[string]string `json:"row"`
}
