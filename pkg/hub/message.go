// Package hub fans narrator events out to websocket clients using a
// single owner goroutine for the client set.
package hub

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded message
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data (e.g. a JPEG preview)
	BinaryMessage
)

// Message is one broadcast. Topic lets clients subscribe to a subset;
// an empty topic reaches everyone.
type Message struct {
	Type  MessageType
	Topic string
	Data  []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(topic string, data []byte) Message {
	return Message{Type: JSONMessage, Topic: topic, Data: data}
}

// NewBinaryMessage creates a binary message
func NewBinaryMessage(topic string, data []byte) Message {
	return Message{Type: BinaryMessage, Topic: topic, Data: data}
}
