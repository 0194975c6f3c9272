// Package endpoint describes the declarative endpoint surface shared by the
// typed client and the mock server: method, path, and the declared response
// shape. The shape is a closed sum type so dispatch over it stays exhaustive.
package endpoint

import "github.com/weftworks/weft/pkg/schema"

// DefaultDiscriminator is the field socket message frames use to identify
// their logical kind when the endpoint does not declare one.
const DefaultDiscriminator = "type"

// Endpoint is a single declarative endpoint definition.
type Endpoint struct {
	Method string
	Path   string
	Shape  ResponseShape
}

// ResponseShape is the declared response shape of an endpoint. Exactly one
// of the concrete shape types below implements it.
type ResponseShape interface {
	responseShape()
}

// JSONShape declares an ordinary JSON response validated by Body.
type JSONShape struct {
	Body schema.Schema
}

// EventShape declares a Server-Sent Events stream. Events maps event names
// to the schema their data payload must satisfy.
type EventShape struct {
	Events map[string]schema.Schema
}

// ItemShape declares a newline-delimited JSON stream of items.
type ItemShape struct {
	Item schema.Schema
}

// BinaryShape declares a raw byte stream with the given content type.
type BinaryShape struct {
	ContentType string
}

// SocketShape declares a bidirectional socket endpoint. Inbound maps message
// kinds the server sends to the client; Outbound maps kinds the client sends
// to the server. Frames carry the kind in the Discriminator field.
type SocketShape struct {
	Discriminator string
	Inbound       map[string]schema.Schema
	Outbound      map[string]schema.Schema
}

// DiscriminatorField returns the declared discriminator, defaulting to "type".
func (s SocketShape) DiscriminatorField() string {
	if s.Discriminator == "" {
		return DefaultDiscriminator
	}
	return s.Discriminator
}

func (JSONShape) responseShape()   {}
func (EventShape) responseShape()  {}
func (ItemShape) responseShape()   {}
func (BinaryShape) responseShape() {}
func (SocketShape) responseShape() {}
