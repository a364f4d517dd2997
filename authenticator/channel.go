package authenticator

import (
	"context"

	"github.com/ockam-network/direct-authenticator/identity"
)

// InboundMessage is a single framed message delivered to the server by the
// secure-channel layer (out of scope per spec §1). Peer is nil when the
// message did not arrive over a mutually-authenticated secure channel;
// the server must reject such messages before attempting to decode Frame.
type InboundMessage struct {
	Frame []byte
	Peer  *identity.ID
}

// Channel represents one established, mutually-authenticated secure-channel
// route to a server. It is the one collaborator AuthenticatorClient depends
// on for transport; constructing and authenticating the underlying route is
// out of scope per spec §1.
type Channel interface {
	// Send transmits a single request frame.
	Send(ctx context.Context, frame []byte) error
	// Receive blocks for the single response frame matching the most
	// recent Send.
	Receive(ctx context.Context) ([]byte, error)
}
