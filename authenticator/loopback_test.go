package authenticator

import (
	"context"

	"github.com/ockam-network/direct-authenticator/identity"
)

// loopbackChannel drives a Server directly in-process, standing in for the
// secure-channel transport (out of scope per spec §1) in tests. peer is the
// fixed identity attached to every request sent over this channel.
type loopbackChannel struct {
	server *Server
	peer   *identity.ID

	lastResponse []byte
}

func newLoopback(server *Server, peer identity.ID) *loopbackChannel {
	return &loopbackChannel{server: server, peer: &peer}
}

// newUnauthenticatedLoopback builds a channel with no peer identity, for
// exercising the secure-channel-required rejection path.
func newUnauthenticatedLoopback(server *Server) *loopbackChannel {
	return &loopbackChannel{server: server, peer: nil}
}

func (l *loopbackChannel) Send(ctx context.Context, frame []byte) error {
	l.lastResponse = l.server.Handle(ctx, InboundMessage{Frame: frame, Peer: l.peer})
	return nil
}

func (l *loopbackChannel) Receive(ctx context.Context) ([]byte, error) {
	return l.lastResponse, nil
}
