package authenticator

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ockam-network/direct-authenticator/wire"
)

// Client is the symmetric counterpart to Server: it encodes requests,
// sends them over a Channel, and decodes the resulting response. One
// Client serves one Channel; RequestID is assigned locally and is not
// meaningful across Channels.
type Client struct {
	channel   Channel
	requestID atomic.Uint64
}

// NewClient returns a Client that issues requests over channel.
func NewClient(channel Channel) *Client {
	return &Client{channel: channel}
}

func (c *Client) nextRequestID() uint64 {
	return c.requestID.Add(1)
}

func (c *Client) roundTrip(ctx context.Context, req wire.Request) (wire.ResponseHeader, []byte, error) {
	frame := wire.EncodeRequest(req)
	if err := c.channel.Send(ctx, frame); err != nil {
		return wire.ResponseHeader{}, nil, fmt.Errorf("authenticator: sending request: %w", err)
	}
	respFrame, err := c.channel.Receive(ctx)
	if err != nil {
		return wire.ResponseHeader{}, nil, fmt.Errorf("authenticator: receiving response: %w", err)
	}
	header, body, err := wire.DecodeResponseHeader(respFrame)
	if err != nil {
		return wire.ResponseHeader{}, nil, fmt.Errorf("authenticator: decoding response: %w", err)
	}
	if header.Status != wire.StatusOK {
		msg := "request rejected"
		if header.BodyPresent {
			if errBody, err := wire.DecodeErrorBody(body); err == nil {
				msg = errBody.Message
			}
		}
		return header, nil, &StatusError{Status: header.Status, Message: msg}
	}
	return header, body, nil
}

// StatusError reports a non-OK response from the server, carrying the
// status and the server's message so callers can distinguish, e.g.,
// "unknown token" from "expired token" without string-matching errors.Is
// chains.
type StatusError struct {
	Status  wire.Status
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("authenticator: %s: %s", e.Status, e.Message)
}

// CreateToken asks the peer to mint a one-time enrollment code carrying
// attrs. The caller must be an authorized enroller on the peer's
// Directory.
func (c *Client) CreateToken(ctx context.Context, attrs map[string][]byte) (wire.Code, error) {
	req := wire.Request{
		Header: wire.RequestHeader{
			RequestID:   c.nextRequestID(),
			Method:      wire.MethodPost,
			Path:        "/" + pathTokens,
			BodyPresent: true,
		},
		CreateToken: &wire.CreateTokenBody{Attrs: attrs},
	}
	_, body, err := c.roundTrip(ctx, req)
	if err != nil {
		return wire.Code{}, err
	}
	return wire.DecodeCode(body)
}

// AddMember asks the peer to attest memberID with attrs directly, without
// going through a one-time code. The caller must be an authorized
// enroller.
func (c *Client) AddMember(ctx context.Context, memberID []byte, attrs map[string][]byte) error {
	req := wire.Request{
		Header: wire.RequestHeader{
			RequestID:   c.nextRequestID(),
			Method:      wire.MethodPost,
			Path:        "/" + pathMembers,
			BodyPresent: true,
		},
		AddMember: &wire.AddMemberBody{MemberID: memberID, Attrs: attrs},
	}
	_, _, err := c.roundTrip(ctx, req)
	return err
}

// CredentialWith redeems a one-time code, admitting the caller as a member
// and returning its signed credential in one round trip.
func (c *Client) CredentialWith(ctx context.Context, code wire.Code) (string, error) {
	req := wire.Request{
		Header: wire.RequestHeader{
			RequestID:   c.nextRequestID(),
			Method:      wire.MethodPost,
			Path:        "/" + pathCredential,
			BodyPresent: true,
		},
		Code: &code,
	}
	_, body, err := c.roundTrip(ctx, req)
	if err != nil {
		return "", err
	}
	credBody, err := wire.DecodeCredentialBody(body)
	if err != nil {
		return "", fmt.Errorf("authenticator: decoding credential: %w", err)
	}
	return string(credBody.Credential), nil
}

// Credential asks the peer for a fresh credential using the caller's
// already-attested attributes, without redeeming a code.
func (c *Client) Credential(ctx context.Context) (string, error) {
	req := wire.Request{
		Header: wire.RequestHeader{
			RequestID:   c.nextRequestID(),
			Method:      wire.MethodPost,
			Path:        "/" + pathCredential,
			BodyPresent: false,
		},
	}
	_, body, err := c.roundTrip(ctx, req)
	if err != nil {
		return "", err
	}
	credBody, err := wire.DecodeCredentialBody(body)
	if err != nil {
		return "", fmt.Errorf("authenticator: decoding credential: %w", err)
	}
	return string(credBody.Credential), nil
}
