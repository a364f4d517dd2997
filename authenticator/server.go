// Package authenticator implements the project-scoped direct-authenticator
// protocol: enrollers mint one-time enrollment codes, new members redeem
// them (or present an already-attested identity), and admitted members
// receive signed project-membership credentials.
package authenticator

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ockam-network/direct-authenticator/attrstore"
	"github.com/ockam-network/direct-authenticator/credential"
	"github.com/ockam-network/direct-authenticator/enroller"
	"github.com/ockam-network/direct-authenticator/identity"
	"github.com/ockam-network/direct-authenticator/log"
	"github.com/ockam-network/direct-authenticator/tokencache"
	"github.com/ockam-network/direct-authenticator/wire"
)

const (
	pathTokens     = "tokens"
	pathMembers    = "members"
	pathCredential = "credential"
)

// Config bundles the collaborators and policy a Server is built from.
// Issuer, Store, and Directory are required; the rest have safe defaults.
type Config struct {
	Store     attrstore.Store
	Directory *enroller.Directory
	Issuer    *credential.Issuer
	Tokens    *tokencache.Cache

	// Legacy, if non-nil, is migrated into Store once at construction
	// time. A migration failure aborts NewServer entirely: the server
	// must never start against a half-migrated store.
	Legacy attrstore.LegacyStore

	Now     func() time.Time
	Logger  *slog.Logger
	Metrics *Metrics
}

// Server is the single-threaded protocol state machine described by
// spec §4.F. It has no internal goroutines; callers are expected to drive
// Handle from their own cooperative worker loop, one message at a time.
type Server struct {
	store     attrstore.Store
	directory *enroller.Directory
	issuer    *credential.Issuer
	tokens    *tokencache.Cache

	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics
}

// NewServer constructs a Server, migrating cfg.Legacy into cfg.Store first
// if one was supplied. A migration failure is returned wrapped; the caller
// must not proceed to serve requests against cfg.Store in that case.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = tokencache.New()
	}

	if cfg.Legacy != nil {
		pending, keysErr := cfg.Legacy.Keys(ctx)
		migratedAt := now()
		if err := attrstore.MigrateLegacy(ctx, cfg.Store, cfg.Legacy, migratedAt); err != nil {
			return nil, fmt.Errorf("authenticator: legacy migration aborted construction: %w", err)
		}
		if keysErr == nil {
			cfg.Metrics.addMigrations(len(pending))
		}
	}

	return &Server{
		store:     cfg.Store,
		directory: cfg.Directory,
		issuer:    cfg.Issuer,
		tokens:    tokens,
		now:       now,
		logger:    logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Handle dispatches a single InboundMessage and returns the encoded
// response frame. It never panics and never returns an error: every
// outcome, including internal failures, is reported as an encoded
// response, mirroring the teacher's handler style of writing outcomes
// directly rather than propagating Go errors to a transport layer.
func (s *Server) Handle(ctx context.Context, msg InboundMessage) []byte {
	if msg.Peer == nil {
		return s.forbidden(0, "unknown", "secure channel required")
	}
	peer := *msg.Peer
	ctx = log.WithPeer(ctx, peer.String())

	header, body, err := wire.DecodeRequestHeader(msg.Frame)
	if err != nil {
		s.logger.WarnContext(ctx, "malformed request frame", "error", err)
		return s.badRequest(0, "unknown", "malformed request")
	}
	ctx = log.WithRequestID(ctx, header.RequestID)

	route, ok := routeOf(header.Path)
	if !ok {
		return s.notFound(header.RequestID, header.Path)
	}
	if header.Method != wire.MethodPost {
		return s.methodNotAllowed(header.RequestID, route)
	}

	switch route {
	case pathTokens:
		return s.handleCreateToken(ctx, header, body, peer)
	case pathMembers:
		return s.handleAddMember(ctx, header, body, peer)
	case pathCredential:
		return s.handleCredential(ctx, header, body, peer)
	default:
		return s.notFound(header.RequestID, header.Path)
	}
}

// routeOf isolates the first path segment, the only one any endpoint
// currently uses to dispatch.
func routeOf(path string) (string, bool) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "", false
	}
	segment := trimmed
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		segment = trimmed[:i]
	}
	switch segment {
	case pathTokens, pathMembers, pathCredential:
		return segment, true
	default:
		return "", false
	}
}

func (s *Server) handleCreateToken(ctx context.Context, header wire.RequestHeader, body []byte, peer identity.ID) []byte {
	if err := s.directory.ReloadIfConfigured(); err != nil {
		s.logger.ErrorContext(ctx, "reloading enroller directory", "error", err)
		return s.internalError(header.RequestID, pathTokens)
	}
	if !s.directory.Contains(peer) {
		return s.forbidden(header.RequestID, pathTokens, "unauthorized enroller")
	}

	reqBody, err := wire.DecodeCreateTokenBody(body)
	if err != nil {
		return s.badRequest(header.RequestID, pathTokens, "malformed create-token body")
	}

	var code wire.Code
	if _, err := rand.Read(code[:]); err != nil {
		s.logger.ErrorContext(ctx, "generating one-time code", "error", err)
		return s.internalError(header.RequestID, pathTokens)
	}

	s.tokens.Insert(code, tokencache.Token{
		Attrs:       reqBody.Attrs,
		GeneratedBy: peer,
		CreatedAt:   s.now(),
	})

	s.logger.InfoContext(ctx, "minted enrollment token")
	return s.ok(header.RequestID, pathTokens, &wire.Response{Code: &code})
}

func (s *Server) handleAddMember(ctx context.Context, header wire.RequestHeader, body []byte, peer identity.ID) []byte {
	if err := s.directory.ReloadIfConfigured(); err != nil {
		s.logger.ErrorContext(ctx, "reloading enroller directory", "error", err)
		return s.internalError(header.RequestID, pathMembers)
	}
	if !s.directory.Contains(peer) {
		return s.forbidden(header.RequestID, pathMembers, "unauthorized enroller")
	}

	reqBody, err := wire.DecodeAddMemberBody(body)
	if err != nil {
		return s.badRequest(header.RequestID, pathMembers, "malformed add-member body")
	}

	memberID := identity.FromBytes(reqBody.MemberID)
	entry := attrstore.AttributesEntry{
		Attrs:      reqBody.Attrs,
		CreatedAt:  s.now(),
		AttestedBy: &peer,
	}
	if err := s.store.Put(ctx, memberID, entry); err != nil {
		s.logger.ErrorContext(ctx, "storing attested member", "error", err)
		return s.internalError(header.RequestID, pathMembers)
	}

	s.logger.InfoContext(ctx, "admitted member", "member", memberID.String())
	return s.ok(header.RequestID, pathMembers, &wire.Response{})
}

func (s *Server) handleCredential(ctx context.Context, header wire.RequestHeader, body []byte, peer identity.ID) []byte {
	if !header.BodyPresent || len(body) == 0 {
		return s.credentialForAttestedMember(ctx, header, peer)
	}
	return s.credentialFromToken(ctx, header, body, peer)
}

// credentialFromToken redeems a one-time code. The credential is issued
// over the token's own attribute set, not whatever is subsequently written
// to the store: a concurrent writer racing this request must not be able
// to alter what gets signed for this redemption.
func (s *Server) credentialFromToken(ctx context.Context, header wire.RequestHeader, body []byte, peer identity.ID) []byte {
	code, err := wire.DecodeCode(body)
	if err != nil {
		return s.badRequest(header.RequestID, pathCredential, "malformed one-time code")
	}

	token, ok := s.tokens.Take(code)
	if !ok {
		return s.forbidden(header.RequestID, pathCredential, "unknown token")
	}
	if tokencache.Expired(token, s.now()) {
		return s.forbidden(header.RequestID, pathCredential, "expired token")
	}

	entry := attrstore.AttributesEntry{
		Attrs:      token.Attrs,
		CreatedAt:  s.now(),
		AttestedBy: &token.GeneratedBy,
	}
	if err := s.store.Put(ctx, peer, entry); err != nil {
		s.logger.ErrorContext(ctx, "storing member admitted via token", "error", err)
		return s.internalError(header.RequestID, pathCredential)
	}

	cred, err := s.issuer.Issue(ctx, peer, token.Attrs)
	if err != nil {
		s.logger.ErrorContext(ctx, "issuing credential", "error", err)
		return s.internalError(header.RequestID, pathCredential)
	}

	s.logger.InfoContext(ctx, "issued credential via token redemption")
	return s.ok(header.RequestID, pathCredential, &wire.Response{
		Credential: &wire.CredentialBody{Credential: []byte(cred.Compact)},
	})
}

func (s *Server) credentialForAttestedMember(ctx context.Context, header wire.RequestHeader, peer identity.ID) []byte {
	entry, ok, err := s.store.Get(ctx, peer)
	if err != nil {
		s.logger.ErrorContext(ctx, "looking up member attributes", "error", err)
		return s.internalError(header.RequestID, pathCredential)
	}
	if !ok {
		return s.forbidden(header.RequestID, pathCredential, "unauthorized member")
	}

	cred, err := s.issuer.Issue(ctx, peer, entry.Attrs)
	if err != nil {
		s.logger.ErrorContext(ctx, "issuing credential", "error", err)
		return s.internalError(header.RequestID, pathCredential)
	}

	s.logger.InfoContext(ctx, "issued credential for attested member")
	return s.ok(header.RequestID, pathCredential, &wire.Response{
		Credential: &wire.CredentialBody{Credential: []byte(cred.Compact)},
	})
}

// --- response helpers ---

func (s *Server) ok(requestID uint64, path string, resp *wire.Response) []byte {
	resp.Header = wire.ResponseHeader{
		RequestID:   requestID,
		Status:      wire.StatusOK,
		BodyPresent: resp.Code != nil || resp.Credential != nil,
	}
	s.metrics.observeRequest(path, "OK")
	return wire.EncodeResponse(*resp)
}

func (s *Server) errorResponse(requestID uint64, path string, status wire.Status, message string) []byte {
	s.metrics.observeRequest(path, status.String())
	return wire.EncodeResponse(wire.Response{
		Header: wire.ResponseHeader{
			RequestID:   requestID,
			Status:      status,
			BodyPresent: true,
		},
		Error: &wire.ErrorBody{Message: message},
	})
}

func (s *Server) badRequest(requestID uint64, path, message string) []byte {
	return s.errorResponse(requestID, path, wire.StatusBadRequest, message)
}

func (s *Server) forbidden(requestID uint64, path, message string) []byte {
	return s.errorResponse(requestID, path, wire.StatusForbidden, message)
}

func (s *Server) notFound(requestID uint64, path string) []byte {
	return s.errorResponse(requestID, path, wire.StatusNotFound, "no such endpoint")
}

func (s *Server) methodNotAllowed(requestID uint64, path string) []byte {
	return s.errorResponse(requestID, path, wire.StatusMethodNotAllowed, "method not allowed")
}

func (s *Server) internalError(requestID uint64, path string) []byte {
	return s.errorResponse(requestID, path, wire.StatusInternalError, "internal error")
}

// TokenCount reports the number of currently live, unredeemed tokens.
// Exposed for wiring into Metrics' live-token gauge.
func (s *Server) TokenCount() int {
	return s.tokens.Len()
}
