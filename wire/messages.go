package wire

import "fmt"

// CodeSize is the fixed length of a serialized OneTimeCode.
const CodeSize = 32

// Code is a 32-byte one-time enrollment code as it appears on the wire.
type Code [CodeSize]byte

// Tags for CreateTokenBody.
const tagCreateTokenAttrs = 1

// CreateTokenBody is the request body for POST /tokens.
type CreateTokenBody struct {
	Attrs map[string][]byte
}

func (b CreateTokenBody) encode() []byte {
	w := newWriter()
	w.field(tagCreateTokenAttrs, encodeAttrs(b.Attrs))
	return w.bytes()
}

func decodeCreateTokenBody(data []byte) (CreateTokenBody, error) {
	fields, err := readFields(data)
	if err != nil {
		return CreateTokenBody{}, err
	}
	m := fieldMap(fields)
	attrs, err := decodeAttrs(m[tagCreateTokenAttrs])
	if err != nil {
		return CreateTokenBody{}, fmt.Errorf("wire: create-token attrs: %w", err)
	}
	return CreateTokenBody{Attrs: attrs}, nil
}

// Tags for AddMemberBody.
const (
	tagAddMemberID    = 1
	tagAddMemberAttrs = 2
)

// AddMemberBody is the request body for POST /members.
type AddMemberBody struct {
	MemberID []byte
	Attrs    map[string][]byte
}

func (b AddMemberBody) encode() []byte {
	w := newWriter()
	w.field(tagAddMemberID, b.MemberID)
	w.field(tagAddMemberAttrs, encodeAttrs(b.Attrs))
	return w.bytes()
}

func decodeAddMemberBody(data []byte) (AddMemberBody, error) {
	fields, err := readFields(data)
	if err != nil {
		return AddMemberBody{}, err
	}
	m := fieldMap(fields)
	attrs, err := decodeAttrs(m[tagAddMemberAttrs])
	if err != nil {
		return AddMemberBody{}, fmt.Errorf("wire: add-member attrs: %w", err)
	}
	return AddMemberBody{MemberID: m[tagAddMemberID], Attrs: attrs}, nil
}

// Tags for ErrorBody.
const tagErrorMessage = 1

// ErrorBody is the response body carried alongside any non-OK status.
type ErrorBody struct {
	Message string
}

func (b ErrorBody) encode() []byte {
	w := newWriter()
	w.stringField(tagErrorMessage, b.Message)
	return w.bytes()
}

func decodeErrorBody(data []byte) (ErrorBody, error) {
	fields, err := readFields(data)
	if err != nil {
		return ErrorBody{}, err
	}
	return ErrorBody{Message: string(fieldMap(fields)[tagErrorMessage])}, nil
}

// Tags for CredentialBody.
const tagCredentialBytes = 1

// CredentialBody is the response body for a successful POST /credential.
type CredentialBody struct {
	Credential []byte
}

func (b CredentialBody) encode() []byte {
	w := newWriter()
	w.field(tagCredentialBytes, b.Credential)
	return w.bytes()
}

func decodeCredentialBody(data []byte) (CredentialBody, error) {
	fields, err := readFields(data)
	if err != nil {
		return CredentialBody{}, err
	}
	return CredentialBody{Credential: fieldMap(fields)[tagCredentialBytes]}, nil
}

// --- Full request/response frames ---

// Request is a fully decoded request frame: a header plus an optional,
// endpoint-specific body. Exactly one of the body fields (CreateToken,
// AddMember, Code) is non-nil when
// BodyPresent is true; which one is valid is determined by Method+Path, the
// same way the server dispatches endpoints.
type Request struct {
	Header RequestHeader

	CreateToken *CreateTokenBody
	AddMember   *AddMemberBody
	Code        *Code
}

// EncodeRequest serializes req per §4.A. The caller is responsible for
// setting exactly one body field consistent with Header.BodyPresent.
func EncodeRequest(req Request) []byte {
	header := encodeRequestHeader(req.Header)
	var body []byte
	switch {
	case req.CreateToken != nil:
		body = req.CreateToken.encode()
	case req.AddMember != nil:
		body = req.AddMember.encode()
	case req.Code != nil:
		body = req.Code[:]
	}
	return withFramePrefix(header, body)
}

// DecodeRequestHeader decodes only the header, leaving the caller to decode
// the body (whose shape depends on Method+Path) via DecodeCreateTokenBody,
// DecodeAddMemberBody, or DecodeCode.
func DecodeRequestHeader(frame []byte) (RequestHeader, []byte, error) {
	headerBytes, body, err := splitFramePrefix(frame)
	if err != nil {
		return RequestHeader{}, nil, err
	}
	h, err := decodeRequestHeader(headerBytes)
	if err != nil {
		return RequestHeader{}, nil, err
	}
	return h, body, nil
}

// DecodeCreateTokenBody decodes the body of a POST /tokens request.
func DecodeCreateTokenBody(body []byte) (CreateTokenBody, error) {
	return decodeCreateTokenBody(body)
}

// DecodeAddMemberBody decodes the body of a POST /members request.
func DecodeAddMemberBody(body []byte) (AddMemberBody, error) {
	return decodeAddMemberBody(body)
}

// DecodeCode decodes a raw OneTimeCode request/response body.
func DecodeCode(body []byte) (Code, error) {
	var c Code
	if len(body) != CodeSize {
		return c, fmt.Errorf("wire: one-time code must be %d bytes, got %d", CodeSize, len(body))
	}
	copy(c[:], body)
	return c, nil
}

// Response is a fully decoded response frame.
type Response struct {
	Header ResponseHeader

	Code       *Code
	Credential *CredentialBody
	Error      *ErrorBody
}

// EncodeResponse serializes resp per §4.A.
func EncodeResponse(resp Response) []byte {
	header := encodeResponseHeader(resp.Header)
	var body []byte
	switch {
	case resp.Code != nil:
		body = resp.Code[:]
	case resp.Credential != nil:
		body = resp.Credential.encode()
	case resp.Error != nil:
		body = resp.Error.encode()
	}
	return withFramePrefix(header, body)
}

// DecodeResponseHeader decodes only the header, mirroring DecodeRequestHeader.
func DecodeResponseHeader(frame []byte) (ResponseHeader, []byte, error) {
	headerBytes, body, err := splitFramePrefix(frame)
	if err != nil {
		return ResponseHeader{}, nil, err
	}
	h, err := decodeResponseHeader(headerBytes)
	if err != nil {
		return ResponseHeader{}, nil, err
	}
	return h, body, nil
}

// DecodeErrorBody decodes an Error{message} response body.
func DecodeErrorBody(body []byte) (ErrorBody, error) {
	return decodeErrorBody(body)
}

// DecodeCredentialBody decodes a Credential response body.
func DecodeCredentialBody(body []byte) (CredentialBody, error) {
	return decodeCredentialBody(body)
}
