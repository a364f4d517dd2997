// Package credential builds and signs project-membership credentials:
// signed artifacts binding a subject Identity to a set of attribute claims
// under a fixed schema.
package credential

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ockam-network/direct-authenticator/identity"
)

// ProjectMemberSchema is the schema identifier stamped on every credential
// issued by this module.
const ProjectMemberSchema = 1

// reservedProjectIDAttr is the attribute name reserved for the issuer's
// ProjectId; callers must not (and cannot, since Issuer adds it itself)
// supply their own value for this name.
const reservedProjectIDAttr = "project_id"

// Signer is the external identity-subsystem collaborator that turns a
// claims payload into a signed artifact. Modeled on the teacher's
// server/signer.Signer contract, narrowed to the one method this module
// needs; key management and rotation remain the identity subsystem's
// concern.
type Signer interface {
	Sign(ctx context.Context, payload []byte) (string, error)
}

// Credential is the signed artifact returned to a member. Compact carries
// the opaque, wire-ready signed form (a JWS compact serialization); the
// remaining fields mirror what was signed, for convenience.
type Credential struct {
	Subject   identity.ID
	Attrs     map[string][]byte
	ProjectID []byte
	Schema    int
	Compact   string
}

// claims is the JSON payload signed by Signer. Attribute values and the
// project ID are base64-encoded since JSON cannot carry arbitrary bytes.
type claims struct {
	Schema    int               `json:"schema"`
	Subject   string            `json:"subject"`
	ProjectID string            `json:"project_id"`
	Attrs     map[string]string `json:"attrs"`
}

// Issuer mints Credentials scoped to a fixed ProjectId.
type Issuer struct {
	projectID []byte
	signer    Signer
}

// NewIssuer returns an Issuer that stamps projectID on every credential it
// issues, signing via signer.
func NewIssuer(projectID []byte, signer Signer) *Issuer {
	return &Issuer{projectID: projectID, signer: signer}
}

// Issue signs a credential binding subject to attrs plus the reserved
// project_id attribute and PROJECT_MEMBER_SCHEMA. A signing failure
// propagates to the caller, who is expected to surface it as
// InternalError.
func (iss *Issuer) Issue(ctx context.Context, subject identity.ID, attrs map[string][]byte) (Credential, error) {
	c := claims{
		Schema:    ProjectMemberSchema,
		Subject:   subject.String(),
		ProjectID: base64.StdEncoding.EncodeToString(iss.projectID),
		Attrs:     make(map[string]string, len(attrs)),
	}
	for name, value := range attrs {
		c.Attrs[name] = base64.StdEncoding.EncodeToString(value)
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return Credential{}, fmt.Errorf("credential: encoding claims: %w", err)
	}

	compact, err := iss.signer.Sign(ctx, payload)
	if err != nil {
		return Credential{}, fmt.Errorf("credential: signing: %w", err)
	}

	return Credential{
		Subject:   subject,
		Attrs:     attrs,
		ProjectID: iss.projectID,
		Schema:    ProjectMemberSchema,
		Compact:   compact,
	}, nil
}
