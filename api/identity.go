package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Identity source names accepted by NewIdentitySource.
const (
	IdentitySourceHeader     = "header"
	IdentitySourceGatewayJWT = "gateway-jwt"
)

// DefaultIdentityHeader is set by the authenticating proxy in front of the
// service.
const DefaultIdentityHeader = "X-Authenticated-Email"

// gatewayIdentityClaim is the claim the upstream authorizer puts the
// verified user id in.
const gatewayIdentityClaim = "email"

// IdentitySource extracts the already verified identity claim from a
// request. An empty result means no claim was present.
type IdentitySource interface {
	Identity(r *http.Request) string
}

// HeaderIdentity reads the identity from a header set by a trusted proxy.
type HeaderIdentity struct {
	Header string
}

func (h HeaderIdentity) Identity(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(h.Header))
}

// GatewayJWTIdentity reads the identity from the bearer token forwarded by
// an API gateway authorizer. The gateway has verified the signature before
// the request reaches us, so the token is only decoded here.
type GatewayJWTIdentity struct {
	Claim  string
	parser *jwt.Parser
}

func NewGatewayJWTIdentity(claim string) *GatewayJWTIdentity {
	if claim == "" {
		claim = gatewayIdentityClaim
	}
	return &GatewayJWTIdentity{Claim: claim, parser: jwt.NewParser()}
}

func (g *GatewayJWTIdentity) Identity(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}

	claims := jwt.MapClaims{}
	if _, _, err := g.parser.ParseUnverified(strings.TrimSpace(auth[len(prefix):]), claims); err != nil {
		return ""
	}
	value, _ := claims[g.Claim].(string)
	return strings.TrimSpace(value)
}

// NewIdentitySource builds the source named by kind.
func NewIdentitySource(kind, header string) (IdentitySource, error) {
	switch kind {
	case "", IdentitySourceHeader:
		if header == "" {
			header = DefaultIdentityHeader
		}
		return HeaderIdentity{Header: header}, nil
	case IdentitySourceGatewayJWT:
		return NewGatewayJWTIdentity(gatewayIdentityClaim), nil
	default:
		return nil, fmt.Errorf("unknown identity source %q", kind)
	}
}
