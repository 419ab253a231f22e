package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/domain"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// Decision is the outcome of evaluating a rule against a request.
type Decision int

const (
	// DecisionAllow lets the request proceed.
	DecisionAllow Decision = iota
	// DecisionUnauthorized means no valid identity was presented.
	DecisionUnauthorized
	// DecisionForbidden means the caller is authenticated but lacks authority.
	DecisionForbidden
)

// Requirement decides whether an identity satisfies a matched rule.
type Requirement interface {
	Evaluate(identity *domain.Identity, params map[string]string) Decision
}

// Rule binds a method and path pattern to a requirement. Patterns use
// fiber-style segments: ":name" captures one segment, a trailing "*"
// matches any remainder.
type Rule struct {
	Method  string
	Pattern string
	Require Requirement
}

type permitAll struct{}

func (permitAll) Evaluate(*domain.Identity, map[string]string) Decision {
	return DecisionAllow
}

// PermitAll admits every caller, anonymous included.
func PermitAll() Requirement { return permitAll{} }

type requireAuthenticated struct{}

func (requireAuthenticated) Evaluate(identity *domain.Identity, _ map[string]string) Decision {
	if identity == nil {
		return DecisionUnauthorized
	}
	return DecisionAllow
}

// RequireAuthenticated admits any authenticated caller.
func RequireAuthenticated() Requirement { return requireAuthenticated{} }

type requireAnyAuthority struct {
	roles []domain.Role
}

func (r requireAnyAuthority) Evaluate(identity *domain.Identity, _ map[string]string) Decision {
	if identity == nil {
		return DecisionUnauthorized
	}
	if identity.HasAnyAuthority(r.roles...) {
		return DecisionAllow
	}
	return DecisionForbidden
}

// RequireAnyAuthority admits callers holding at least one of the roles.
func RequireAnyAuthority(roles ...domain.Role) Requirement {
	return requireAnyAuthority{roles: roles}
}

type requireSelfOrAuthority struct {
	param    string
	elevated []domain.Role
}

func (r requireSelfOrAuthority) Evaluate(identity *domain.Identity, params map[string]string) Decision {
	if identity == nil {
		return DecisionUnauthorized
	}
	if identity.HasAnyAuthority(r.elevated...) {
		return DecisionAllow
	}
	// Exact string match between path subject and authenticated subject.
	if params[r.param] == identity.Subject {
		return DecisionAllow
	}
	return DecisionForbidden
}

// RequireSelfOrAuthority admits elevated callers unconditionally and other
// callers only when the named path parameter equals their own subject.
func RequireSelfOrAuthority(param string, elevated ...domain.Role) Requirement {
	return requireSelfOrAuthority{param: param, elevated: elevated}
}

// Policy is an ordered rule table evaluated first match wins. Requests that
// match no rule require authentication.
type Policy struct {
	rules []Rule
}

// NewPolicy builds a policy from an ordered rule list.
func NewPolicy(rules []Rule) *Policy {
	return &Policy{rules: rules}
}

// Evaluate resolves the decision for a method/path against the identity.
func (p *Policy) Evaluate(method, path string, identity *domain.Identity) Decision {
	for _, rule := range p.rules {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		params, ok := matchPath(rule.Pattern, path)
		if !ok {
			continue
		}
		return rule.Require.Evaluate(identity, params)
	}
	if identity == nil {
		return DecisionUnauthorized
	}
	return DecisionAllow
}

// Middleware enforces the policy against the identity bound by the
// request authenticator.
func (p *Policy) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, _ := IdentityFromContext(c)
		switch p.Evaluate(c.Method(), c.Path(), identity) {
		case DecisionAllow:
			return c.Next()
		case DecisionForbidden:
			return apperrors.NewForbidden("insufficient authority")
		default:
			return apperrors.NewUnauthorized("authentication required")
		}
	}
}

// DefaultRules is the service's authorization table. Order matters: the
// first matching rule decides, and "/api/users/mem" must precede the
// ":username" patterns.
func DefaultRules() []Rule {
	return []Rule{
		{Method: "POST", Pattern: LoginPath, Require: PermitAll()},
		{Method: "GET", Pattern: "/health/*", Require: PermitAll()},
		{Method: "GET", Pattern: "/api/users", Require: PermitAll()},
		{Method: "POST", Pattern: "/api/users", Require: PermitAll()},
		{Method: "GET", Pattern: "/api/users/mem", Require: RequireAnyAuthority(domain.RoleUser, domain.RoleMod, domain.RoleAdmin)},
		{Method: "GET", Pattern: "/api/users/:username", Require: RequireSelfOrAuthority("username", domain.RoleMod, domain.RoleAdmin)},
		{Method: "PUT", Pattern: "/api/users/:username", Require: RequireSelfOrAuthority("username", domain.RoleMod, domain.RoleAdmin)},
		{Method: "POST", Pattern: "/api/users/:username/enable", Require: RequireAnyAuthority(domain.RoleMod, domain.RoleAdmin)},
		{Method: "DELETE", Pattern: "/api/users/:username", Require: RequireAnyAuthority(domain.RoleMod, domain.RoleAdmin)},
	}
}

func matchPath(pattern, path string) (map[string]string, bool) {
	if pattern == path {
		return nil, true
	}

	patternSegs := splitPath(pattern)
	pathSegs := splitPath(path)

	var params map[string]string
	for i, seg := range patternSegs {
		if seg == "*" && i == len(patternSegs)-1 {
			return params, true
		}
		if i >= len(pathSegs) {
			return nil, false
		}
		switch {
		case strings.HasPrefix(seg, ":"):
			if params == nil {
				params = make(map[string]string)
			}
			params[seg[1:]] = pathSegs[i]
		case seg != pathSegs[i]:
			return nil, false
		}
	}
	if len(pathSegs) != len(patternSegs) {
		return nil, false
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
