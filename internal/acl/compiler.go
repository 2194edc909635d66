package acl

import (
	"regexp"
	"strings"
)

// matchNothing is the fallback route matcher. It matches the probe path
// of the bare root ("" + "/") and nothing else, so a rule compiled from
// a record without a usable route stays inert.
const matchNothing = `^/$`

// Compiler turns raw access-control records into compiled rules. It
// never fails: every malformed field falls back to a safe default so a
// single bad record cannot take the rule set down with it.
type Compiler struct{}

// NewCompiler creates a new rule compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile compiles raw records into rules, preserving input order.
// Evaluation is order-sensitive, so callers must not reorder the result.
func (c *Compiler) Compile(raw []RawRule) []Rule {
	out := make([]Rule, 0, len(raw))
	for _, r := range raw {
		out = append(out, c.compile(r))
	}
	return out
}

// compile normalizes a single record field by field.
func (c *Compiler) compile(raw RawRule) Rule {
	return Rule{
		method: compileMethod(raw.Method),
		route:  compileRoute(raw.Route),
		invert: !compileMatch(raw.Match),
		roles:  compileRoles(raw.UserRoles),
		deny:   compileMode(raw.Allow) == ModeDeny,
		raw:    raw,
	}
}

// compileMethod folds the blank and "*" spellings into the wildcard.
func compileMethod(v string) string {
	m := strings.TrimSpace(v)
	if m == "" || m == "*" {
		return MethodAny
	}
	return m
}

// compileRoute anchors the route at the path start and requires the
// match to end on a segment boundary. Both the pattern and the probed
// path carry a trailing slash, so "/api/posts" covers "/api/posts" and
// "/api/posts/7" but not "/api/postscript".
func compileRoute(v string) *regexp.Regexp {
	route := strings.TrimSpace(v)
	if route == "" {
		return regexp.MustCompile(matchNothing)
	}
	pattern := "^" + strings.ReplaceAll(route, "/", `\/`)
	if !strings.HasSuffix(route, "/") {
		// The boundary separator is only appended when the route does
		// not already end on one, so "/" covers every path.
		pattern += `\/`
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		// Records are free-form text; an unbalanced regex construct in
		// the route must not poison the whole set.
		return regexp.MustCompile(matchNothing)
	}
	return re
}

// compileMatch parses the route-test polarity. Blank means true.
func compileMatch(v string) bool {
	m := strings.ToLower(strings.TrimSpace(v))
	return m == "" || m == "true"
}

// compileMode parses the rule mode. Anything but "allow" denies.
func compileMode(v string) string {
	if strings.ToLower(strings.TrimSpace(v)) == ModeAllow {
		return ModeAllow
	}
	return ModeDeny
}

// compileRoles splits the comma-separated role list, trimming entries
// and dropping empties. A blank list defaults to the visitor role; a
// list that trims away entirely yields the empty set, which no request
// can ever satisfy.
func compileRoles(v string) map[string]struct{} {
	if strings.TrimSpace(v) == "" {
		return map[string]struct{}{RoleVisitor: {}}
	}
	roles := make(map[string]struct{})
	for _, role := range strings.Split(v, ",") {
		if role = strings.TrimSpace(role); role != "" {
			roles[role] = struct{}{}
		}
	}
	return roles
}
