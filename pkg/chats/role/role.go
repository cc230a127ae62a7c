// Package role names who produced a turn.
package role

import "strings"

// Role identifies the producer of a conversation turn.
type Role string

// Turn producers. Tool turns carry exactly one tool result.
const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
	Tool      Role = "tool"
)

var known = []Role{System, User, Assistant, Tool}

// Parse maps s to a known role, ignoring case and surrounding space.
func Parse(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range known {
		if r == k {
			return r, true
		}
	}
	return "", false
}

// Tag renders the role as a bracketed prefix for transcripts.
func (r Role) Tag() string {
	if r == "" {
		return "[?]"
	}
	return "[" + string(r) + "]"
}

func (r Role) String() string {
	return string(r)
}
