package runtime

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Expr is one segment of a parsed parameter value. A raw string is parsed
// into an ordered list of segments which are resolved and concatenated.
type Expr interface {
	raw() string
}

// Literal is plain text, passed through unchanged.
type Literal struct {
	Text string
}

// VariableRef references a field stored by an earlier operation,
// written as $operation.field.
type VariableRef struct {
	Op    string
	Field string
}

// HostFunc is an engine-evaluated function, written as $(name).
// Only allowlisted pure functions exist; nothing is ever handed to a shell.
type HostFunc struct {
	Name string
}

func (l Literal) raw() string     { return l.Text }
func (v VariableRef) raw() string { return "$" + v.Op + "." + v.Field }
func (h HostFunc) raw() string    { return "$(" + h.Name + ")" }

// hostFuncs is the fixed allowlist of engine-evaluated functions.
var hostFuncs = map[string]func() string{
	"uuid": func() string {
		return uuid.NewString()
	},
	"timestamp": func() string {
		return strconv.FormatInt(time.Now().Unix(), 10)
	},
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
}

func isIdentStart(r byte) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdent(r byte) bool {
	return isIdentStart(r) || r == '-' || (r >= '0' && r <= '9')
}

// Parse tokenizes a raw string into segments. The grammar is fixed:
// identifier, dot, identifier for references, $(name) for host functions.
// A '$' that starts neither form stays literal text. Parsing is a single
// left-to-right pass; resolved values are never re-scanned, so references
// cannot nest or chain.
func Parse(raw string) []Expr {
	var segments []Expr
	var literal strings.Builder

	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, Literal{Text: literal.String()})
			literal.Reset()
		}
	}

	i := 0
	for i < len(raw) {
		if raw[i] != '$' {
			literal.WriteByte(raw[i])
			i++
			continue
		}

		// $(name)
		if i+1 < len(raw) && raw[i+1] == '(' {
			end := strings.IndexByte(raw[i+2:], ')')
			if end >= 0 {
				name := raw[i+2 : i+2+end]
				flush()
				segments = append(segments, HostFunc{Name: name})
				i += end + 3
				continue
			}
		}

		// $op.field
		if i+1 < len(raw) && isIdentStart(raw[i+1]) {
			j := i + 1
			for j < len(raw) && isIdent(raw[j]) {
				j++
			}
			if j < len(raw) && raw[j] == '.' && j+1 < len(raw) && isIdentStart(raw[j+1]) {
				k := j + 1
				for k < len(raw) && isIdent(raw[k]) {
					k++
				}
				flush()
				segments = append(segments, VariableRef{Op: raw[i+1 : j], Field: raw[j+1 : k]})
				i = k
				continue
			}
		}

		literal.WriteByte('$')
		i++
	}
	flush()

	return segments
}

// Resolver substitutes references and host functions inside parameter
// values using the run's OutputStore. Resolution is best-effort: an
// unresolved reference keeps its literal text and produces a warning,
// never an error.
type Resolver struct {
	store *OutputStore
	funcs map[string]func() string
}

func NewResolver(store *OutputStore) *Resolver {
	return &Resolver{
		store: store,
		funcs: hostFuncs,
	}
}

// Resolve substitutes every reference embedded in value. Strings are
// tokenized and substituted segment by segment; arrays and objects are
// walked element-wise, each element resolved independently with the same
// rules (a miss in one element does not stop the remaining elements).
// Other scalar types pass through unchanged.
func (r *Resolver) Resolve(param string, value any) (any, []SubstitutionWarning) {
	switch v := value.(type) {
	case string:
		return r.resolveString(param, v)
	case []any:
		resolved := make([]any, len(v))
		var warnings []SubstitutionWarning
		for i, elem := range v {
			rv, w := r.Resolve(param, elem)
			resolved[i] = rv
			warnings = append(warnings, w...)
		}
		return resolved, warnings
	case map[string]any:
		resolved := make(map[string]any, len(v))
		var warnings []SubstitutionWarning
		for k, elem := range v {
			rv, w := r.Resolve(param+"."+k, elem)
			resolved[k] = rv
			warnings = append(warnings, w...)
		}
		return resolved, warnings
	default:
		return value, nil
	}
}

// ResolveAll resolves a whole parameter map, preserving unresolved
// references as literals. The returned map never aliases the input.
func (r *Resolver) ResolveAll(params map[string]any) (map[string]any, []SubstitutionWarning) {
	resolved := make(map[string]any, len(params))
	var warnings []SubstitutionWarning
	for k, v := range params {
		rv, w := r.Resolve(k, v)
		resolved[k] = rv
		warnings = append(warnings, w...)
	}
	return resolved, warnings
}

func (r *Resolver) resolveString(param, raw string) (string, []SubstitutionWarning) {
	segments := Parse(raw)
	if len(segments) == 1 {
		if _, ok := segments[0].(Literal); ok {
			return raw, nil
		}
	}

	var out strings.Builder
	var warnings []SubstitutionWarning
	for _, seg := range segments {
		switch s := seg.(type) {
		case Literal:
			out.WriteString(s.Text)
		case VariableRef:
			v, ok := r.store.Get(s.Op, s.Field)
			if !ok {
				warnings = append(warnings, SubstitutionWarning{Parameter: param, Reference: s.raw()})
				out.WriteString(s.raw())
				continue
			}
			out.WriteString(v)
		case HostFunc:
			fn, ok := r.funcs[s.Name]
			if !ok {
				warnings = append(warnings, SubstitutionWarning{Parameter: param, Reference: s.raw()})
				out.WriteString(s.raw())
				continue
			}
			out.WriteString(fn())
		}
	}
	return out.String(), warnings
}
