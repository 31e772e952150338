package placeholder

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/spock/pkg/domain/model"
)

// placeholderPattern matches `{{ key.path }}` and `{key.path}`. A single-brace
// match with a leading `$` is shell parameter expansion and is kept verbatim.
// `\{` renders as a literal `{`, e.g. `awk '\{print}'`.
var placeholderPattern = regexp.MustCompile(
	`\\\{` +
		`|\{\{\s*([A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z0-9_-]+)*)\s*\}\}` +
		`|\$?\{([A-Za-z_][A-Za-z0-9_-]*(?:\.[A-Za-z0-9_-]+)*)\}`,
)

// Renderer substitutes event context values into command templates
type Renderer struct {
	shellEscape bool
}

// Option configures Renderer
type Option func(*Renderer)

// WithShellEscape quotes every substituted value for POSIX shells
func WithShellEscape(enabled bool) Option {
	return func(r *Renderer) {
		r.shellEscape = enabled
	}
}

// New creates a new Renderer
func New(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render resolves every placeholder of each template in order. A placeholder
// whose key is missing from the context fails with
// model.ErrUnresolvedPlaceholder, except for optional root keys such as
// committer, which render as an empty string when absent.
func (r *Renderer) Render(templates []string, ectx *model.EventContext) ([]string, error) {
	rendered := make([]string, 0, len(templates))

	for i, tmpl := range templates {
		out, err := r.renderOne(tmpl, ectx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to render command template",
				goerr.V("index", i),
				goerr.V("template", tmpl),
			)
		}
		rendered = append(rendered, out)
	}

	return rendered, nil
}

func (r *Renderer) renderOne(tmpl string, ectx *model.EventContext) (string, error) {
	var (
		sb   strings.Builder
		last int
	)

	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(tmpl, -1) {
		sb.WriteString(tmpl[last:m[0]])
		last = m[1]

		var key string
		switch {
		case tmpl[m[0]] == '\\':
			sb.WriteByte('{')
			continue
		case m[2] >= 0:
			key = tmpl[m[2]:m[3]]
		case tmpl[m[0]] == '$':
			sb.WriteString(tmpl[m[0]:m[1]])
			continue
		default:
			key = tmpl[m[4]:m[5]]
		}

		value, err := r.resolve(key, ectx)
		if err != nil {
			return "", err
		}
		sb.WriteString(value)
	}
	sb.WriteString(tmpl[last:])

	return sb.String(), nil
}

func (r *Renderer) resolve(key string, ectx *model.EventContext) (string, error) {
	v, ok := ectx.Lookup(key)
	if !ok {
		root, _, _ := strings.Cut(key, ".")
		if model.IsOptionalContextKey(root) && !ectx.Has(root) {
			return r.quote(""), nil
		}
		return "", goerr.Wrap(model.ErrUnresolvedPlaceholder, "key not found in event context", goerr.V("key", key))
	}

	return r.quote(FormatValue(v)), nil
}

func (r *Renderer) quote(s string) string {
	if !r.shellEscape {
		return s
	}
	return ShellQuote(s)
}

// FormatValue converts a context value to its canonical textual form.
// Structured values become JSON with sorted keys.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

// ShellQuote wraps s in single quotes so a POSIX shell treats it as one word
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
