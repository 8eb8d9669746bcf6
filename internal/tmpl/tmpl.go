// Package tmpl renders the Liquid templates used for automatic replies
// and the PDF footer.
package tmpl

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// Engine parses each named template once and renders it on demand.
type Engine struct {
	engine *liquid.Engine
	cache  sync.Map // name -> *liquid.Template
}

// New returns an Engine with the package's filters registered.
func New() *Engine {
	e := &Engine{engine: liquid.NewEngine()}

	// {{ text | oneline }} collapses whitespace so a value is safe in a
	// header such as Subject.
	e.engine.RegisterFilter("oneline", func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	})

	return e
}

// Render renders src under name with bindings. The parsed template is
// cached by name.
func (e *Engine) Render(name, src string, bindings map[string]interface{}) (string, error) {
	var tpl *liquid.Template
	if cached, ok := e.cache.Load(name); ok {
		tpl = cached.(*liquid.Template)
	} else {
		parsed, err := e.engine.ParseString(src)
		if err != nil {
			return "", fmt.Errorf("parsing template %s: %w", name, err)
		}
		e.cache.Store(name, parsed)
		tpl = parsed
	}

	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return out, nil
}
