// fastview implements a builder pattern for simple server-side views:
// given an input data model, convert it to a view-model, and then multiplex
// that view-model to one or more views which emit element updates for the client.
package fastview

import (
	"html/template"
)

// EleUpdate is an element identifier and a set of operations to apply to its attributes/content.
type EleUpdate struct {
	// The id by which to find the element
	EleId string
	// Op keys are attribute keys or 'textContent', values are the strings to which these are set.
	// Example: ('fill','red') means 'set attribute fill to red'. 'textContent' is a reserved key:
	// ('textContent','abc') means 'set ele.textContent to abc'.
	Ops []Op
}

// Op is a key and value. For example an html attribute and its new value.
type Op struct {
	Key   string
	Value string
}

// ViewComponent implements a server side view: Parse to add its initial form
// to a parent template and Updates to obtain the chan by which ele-updates are notified.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse adds the view-component's template definition to the passed parent template,
	// inheriting its func-map, and returns the name of the defined template.
	Parse(*template.Template) (string, error)
}
