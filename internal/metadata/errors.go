package metadata

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// SchemaError reports an invalid resource declaration.
type SchemaError struct {
	Resource string
	Field    string
	Message  string
	Pos      token.Pos // CUE position, when the schema came from CUE
}

func (e *SchemaError) Error() string {
	where := e.Resource
	if e.Field != "" {
		if where != "" {
			where += "."
		}
		where += e.Field
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			where, e.Message)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}
