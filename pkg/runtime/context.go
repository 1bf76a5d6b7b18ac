package runtime

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-notes/inkwell/pkg/store"
	"github.com/inkwell-notes/inkwell/pkg/vars"
)

// execContext is the per-run mutable state threaded through step
// execution.
type execContext struct {
	vars        vars.Context
	now         time.Time
	notebookID  uuid.UUID   // the notebook "currentNotebook" targets resolve to
	currentPage *store.Page // set per page inside a searchAndProcess fan-out
	result      *Result
	tracker     *Tracker
}

// resolve substitutes {{name}} placeholders in s from the run's variable
// context. Unknown names are left verbatim.
func (ec *execContext) resolve(s string) string {
	return ec.vars.Substitute(s)
}

// scoped returns a copy of the context with its own variable map, so a
// fan-out iteration cannot leak variables into the outer run.
func (ec *execContext) scoped() *execContext {
	child := *ec
	child.vars = make(vars.Context, len(ec.vars))
	for k, v := range ec.vars {
		child.vars[k] = v
	}
	return &child
}
