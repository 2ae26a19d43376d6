package shared

import "context"

// undoJournal collects compensating actions for the operation in flight.
// Every mutator in the domain records the inverse of what it changed so a
// failing operation leaves no partial state behind.
type undoJournal struct {
	undo  []func()
	after []func(ctx context.Context)
}

type journalKey struct{}

// Atomically runs fn as a single all-or-nothing operation.
//
// Mutations registered through RecordUndo are reverted in reverse order when fn
// returns an error or panics. Nested calls fold into the enclosing operation on
// success, so only the outermost call commits. AfterCommit callbacks run once,
// after the outermost call succeeds.
func Atomically(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	parent, _ := ctx.Value(journalKey{}).(*undoJournal)
	j := &undoJournal{}

	defer func() {
		if r := recover(); r != nil {
			j.rollback()
			panic(r)
		}
	}()

	if err = fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		j.rollback()
		return err
	}

	if parent != nil {
		parent.undo = append(parent.undo, j.undo...)
		parent.after = append(parent.after, j.after...)
		return nil
	}

	for _, cb := range j.after {
		cb(ctx)
	}
	return nil
}

// RecordUndo registers a compensating action for the current operation.
// Outside Atomically the mutation is final and the action is dropped.
func RecordUndo(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*undoJournal); ok {
		j.undo = append(j.undo, undo)
	}
}

// AfterCommit defers cb until the outermost operation commits.
// Outside Atomically cb runs immediately.
func AfterCommit(ctx context.Context, cb func(ctx context.Context)) {
	if j, ok := ctx.Value(journalKey{}).(*undoJournal); ok {
		j.after = append(j.after, cb)
		return
	}
	cb(ctx)
}

// InOperation reports whether ctx carries an operation journal
func InOperation(ctx context.Context) bool {
	_, ok := ctx.Value(journalKey{}).(*undoJournal)
	return ok
}

func (j *undoJournal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
	j.after = nil
}
