package conversation

import (
	"context"
	"errors"

	"birthdaybot/pkg/birthday"
)

func (e *Engine) startDelete(ctx context.Context, identity string) string {
	epoch := e.store.clear(identity)

	records, failReply := e.selectRecords(ctx, identity, "delete", epoch)
	if failReply != "" {
		return failReply
	}
	if !e.store.put(identity, &state{flow: flowDelete, step: stepSelect}, epoch) {
		// Stopped while the listing was in flight.
		return ""
	}
	return selectionPrompt(promptChooseDel, records)
}

// deleteStep issues the deletion directly from the selection; there
// is no separate confirmation step.
func (e *Engine) deleteStep(ctx context.Context, identity string, st *state, epoch uint64, in Input) string {
	id, ok := selectedID(in)
	if !ok {
		return promptChooseDel
	}

	err := e.api.Delete(ctx, identity, id)

	if !e.store.valid(identity, epoch) {
		return ""
	}

	e.store.clear(identity)
	switch {
	case err == nil:
		return replyDeleted
	case errors.Is(err, birthday.ErrNotFound):
		return replyNotFound
	default:
		e.transportFailure(ctx, identity, "delete", err)
		return replyDeleteFail
	}
}
