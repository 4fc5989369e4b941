package conversation

import (
	"context"
	"errors"
	"time"

	"birthdaybot/pkg/birthday"
)

func (e *Engine) startAdd(identity string) string {
	epoch := e.store.clear(identity)
	if !e.store.put(identity, &state{flow: flowAdd, step: stepName}, epoch) {
		return ""
	}
	return promptAddName
}

func (e *Engine) addStep(ctx context.Context, identity string, st *state, epoch uint64, text string) string {
	switch st.step {
	case stepName:
		return e.addName(ctx, identity, st, epoch, text)
	case stepDate:
		return e.addDate(ctx, identity, st, epoch, text)
	case stepNote:
		return e.addNote(ctx, identity, st, epoch, text)
	default:
		return replyUnknown
	}
}

func (e *Engine) addName(ctx context.Context, identity string, st *state, epoch uint64, text string) string {
	if text == "" {
		return promptAddName
	}
	if err := birthday.ValidateName(text); err != nil {
		return replyNameLong
	}

	st.name = text
	st.hasName = true

	// A conflict replay still holds the date (and possibly the note),
	// so a fresh name commits straight away.
	if st.hasDate {
		return e.commitAdd(ctx, identity, st, epoch)
	}

	st.step = stepDate
	return promptAddDate
}

func (e *Engine) addDate(ctx context.Context, identity string, st *state, epoch uint64, text string) string {
	day, month, year, err := birthday.ParseDate(text)
	if err == nil {
		err = birthday.ValidateDate(day, month, year, time.Now())
	}
	if err != nil {
		return dateErrorReply(err)
	}

	st.day = day
	st.month = month
	st.year = year
	st.hasDate = true

	if st.note != nil || st.noteSkipped {
		return e.commitAdd(ctx, identity, st, epoch)
	}

	st.step = stepNote
	return promptAddNote
}

func (e *Engine) addNote(ctx context.Context, identity string, st *state, epoch uint64, text string) string {
	if text == CmdSkip {
		st.noteSkipped = true
		return e.commitAdd(ctx, identity, st, epoch)
	}

	if text == "" {
		return promptAddNote
	}
	if err := birthday.ValidateNote(text); err != nil {
		return replyNoteLong
	}

	st.note = &text
	return e.commitAdd(ctx, identity, st, epoch)
}

func (e *Engine) commitAdd(ctx context.Context, identity string, st *state, epoch uint64) string {
	record := birthday.Birthday{
		Name:  st.name,
		Day:   st.day,
		Month: st.month,
		Year:  st.year,
		Note:  st.note,
	}

	_, err := e.api.Create(ctx, identity, record)

	if !e.store.valid(identity, epoch) {
		// Stopped while the request was in flight.
		return ""
	}

	var conflict birthday.ConflictError
	switch {
	case err == nil:
		e.store.clear(identity)
		return replyAdded
	case errors.As(err, &conflict) && conflict.Field == "name":
		st.name = ""
		st.hasName = false
		st.step = stepName
		return replyNameInUse
	case errors.As(err, &conflict) && conflict.Field == "date":
		st.day, st.month, st.year = 0, 0, nil
		st.hasDate = false
		st.step = stepDate
		return replyBadDate
	default:
		e.transportFailure(ctx, identity, "add", err)
		e.store.clear(identity)
		return replyTransport
	}
}
