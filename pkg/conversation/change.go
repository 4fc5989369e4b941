package conversation

import (
	"context"
	"errors"
	"time"

	"birthdaybot/pkg/birthday"
)

func (e *Engine) startChange(ctx context.Context, identity string) string {
	epoch := e.store.clear(identity)

	records, failReply := e.selectRecords(ctx, identity, "change", epoch)
	if failReply != "" {
		return failReply
	}
	if !e.store.put(identity, &state{flow: flowChange, step: stepSelect}, epoch) {
		// Stopped while the listing was in flight.
		return ""
	}
	return selectionPrompt(promptChoose, records)
}

func (e *Engine) changeStep(ctx context.Context, identity string, st *state, epoch uint64, in Input, text string) string {
	switch st.step {
	case stepSelect:
		return e.changeSelect(ctx, identity, st, epoch, in)
	case stepName:
		return e.changeName(ctx, identity, st, epoch, text)
	case stepDate:
		return e.changeDate(ctx, identity, st, epoch, text)
	case stepNote:
		return e.changeNote(ctx, identity, st, epoch, text)
	default:
		return replyUnknown
	}
}

// changeSelect fetches the chosen record and seeds the scratch state
// with its current values.
func (e *Engine) changeSelect(ctx context.Context, identity string, st *state, epoch uint64, in Input) string {
	id, ok := selectedID(in)
	if !ok {
		return promptChoose
	}

	record, err := e.api.Get(ctx, identity, id)

	if !e.store.valid(identity, epoch) {
		return ""
	}

	if err != nil {
		e.store.clear(identity)
		if errors.Is(err, birthday.ErrNotFound) {
			return replyNotFound
		}
		e.transportFailure(ctx, identity, "change", err)
		return replyTransport
	}

	st.recordID = record.ID
	st.old = *record
	st.step = stepName
	return changeNamePrompt(record.Name)
}

func (e *Engine) changeName(ctx context.Context, identity string, st *state, epoch uint64, text string) string {
	if text == CmdSkip {
		return e.afterChangeName(ctx, identity, st, epoch)
	}

	if text == "" {
		return changeNamePrompt(st.old.Name)
	}
	if err := birthday.ValidateName(text); err != nil {
		return replyChangeNameLong
	}
	if text == st.old.Name {
		return replyNameSame
	}

	st.newName = &text
	return e.afterChangeName(ctx, identity, st, epoch)
}

// afterChangeName moves on to the date step, or straight to commit
// when a conflict replay already holds a new date.
func (e *Engine) afterChangeName(ctx context.Context, identity string, st *state, epoch uint64) string {
	if st.hasNewDate {
		return e.commitChange(ctx, identity, st, epoch)
	}
	st.step = stepDate
	return changeDatePrompt(st)
}

func (e *Engine) changeDate(ctx context.Context, identity string, st *state, epoch uint64, text string) string {
	switch text {
	case CmdSkip:
		return e.afterChangeDate(ctx, identity, st, epoch)
	case CmdDeleteNote:
		st.newNote = nil
		st.newNoteSet = true
		return e.commitChange(ctx, identity, st, epoch)
	}

	day, month, year, err := birthday.ParseDate(text)
	if err == nil {
		err = birthday.ValidateDate(day, month, year, time.Now())
	}
	if err != nil {
		return dateErrorReply(err) + " Or send /skip to keep the same date"
	}

	st.newDay = day
	st.newMonth = month
	st.newYear = year
	st.hasNewDate = true
	return e.afterChangeDate(ctx, identity, st, epoch)
}

func (e *Engine) afterChangeDate(ctx context.Context, identity string, st *state, epoch uint64) string {
	if st.newNoteSet || st.noteSkipped {
		return e.commitChange(ctx, identity, st, epoch)
	}
	st.step = stepNote
	return changeNotePrompt(st)
}

func (e *Engine) changeNote(ctx context.Context, identity string, st *state, epoch uint64, text string) string {
	switch text {
	case CmdSkip:
		st.noteSkipped = true
		return e.commitChange(ctx, identity, st, epoch)
	case CmdDeleteNote:
		st.newNote = nil
		st.newNoteSet = true
		return e.commitChange(ctx, identity, st, epoch)
	}

	if text == "" {
		return changeNotePrompt(st)
	}
	if err := birthday.ValidateNote(text); err != nil {
		return replyChangeNoteLong
	}
	if st.old.Note != nil && text == *st.old.Note {
		return replyNoteSame
	}

	st.newNote = &text
	st.newNoteSet = true
	return e.commitChange(ctx, identity, st, epoch)
}

// commitChange merges new values over old ones and issues the update.
// With no new value collected at all it short-circuits without a
// network call.
func (e *Engine) commitChange(ctx context.Context, identity string, st *state, epoch uint64) string {
	if st.newName == nil && !st.hasNewDate && !st.newNoteSet {
		e.store.clear(identity)
		return replyNoChanges
	}

	record := birthday.Birthday{
		Name:  st.old.Name,
		Day:   st.old.Day,
		Month: st.old.Month,
		Year:  st.old.Year,
		Note:  st.old.Note,
	}
	if st.newName != nil {
		record.Name = *st.newName
	}
	if st.hasNewDate {
		record.Day = st.newDay
		record.Month = st.newMonth
		record.Year = st.newYear
	}
	if st.newNoteSet {
		record.Note = st.newNote
	}

	err := e.api.Update(ctx, identity, st.recordID, record)

	if !e.store.valid(identity, epoch) {
		return ""
	}

	var conflict birthday.ConflictError
	switch {
	case err == nil:
		e.store.clear(identity)
		return replyChanged
	case errors.As(err, &conflict) && conflict.Field == "name":
		// Fall back to the old name; only the rejected new value is
		// dropped.
		st.newName = nil
		st.step = stepName
		return replyChangeNameUsed
	case errors.As(err, &conflict) && conflict.Field == "date":
		st.newDay, st.newMonth, st.newYear = 0, 0, nil
		st.hasNewDate = false
		st.step = stepDate
		return replyBadDate
	case errors.Is(err, birthday.ErrNotFound):
		e.store.clear(identity)
		return replyNotFound
	default:
		e.transportFailure(ctx, identity, "change", err)
		e.store.clear(identity)
		return replyTransport
	}
}
