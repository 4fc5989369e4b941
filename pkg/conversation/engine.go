package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"birthdaybot/pkg/birthday"
)

// Commands understood by every flow. The transport layer delivers
// them as plain message text.
const (
	CmdStart      = "/start"
	CmdAdd        = "/add_birthday"
	CmdChange     = "/change_birthday"
	CmdDelete     = "/delete_birthday"
	CmdList       = "/list"
	CmdSkip       = "/skip"
	CmdDeleteNote = "/delete_note"
	CmdStop       = "/stop"
)

// Gateway is the record-store surface the engine drives. Implemented
// by birthday.Client; tests substitute a mock.
type Gateway interface {
	Create(ctx context.Context, identity string, b birthday.Birthday) (*birthday.Birthday, error)
	List(ctx context.Context, identity string) ([]birthday.Birthday, error)
	Get(ctx context.Context, identity string, id int64) (*birthday.Birthday, error)
	Update(ctx context.Context, identity string, id int64, b birthday.Birthday) error
	Delete(ctx context.Context, identity string, id int64) error
}

// Notifier is the operator-visible alert path for transport failures.
type Notifier interface {
	NotifyAdmin(ctx context.Context, message string)
}

// Input is one user turn: either raw message text or an explicit
// selection made on a previously offered record list.
type Input struct {
	Text     string
	Callback string
}

// Engine runs the add/change/delete dialogs, one flow at a time per
// user. Starting any flow abandons whatever that user had in flight.
type Engine struct {
	api      Gateway
	logger   *slog.Logger
	notifier Notifier
	store    *store
}

func NewEngine(api Gateway, logger *slog.Logger, notifier Notifier) *Engine {
	return &Engine{
		api:      api,
		logger:   logger,
		notifier: notifier,
		store:    newStore(),
	}
}

// HandleInput advances the user's conversation by one turn and
// returns the outgoing prompt. An empty reply means the turn produced
// nothing to say (a result discarded by an intervening stop).
//
// Turns for one identity are serialized; identities never block each
// other. A stop signal does not wait its turn: it clears the flow
// immediately, and any network call still in flight for the old flow
// has its result dropped.
func (e *Engine) HandleInput(ctx context.Context, identity string, in Input) string {
	text := strings.TrimSpace(in.Text)

	if text == CmdStop {
		e.store.clear(identity)
		return replyStopped
	}

	lock := e.store.turnLock(identity)
	lock.Lock()
	defer lock.Unlock()

	switch text {
	case CmdStart:
		e.store.clear(identity)
		return replyWelcome
	case CmdAdd:
		return e.startAdd(identity)
	case CmdChange:
		return e.startChange(ctx, identity)
	case CmdDelete:
		return e.startDelete(ctx, identity)
	case CmdList:
		return e.list(ctx, identity)
	}

	st, epoch := e.store.current(identity)
	if st == nil {
		return replyUnknown
	}

	switch st.flow {
	case flowAdd:
		return e.addStep(ctx, identity, st, epoch, text)
	case flowChange:
		return e.changeStep(ctx, identity, st, epoch, in, text)
	case flowDelete:
		return e.deleteStep(ctx, identity, st, epoch, in)
	default:
		return replyUnknown
	}
}

// list clears any in-flight flow and replies with the user's records
// sorted by date.
func (e *Engine) list(ctx context.Context, identity string) string {
	epoch := e.store.clear(identity)

	records, err := e.api.List(ctx, identity)

	if !e.store.valid(identity, epoch) {
		return ""
	}

	if err != nil {
		if errors.Is(err, birthday.ErrNotFound) {
			return replyNoRecords
		}
		e.transportFailure(ctx, identity, "list", err)
		return replyTransport
	}
	return listReply(records)
}

// selectRecords runs the shared listing step that opens the change
// and delete flows. It returns the fetched records and the reply to
// send when the flow can not proceed; a stop that raced the fetch
// yields neither.
func (e *Engine) selectRecords(ctx context.Context, identity, operation string, epoch uint64) ([]birthday.Birthday, string) {
	records, err := e.api.List(ctx, identity)

	if !e.store.valid(identity, epoch) {
		return nil, ""
	}

	if err != nil {
		if errors.Is(err, birthday.ErrNotFound) {
			return nil, replyNoRecords
		}
		e.transportFailure(ctx, identity, operation, err)
		return nil, replyTransport
	}
	return records, ""
}

func selectedID(in Input) (int64, bool) {
	if in.Callback == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(in.Callback, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (e *Engine) transportFailure(ctx context.Context, identity, operation string, err error) {
	e.logger.Error("transport failure", "operation", operation, "user", identity, "error", err)
	if e.notifier != nil {
		e.notifier.NotifyAdmin(ctx, "transport failure during "+operation+" for user "+identity+": "+err.Error())
	}
}
