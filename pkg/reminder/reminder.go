package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"birthdaybot/pkg/birthday"
)

// Lister is the privileged gateway surface the notifier needs.
type Lister interface {
	ListIncoming(ctx context.Context) ([]birthday.Incoming, error)
}

// Sender delivers one reminder to one contact; the surrounding
// application plugs in its transport here. Scheduling of Run itself
// also stays with the caller.
type Sender interface {
	Send(ctx context.Context, telegramID int64, message string) error
}

type Notifier struct {
	API    Lister
	Sender Sender
	Logger *slog.Logger
}

func NewNotifier(api Lister, sender Sender, logger *slog.Logger) *Notifier {
	return &Notifier{API: api, Sender: sender, Logger: logger}
}

// Run performs one reminder pass: fetch every birthday due within the
// horizon and send one message per record to its owner. A failed send
// is logged and does not stop the pass.
func (n *Notifier) Run(ctx context.Context) error {
	incoming, err := n.API.ListIncoming(ctx)
	if err != nil {
		if errors.Is(err, birthday.ErrNotFound) {
			return nil
		}
		n.Logger.Error("reminder pass failed", "error", err)
		return err
	}

	for _, record := range incoming {
		message := Compose(record, time.Now())
		if err := n.Sender.Send(ctx, record.Creator.TelegramID, message); err != nil {
			n.Logger.Error("failed to send reminder", "user", record.Creator.TelegramID, "error", err)
		}
	}
	return nil
}

// Compose renders the reminder text for one incoming birthday.
func Compose(record birthday.Incoming, today time.Time) string {
	var message string
	switch record.IncomingInDays {
	case 0:
		message = "Today"
	case 1:
		message = "Tomorrow"
	default:
		message = "Next week"
	}

	message += fmt.Sprintf(" is %s's birthday", record.Name)
	if record.Year != nil {
		message += fmt.Sprintf(" - turning %d", today.Year()-*record.Year)
	}

	if record.IncomingInDays == 0 {
		message += "!"
	} else {
		message += "."
	}

	if record.Note != nil {
		message += fmt.Sprintf("\n(your note: %s)", *record.Note)
	}
	if record.IncomingInDays == 0 {
		message += "\nSend them best wishes! :)"
	}
	return message
}
