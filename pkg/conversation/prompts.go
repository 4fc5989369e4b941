package conversation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"birthdaybot/pkg/birthday"
)

const (
	replyWelcome = "Welcome to BirthdayBot!\nYou can start by adding a birthday with /add_birthday"
	replyUnknown = "I don't understand that. /add_birthday, /change_birthday, /delete_birthday, /list or /stop"
	replyStopped = "Stopped"

	replyTransport = "Something went wrong. Please try again"
	replyNoRecords = "No birthdays found. /add_birthday to add one"
	replyNotFound  = "Birthday not found. It may have been deleted already"

	promptAddName   = "Enter the person's name:"
	promptAddDate   = "Great! Enter the date (format: DD.MM.YYYY or DD.MM):"
	promptAddNote   = "Would you like to add a note for this reminder? If yes, please type your note now. If not, send /skip"
	replyAdded      = "Birthday added successfully! /list to see all birthdays"
	replyNameInUse  = "Name is already in use. Please choose another one:"
	replyBadDate    = "Date is invalid. Please enter a valid date (format: DD.MM.YYYY or DD.MM):"
	replyNameLong   = "That name is too long. Please choose a shorter one:"
	replyNoteLong   = "This note is too long. Please choose a shorter one:"
	promptChoose    = "Choose whose birthday to change:"
	promptChooseDel = "Choose whose birthday to delete:"
	replyChanged    = "Birthday changed successfully! /list to see all birthdays"
	replyNoChanges  = "No changes made. Don't waste my time."
	replyDeleted    = "Birthday deleted successfully. /list to see updated list"
	replyDeleteFail = "Failed. Please try again"

	replyNameSame = "This name is the same. Input a new name or send /skip to keep the same name:"
	replyNoteSame = "This note is the same. Enter a new note, send /skip to keep the same note, /delete_note to delete it:"

	replyChangeNameLong = "That name is too long. Please choose a shorter one or send /skip to keep the same name:"
	replyChangeNoteLong = "This note is too long. Please choose a shorter one, send /skip to keep the same note, /delete_note to delete it:"
	replyChangeNameUsed = "Name is already in use. Please choose another one or send /skip to keep the same name:"
)

func dateErrorReply(err error) string {
	switch {
	case errors.Is(err, birthday.ErrLeapDay):
		return "29th of February is forbidden. Choose 28.02 or 1.03:"
	case errors.Is(err, birthday.ErrFutureDate):
		return "Future dates are forbidden, try again:"
	default:
		return "Invalid date, try again:"
	}
}

func changeNamePrompt(name string) string {
	return fmt.Sprintf("Changing birthday of: %s\nInput a new name or send /skip to keep the same name", name)
}

func changeDatePrompt(st *state) string {
	date := fmt.Sprintf("%d.%d", st.old.Day, st.old.Month)
	if st.old.Year != nil {
		date += fmt.Sprintf(".%d", *st.old.Year)
	}
	return fmt.Sprintf("Enter the date (format: DD.MM.YYYY or DD.MM) or send /skip to keep the same date.\nCurrent date: %s", date)
}

func changeNotePrompt(st *state) string {
	prompt := "Enter a new note or send /skip to keep the same note."
	if st.old.Note != nil {
		prompt += fmt.Sprintf("\nCurrent note: %s. Send /delete_note to delete it:", *st.old.Note)
	}
	return prompt
}

// selectionPrompt lists records sorted by name with their ids, for
// whatever keyboard or menu the transport layer renders from it.
func selectionPrompt(header string, records []birthday.Birthday) string {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Name < records[j].Name
	})

	var b strings.Builder
	b.WriteString(header)
	for _, record := range records {
		fmt.Fprintf(&b, "\n[%d] %s", record.ID, record.Name)
	}
	return b.String()
}

// listReply renders the plain birthday listing sorted by date.
func listReply(records []birthday.Birthday) string {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Month != records[j].Month {
			return records[i].Month < records[j].Month
		}
		return records[i].Day < records[j].Day
	})

	var b strings.Builder
	b.WriteString("Your list:")
	for _, record := range records {
		date := fmt.Sprintf("%d %s", record.Day, time.Month(record.Month))
		if record.Year != nil {
			date += fmt.Sprintf(", %d", *record.Year)
		}
		fmt.Fprintf(&b, "\n• %s --- %s", date, record.Name)
		if record.Note != nil {
			fmt.Fprintf(&b, " (%s)", *record.Note)
		}
	}
	return b.String()
}
