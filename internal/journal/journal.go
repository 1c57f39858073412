// Package journal implements the double-entry balance check applied to a
// journal entry before it may be saved as a draft or posted.
package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MinLines is the number of lines an entry always keeps.
const MinLines = 2

var (
	// ErrUnbalanced is returned when total debit differs from total credit.
	ErrUnbalanced = errors.New("journal entry is unbalanced")
	// ErrTooFewLines is returned when an entry has fewer than MinLines lines.
	ErrTooFewLines = errors.New("journal entry needs at least two lines")
	// ErrLineRemoval is returned when removing a line would drop below MinLines.
	ErrLineRemoval = errors.New("cannot remove line: entry keeps at least two lines")
)

// Status is the lifecycle state of an entry.
type Status string

// Entry statuses.
const (
	StatusDraft  Status = "draft"
	StatusPosted Status = "posted"
)

// Line is one row of a journal entry. Debit and Credit hold the raw text
// typed by the user.
type Line struct {
	Account     string `json:"account"`
	Description string `json:"description"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

// ParseAmount converts user text into an amount. Empty or invalid text
// parses to zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Balance summarizes an entry's totals. Difference is Debit minus Credit.
type Balance struct {
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Difference decimal.Decimal `json:"difference"`
}

// Balanced reports whether the difference is zero.
func (b Balance) Balanced() bool { return b.Difference.IsZero() }

// Totals sums the debit and credit columns.
func Totals(lines []Line) Balance {
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(ParseAmount(l.Debit))
		credit = credit.Add(ParseAmount(l.Credit))
	}
	return Balance{Debit: debit, Credit: credit, Difference: debit.Sub(credit)}
}

// Gate tells which form actions are currently allowed.
type Gate struct {
	CanSaveDraft  bool `json:"canSaveDraft"`
	CanPost       bool `json:"canPost"`
	CanRemoveLine bool `json:"canRemoveLine"`
}

// Evaluate derives the gate from the lines. Both save actions require a zero
// difference; line removal stops once only MinLines remain.
func Evaluate(lines []Line) Gate {
	balanced := Totals(lines).Balanced()
	return Gate{
		CanSaveDraft:  balanced,
		CanPost:       balanced,
		CanRemoveLine: len(lines) > MinLines,
	}
}

// Entry is a journal entry under construction.
type Entry struct {
	Reference   string    `json:"reference"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Lines       []Line    `json:"lines"`
	Status      Status    `json:"status"`
}

// NewEntry returns a draft entry with MinLines empty lines.
func NewEntry(reference string, date time.Time) *Entry {
	return &Entry{
		Reference: reference,
		Date:      date,
		Lines:     make([]Line, MinLines),
		Status:    StatusDraft,
	}
}

// AddLine appends a line and returns its index.
func (e *Entry) AddLine(l Line) int {
	e.Lines = append(e.Lines, l)
	return len(e.Lines) - 1
}

// SetLine replaces the line at index i.
func (e *Entry) SetLine(i int, l Line) error {
	if i < 0 || i >= len(e.Lines) {
		return fmt.Errorf("line %d out of range", i)
	}
	e.Lines[i] = l
	return nil
}

// RemoveLine deletes the line at index i unless that would leave fewer than
// MinLines lines.
func (e *Entry) RemoveLine(i int) error {
	if !Evaluate(e.Lines).CanRemoveLine {
		return ErrLineRemoval
	}
	if i < 0 || i >= len(e.Lines) {
		return fmt.Errorf("line %d out of range", i)
	}
	e.Lines = append(e.Lines[:i:i], e.Lines[i+1:]...)
	return nil
}

// Balance returns the entry totals.
func (e *Entry) Balance() Balance { return Totals(e.Lines) }

// Gate returns the allowed actions for the entry.
func (e *Entry) Gate() Gate { return Evaluate(e.Lines) }

// Validate checks the line count and the double-entry balance.
func (e *Entry) Validate() error {
	if len(e.Lines) < MinLines {
		return ErrTooFewLines
	}
	if b := e.Balance(); !b.Balanced() {
		return fmt.Errorf("%w: debit %s, credit %s, difference %s", ErrUnbalanced, b.Debit, b.Credit, b.Difference)
	}
	return nil
}

// SaveDraft validates the entry and keeps it as a draft.
func (e *Entry) SaveDraft() error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.Status = StatusDraft
	return nil
}

// Post validates the entry and marks it posted.
func (e *Entry) Post() error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.Status = StatusPosted
	return nil
}
