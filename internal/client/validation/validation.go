// Package validation checks user input before it reaches the store.
// Every rejection is an *Error that matches common.ErrValidation.
package validation

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/lifevault/internal/client/models"
	"github.com/dmitrijs2005/lifevault/internal/common"
	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxTaskTitle   = 200
	MaxAmount      = 1_000_000
	MaxContactName = 100
	MinPhoneDigits = 7
	MaxPhoneDigits = 20
	MaxRecordTitle = 100
	MaxFileSize    = 10 * 1024 * 1024
)

// AllowedMimeTypes lists the payload types a record may hold.
var AllowedMimeTypes = []string{"image/jpeg", "image/png", "image/gif", "application/pdf"}

// Error is a user-facing validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return common.ErrValidation }

func fail(field, msg string) error {
	return &Error{Field: field, Message: msg}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func ValidateTask(title string) error {
	if blank(title) {
		return fail("title", "Task title cannot be empty")
	}
	if utf8.RuneCountInString(title) > MaxTaskTitle {
		return fail("title", "Task title too long (max 200 chars)")
	}
	return nil
}

func ValidateTransaction(kind models.TransactionKind, amount float64, category string) error {
	if !kind.Valid() {
		return fail("type", "Type must be income or expense")
	}
	if math.IsNaN(amount) || amount <= 0 {
		return fail("amount", "Amount must be greater than 0")
	}
	if amount > MaxAmount {
		return fail("amount", "Amount too large (max 1,000,000)")
	}
	if blank(category) {
		return fail("category", "Category is required")
	}
	return nil
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < utf8.RuneSelf {
			return r
		}
		return -1
	}, phone)
}

// ValidateContact checks name and, when present, phone length.
func ValidateContact(name, phone string) error {
	if blank(name) {
		return fail("name", "Contact name is required")
	}
	if utf8.RuneCountInString(name) > MaxContactName {
		return fail("name", "Name too long (max 100 chars)")
	}
	if !blank(phone) {
		digits := len(NormalizePhone(phone))
		if digits < MinPhoneDigits {
			return fail("phone", "Phone number too short (min 7 digits)")
		}
		if digits > MaxPhoneDigits {
			return fail("phone", "Phone number too long (max 20 digits)")
		}
	}
	return nil
}

// ValidateRecord checks a record title and its payload size and type.
// A payload of exactly MaxFileSize bytes is accepted.
func ValidateRecord(title string, size int64, mimeType string) error {
	if err := ValidateRecordTitle(title); err != nil {
		return err
	}
	if size > MaxFileSize {
		return fail("file", "File too large (max 10MB)")
	}
	if !AllowedMime(mimeType) {
		return fail("file", "Invalid file type. Allowed: JPEG, PNG, GIF, PDF")
	}
	return nil
}

func ValidateRecordTitle(title string) error {
	if blank(title) {
		return fail("title", "Record title is required")
	}
	if utf8.RuneCountInString(title) > MaxRecordTitle {
		return fail("title", "Title too long (max 100 chars)")
	}
	return nil
}

func AllowedMime(mimeType string) bool {
	for _, m := range AllowedMimeTypes {
		if m == mimeType {
			return true
		}
	}
	return false
}

func ValidatePIN(pin string) error {
	if utf8.RuneCountInString(pin) < common.MinPINLength {
		return fail("pin", "PIN must be at least 4 characters")
	}
	return nil
}

// ValidateCurrency resolves a currency code, ignoring case.
func ValidateCurrency(code string) (models.Currency, error) {
	c, ok := models.LookupCurrency(strings.ToUpper(strings.TrimSpace(code)))
	if !ok {
		return models.Currency{}, fail("currency", "Unknown currency code")
	}
	return c, nil
}

// DetectMime sniffs the media type of data from its content, without
// parameters such as charset.
func DetectMime(data []byte) string {
	mt, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mt)
}
