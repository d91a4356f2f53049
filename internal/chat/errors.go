package chat

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/kbchat/internal/client"
)

// Sentinel errors for controller operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrValidation indicates input was rejected locally. Nothing was mutated or sent.
	ErrValidation = errors.New("validation failed")

	ErrEmptyQuestion = fmt.Errorf("%w: question is empty", ErrValidation)
	ErrMissingFile   = fmt.Errorf("%w: no file selected", ErrValidation)
	ErrMissingTitle  = fmt.Errorf("%w: title is required", ErrValidation)
	ErrNotPDF        = fmt.Errorf("%w: only PDF files can be uploaded", ErrValidation)

	// ErrLoginRequired indicates the action needs a stored credential.
	ErrLoginRequired = errors.New("login required")

	// ErrUploadFailed wraps a gateway error from a document upload.
	ErrUploadFailed = errors.New("upload failed")

	// ErrAnswerPending indicates a question was submitted while another answer is in flight.
	ErrAnswerPending = errors.New("an answer is still pending")
)

// LoginRequiredError names the action a guest attempted.
type LoginRequiredError struct {
	Action string
}

func (e *LoginRequiredError) Error() string {
	return fmt.Sprintf("login required to %s", e.Action)
}

// Is reports whether target is ErrLoginRequired.
func (e *LoginRequiredError) Is(target error) bool {
	return target == ErrLoginRequired
}

func loginRequired(action string) error {
	return &LoginRequiredError{Action: action}
}

// User-facing notices.
const (
	AnswerFailedText  = "❌ Sorry, something went wrong. Please try again."
	NoticeFailed      = "❌ Something went wrong. Please try again."
	NoticeUploadOK    = "✅ Document uploaded successfully!"
	NoticeUploadFail  = "❌ Upload failed. Please try again."
	NoticeUploadInput = "Please provide a title and select a file."
	NoticeNotPDF      = "Please select a PDF file."
	NoticeEmpty       = "Please enter a question."
	NoticeBusy        = "Please wait for the current answer."
)

// Notice maps an operation error to the message shown to the user.
// A nil error yields "".
func Notice(err error) string {
	var lre *LoginRequiredError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &lre):
		return fmt.Sprintf("Please login or sign up to %s", lre.Action)
	case errors.Is(err, ErrLoginRequired), errors.Is(err, client.ErrUnauthorized):
		return "Please login or sign up to continue"
	case errors.Is(err, ErrEmptyQuestion):
		return NoticeEmpty
	case errors.Is(err, ErrMissingFile), errors.Is(err, ErrMissingTitle):
		return NoticeUploadInput
	case errors.Is(err, ErrNotPDF):
		return NoticeNotPDF
	case errors.Is(err, ErrAnswerPending):
		return NoticeBusy
	case errors.Is(err, ErrUploadFailed):
		return NoticeUploadFail
	case errors.Is(err, ErrValidation):
		return err.Error()
	default:
		return NoticeFailed
	}
}
