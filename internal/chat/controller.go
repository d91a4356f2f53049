// Package chat implements the conversation session controller: the message flow of the
// active session, answer retrieval, per-session upload tracking and history persistence.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// ErrSuperseded indicates a result arrived after the session was reset or switched.
// The result was discarded.
var ErrSuperseded = errors.New("session changed while request was in flight")

// Gateway is the subset of the backend client the controller needs.
type Gateway interface {
	Search(ctx context.Context, question string, topK int) (*models.Answer, error)
	Upload(ctx context.Context, file models.FileBlob, title string) (*client.UploadResult, error)
	GetHistory(ctx context.Context, id string) (*models.Session, error)
	SaveHistory(ctx context.Context, in client.SaveHistoryInput) (string, error)
}

// Credentials reports the signed-in user, if any.
type Credentials interface {
	Get() (models.Credential, bool)
}

// Listener receives controller events. Nil fields are skipped.
type Listener struct {
	// HistoryChanged fires after every attempt to persist the transcript.
	HistoryChanged func()
}

// State is the answer state of the active session.
type State int

const (
	StateIdle State = iota
	StateAwaitingAnswer
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingAnswer:
		return "awaiting_answer"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Controller.
type Options struct {
	TopK   int
	Logger *slog.Logger
}

// Turn is a submitted question whose answer has not been applied yet.
type Turn struct {
	Question string

	activation uuid.UUID
}

// Controller owns the active session. It is safe for concurrent use.
//
// Every New and Load starts a new activation. Results of requests dispatched
// under an older activation are dropped instead of being applied.
type Controller struct {
	gateway Gateway
	creds   Credentials
	topK    int
	logger  *slog.Logger

	mu         sync.Mutex
	transcript []models.Message
	uploads    []models.UploadedFileRef
	pending    bool
	sessionID  string
	activation uuid.UUID
	listeners  []Listener
}

// NewController creates a controller with an empty session.
func NewController(gateway Gateway, creds Credentials, opts Options) *Controller {
	topK := opts.TopK
	if topK < 1 {
		topK = client.DefaultTopK
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		gateway:    gateway,
		creds:      creds,
		topK:       topK,
		logger:     logger,
		activation: uuid.New(),
	}
}

// Subscribe registers l for controller events.
func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// New resets the active session to an empty, unsaved one.
func (c *Controller) New() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// reset clears the session. Caller holds mu.
func (c *Controller) reset() {
	c.transcript = nil
	c.uploads = nil
	c.sessionID = ""
	c.pending = false
	c.activation = uuid.New()
}

// Load replaces the active session with the stored session id.
// On failure the active session is left as it was and the error is logged.
func (c *Controller) Load(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("load session: %w: id is required", ErrValidation)
	}
	if !c.signedIn() {
		return loginRequired("view history")
	}

	dispatched := c.currentActivation()

	session, err := c.gateway.GetHistory(ctx, id)
	if err != nil {
		c.logger.Warn("failed to load session", "session_id", id, "error", err)
		return fmt.Errorf("load session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activation != dispatched {
		c.logger.Debug("discarding stale session load", "session_id", id)
		return ErrSuperseded
	}

	c.reset()
	c.transcript = models.CloneMessages(session.Messages)
	c.sessionID = session.ID
	if c.sessionID == "" {
		c.sessionID = id
	}

	c.logger.Debug("session loaded", "session_id", c.sessionID, "messages", len(c.transcript))
	return nil
}

// Submit asks question and waits for the answer. See Ask and Await.
func (c *Controller) Submit(ctx context.Context, question string) error {
	turn, err := c.Ask(question)
	if err != nil {
		return err
	}
	return c.Await(ctx, turn)
}

// Ask appends the user's question to the transcript and marks an answer as pending.
// Nothing is mutated when the question is rejected.
func (c *Controller) Ask(question string) (*Turn, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if !c.signedIn() {
		return nil, loginRequired("search documents")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return nil, ErrAnswerPending
	}

	c.transcript = append(c.transcript, models.UserMessage(question))
	c.pending = true
	return &Turn{Question: question, activation: c.activation}, nil
}

// Await fetches the answer to turn and appends it to the transcript.
// A failed search appends AnswerFailedText instead; the turn is persisted either way.
// The search error is returned for callers that want it.
func (c *Controller) Await(ctx context.Context, turn *Turn) error {
	defer c.settle(turn.activation)

	answer, searchErr := c.gateway.Search(ctx, turn.Question, c.topK)

	var reply models.Message
	if searchErr != nil {
		c.logger.Warn("search failed", "error", searchErr)
		reply = models.BotMessage(AnswerFailedText, nil)
	} else {
		reply = models.BotMessage(answer.Text, answer.Sources)
	}

	c.mu.Lock()
	if c.activation != turn.activation {
		c.mu.Unlock()
		c.logger.Debug("discarding stale answer", "question_len", len(turn.Question))
		return ErrSuperseded
	}
	c.transcript = append(c.transcript, reply)
	snapshot := models.CloneMessages(c.transcript)
	id := c.sessionID
	c.mu.Unlock()

	c.persist(ctx, turn.activation, id, snapshot)
	c.notifyHistoryChanged()

	if searchErr != nil {
		if errors.Is(searchErr, client.ErrUnauthorized) {
			return loginRequired("search documents")
		}
		return fmt.Errorf("search documents: %w", searchErr)
	}
	return nil
}

// settle clears pending if the session that asked is still active.
func (c *Controller) settle(activation uuid.UUID) {
	c.mu.Lock()
	if c.activation == activation {
		c.pending = false
	}
	c.mu.Unlock()
}

// persist saves the transcript as the session id. It never fails the caller.
func (c *Controller) persist(ctx context.Context, activation uuid.UUID, id string, msgs []models.Message) {
	if !c.signedIn() {
		return
	}

	savedID, err := c.gateway.SaveHistory(ctx, client.SaveHistoryInput{
		ID:       id,
		Title:    SessionTitle(msgs),
		Messages: msgs,
	})
	if err != nil {
		c.logger.Warn("failed to save history", "session_id", id, "error", err)
		return
	}

	c.mu.Lock()
	if c.activation == activation && savedID != "" {
		c.sessionID = savedID
	}
	c.mu.Unlock()
}

func (c *Controller) notifyHistoryChanged() {
	c.mu.Lock()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		if l.HistoryChanged != nil {
			l.HistoryChanged()
		}
	}
}

// UploadDocument uploads a PDF under title and records it for this session.
// A failed upload leaves the session unchanged.
func (c *Controller) UploadDocument(ctx context.Context, file models.FileBlob, title string) (models.UploadedFileRef, error) {
	title = strings.TrimSpace(title)
	switch {
	case file.Empty():
		return models.UploadedFileRef{}, ErrMissingFile
	case title == "":
		return models.UploadedFileRef{}, ErrMissingTitle
	case !file.IsPDF():
		return models.UploadedFileRef{}, ErrNotPDF
	case !c.signedIn():
		return models.UploadedFileRef{}, loginRequired("upload documents")
	}

	dispatched := c.currentActivation()

	result, err := c.gateway.Upload(ctx, file, title)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return models.UploadedFileRef{}, loginRequired("upload documents")
		}
		c.logger.Warn("upload failed", "file", file.Name, "error", err)
		return models.UploadedFileRef{}, fmt.Errorf("upload document: %w: %w", ErrUploadFailed, err)
	}

	ref := models.UploadedFileRef{
		DisplayName:      title,
		OriginalFileName: file.Name,
		SizeBytes:        file.Size,
	}
	if result != nil {
		c.logger.Info("document uploaded", "file", file.Name, "job_id", result.JobID, "status", result.Status)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activation != dispatched {
		c.logger.Debug("upload finished after session change", "file", file.Name)
		return ref, nil
	}
	c.uploads = append(c.uploads, ref)
	return ref, nil
}

// Transcript returns a copy of the active session's messages.
func (c *Controller) Transcript() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CloneMessages(c.transcript)
}

// Uploads returns a copy of the files uploaded during the active session.
func (c *Controller) Uploads() []models.UploadedFileRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.UploadedFileRef(nil), c.uploads...)
}

// Pending reports whether an answer is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// State returns the answer state of the active session.
func (c *Controller) State() State {
	if c.Pending() {
		return StateAwaitingAnswer
	}
	return StateIdle
}

// SessionID returns the stored id of the active session, or "" if it has not been saved.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) currentActivation() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activation
}

func (c *Controller) signedIn() bool {
	if c.creds == nil {
		return false
	}
	cred, ok := c.creds.Get()
	return ok && cred.Valid()
}
