// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/auditlogic/internal/auditor"
	"github.com/jeranaias/auditlogic/internal/model"
	"github.com/jeranaias/auditlogic/internal/storage"
)

// =============================================================================
// STATE
// =============================================================================

// State is the audit lifecycle state.
type State int

const (
	StateIdle State = iota
	StateAuditing
	StateResultShown
	StateCredentialMissing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateAuditing:
		return "Auditing"
	case StateResultShown:
		return "ResultShown"
	case StateCredentialMissing:
		return "CredentialMissing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// View is the screen axis, independent of State.
type View int

const (
	ViewAuditForm View = iota
	ViewHistory
)

// String returns the view name.
func (v View) String() string {
	if v == ViewHistory {
		return "History"
	}
	return "AuditForm"
}

// Fallback message for failures that carry no user-facing text.
const msgAuditInterrupted = "Audit interrupted by logical error."

var (
	// ErrNotReady is returned by Submit when Begin refuses the request.
	ErrNotReady = errors.New("controller is not ready to accept an audit")

	// ErrSessionNotFound is returned by SelectSession for unknown ids.
	ErrSessionNotFound = errors.New("audit session not found in history")

	// ErrSaveFailed wraps a store failure after a successful audit.
	ErrSaveFailed = errors.New("save audit")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Auditor runs one audit. *auditor.Service satisfies it.
type Auditor interface {
	AuditStatement(ctx context.Context, statement string) (*model.AuditResult, error)
}

// Credentials reports and repairs credential availability.
// *credential.Resolver satisfies it.
type Credentials interface {
	// Available reports whether any key (selected or environment) exists.
	Available() bool
	HasSelectedCredential() bool
	OpenCredentialSelector(ctx context.Context) error
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is an immutable copy of the view state for rendering.
type Snapshot struct {
	State State
	View  View

	// Input is the statement last submitted, kept across failures.
	Input string

	// Current is the session on screen in StateResultShown.
	Current *model.AuditSession

	// History is newest first.
	History []model.AuditSession

	// Error is the banner text, empty when there is none.
	Error string

	// CredentialError marks Error as fixable by selecting a key.
	CredentialError bool

	// CredentialAvailable is the last known credential check result.
	CredentialAvailable bool
}

// CanSubmit reports whether a statement would be accepted.
func (s Snapshot) CanSubmit(text string) bool {
	return strings.TrimSpace(text) != "" && s.State != StateAuditing && s.State != StateCredentialMissing
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller orchestrates audits, persistence and view state. All methods
// are safe for concurrent use; one audit at a time is enforced by State.
type Controller struct {
	auditor Auditor
	store   storage.HistoryStore
	creds   Credentials
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	state     State
	view      View
	input     string
	current   *model.AuditSession
	history   []model.AuditSession
	errMsg    string
	credErr   bool
	credAvail bool
}

// New creates a controller in StateIdle with an empty history.
func New(a Auditor, store storage.HistoryStore, creds Credentials) *Controller {
	return &Controller{
		auditor: a,
		store:   store,
		creds:   creds,
		logger:  zap.NewNop(),
		now:     time.Now,
		history: []model.AuditSession{},
	}
}

// WithLogger sets the logger.
func (c *Controller) WithLogger(logger *zap.Logger) *Controller {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// WithClock overrides time.Now for session timestamps.
func (c *Controller) WithClock(now func() time.Time) *Controller {
	if now != nil {
		c.now = now
	}
	return c
}

// Init loads history and checks credentials concurrently. A history load
// failure is reported in the error banner and is not fatal. Calling Init
// while an audit is in flight leaves state and history untouched.
func (c *Controller) Init(ctx context.Context) error {
	var (
		sessions []model.AuditSession
		loadErr  error
		avail    bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions, loadErr = c.store.GetAllAudits(gctx)
		return nil
	})
	g.Go(func() error {
		avail = c.creds != nil && c.creds.Available()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// An audit in flight owns the state; its Finish prepends to history
	if c.state == StateAuditing {
		c.credAvail = avail
		c.logger.Debug("init skipped while an audit is in flight")
		return nil
	}

	if loadErr != nil {
		c.logger.Warn("failed to load audit history", zap.Error(loadErr))
		c.errMsg = "Could not load saved audits: " + loadErr.Error()
		c.history = []model.AuditSession{}
	} else {
		c.history = sessions
	}

	c.credAvail = avail
	if avail {
		c.state = StateIdle
	} else {
		c.state = StateCredentialMissing
		c.credErr = true
		if c.errMsg == "" {
			c.errMsg = "No API key selected. Select a Gemini API key to begin auditing."
		}
	}
	return nil
}

// Begin moves Idle or ResultShown to Auditing. It refuses blank input, a
// second concurrent audit and audits without a credential.
func (c *Controller) Begin(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return false
	}
	if c.state == StateAuditing || c.state == StateCredentialMissing {
		return false
	}

	c.state = StateAuditing
	c.view = ViewAuditForm
	c.input = text
	c.errMsg = ""
	c.credErr = false
	return true
}

// Finish completes an audit started by Begin. On success the session is
// persisted and prepended to history; if persisting fails nothing is shown
// and the input is kept. Returns the error surfaced to the user, if any.
func (c *Controller) Finish(ctx context.Context, text string, result *model.AuditResult, auditErr error) error {
	_, err := c.finish(ctx, text, result, auditErr)
	return err
}

func (c *Controller) finish(ctx context.Context, text string, result *model.AuditResult, auditErr error) (*model.AuditSession, error) {
	c.mu.Lock()
	if c.state != StateAuditing {
		c.mu.Unlock()
		return nil, ErrNotReady
	}
	c.mu.Unlock()

	if auditErr == nil && result == nil {
		auditErr = &auditor.Error{Kind: auditor.KindEmptyResponse, Message: auditor.MsgEmptyResponse}
	}

	if auditErr != nil {
		c.mu.Lock()
		defer c.mu.Unlock()

		c.errMsg = userMessage(auditErr)
		if errors.Is(auditErr, auditor.ErrCredentialMissing) {
			c.state = StateCredentialMissing
			c.credErr = true
			c.credAvail = false
		} else {
			c.state = StateIdle
		}
		c.logger.Info("audit failed", zap.Stringer("kind", auditor.KindOf(auditErr)))
		return nil, auditErr
	}

	session := model.NewAuditSession(text, *result, c.now())

	// Persist outside the lock; the Auditing state keeps other submits out.
	// The audit is already paid for, so a caller that went away does not
	// cancel the save.
	saveErr := c.store.SaveAudit(context.WithoutCancel(ctx), session)

	c.mu.Lock()
	defer c.mu.Unlock()

	if saveErr != nil {
		c.logger.Error("failed to save audit", zap.String("id", session.ID), zap.Error(saveErr))
		c.state = StateIdle
		c.errMsg = "The audit finished but could not be saved: " + saveErr.Error()
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, saveErr)
	}

	c.history = append([]model.AuditSession{session}, c.history...)
	c.current = &session
	c.state = StateResultShown
	c.view = ViewAuditForm
	c.errMsg = ""
	c.credErr = false
	c.credAvail = true
	return &session, nil
}

// Submit runs a whole audit synchronously.
func (c *Controller) Submit(ctx context.Context, text string) error {
	_, err := c.SubmitSession(ctx, text)
	return err
}

// SubmitSession runs a whole audit synchronously and returns the session it
// persisted. Snapshot().Current may already belong to a later audit.
func (c *Controller) SubmitSession(ctx context.Context, text string) (model.AuditSession, error) {
	if !c.Begin(text) {
		return model.AuditSession{}, ErrNotReady
	}
	result, err := c.auditor.AuditStatement(ctx, text)
	session, err := c.finish(ctx, text, result, err)
	if err != nil {
		return model.AuditSession{}, err
	}
	out := *session
	out.Result = out.Result.Clone()
	return out, nil
}

// NewAudit leaves ResultShown, clearing the result, input and error.
func (c *Controller) NewAudit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateResultShown {
		return false
	}

	c.current = nil
	c.input = ""
	c.errMsg = ""
	c.credErr = false
	c.view = ViewAuditForm
	if c.credAvail {
		c.state = StateIdle
	} else {
		c.state = StateCredentialMissing
	}
	return true
}

// SelectSession shows a stored result without calling the auditor.
func (c *Controller) SelectSession(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateAuditing {
		return ErrNotReady
	}

	for i := range c.history {
		if c.history[i].ID == id {
			session := c.history[i]
			c.current = &session
			c.state = StateResultShown
			c.view = ViewAuditForm
			c.errMsg = ""
			c.credErr = false
			return nil
		}
	}
	return fmt.Errorf("%s: %w", id, ErrSessionNotFound)
}

// ShowHistory switches to the history view.
func (c *Controller) ShowHistory() {
	c.mu.Lock()
	c.view = ViewHistory
	c.mu.Unlock()
}

// ShowForm switches to the audit form view.
func (c *Controller) ShowForm() {
	c.mu.Lock()
	c.view = ViewAuditForm
	c.mu.Unlock()
}

// OpenCredentialSelector delegates to the credential provider and then
// rechecks availability.
func (c *Controller) OpenCredentialSelector(ctx context.Context) error {
	if c.creds == nil {
		return errors.New("no credential provider configured")
	}
	if err := c.creds.OpenCredentialSelector(ctx); err != nil {
		c.mu.Lock()
		c.errMsg = "Key selection failed: " + err.Error()
		c.mu.Unlock()
		return err
	}
	c.RecheckCredential()
	return nil
}

// RecheckCredential refreshes credential availability. CredentialMissing
// becomes Idle once a key exists; Idle becomes CredentialMissing when the
// key disappears.
func (c *Controller) RecheckCredential() bool {
	avail := c.creds != nil && c.creds.Available()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.credAvail = avail
	switch {
	case avail && c.state == StateCredentialMissing:
		c.state = StateIdle
		c.errMsg = ""
		c.credErr = false
	case !avail && c.state == StateIdle:
		c.state = StateCredentialMissing
		c.credErr = true
		c.errMsg = "No API key selected. Select a Gemini API key to begin auditing."
	}
	return avail
}

// ClearHistory removes every stored session.
func (c *Controller) ClearHistory(ctx context.Context) error {
	if err := c.store.ClearAllAudits(ctx); err != nil {
		c.mu.Lock()
		c.errMsg = "Could not clear saved audits: " + err.Error()
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.history = []model.AuditSession{}
	c.mu.Unlock()
	return nil
}

// DismissError clears the banner.
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.errMsg = ""
	c.credErr = false
	c.mu.Unlock()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a copy of the view state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:               c.state,
		View:                c.view,
		Input:               c.input,
		History:             make([]model.AuditSession, len(c.history)),
		Error:               c.errMsg,
		CredentialError:     c.credErr,
		CredentialAvailable: c.credAvail,
	}
	copy(snap.History, c.history)
	if c.current != nil {
		cur := *c.current
		cur.Result = cur.Result.Clone()
		snap.Current = &cur
	}
	return snap
}

func userMessage(err error) string {
	if msg := auditor.UserMessage(err); msg != "" {
		return msg
	}
	return msgAuditInterrupted
}
