package requestflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/liamcoop/wardline/generator"
	"github.com/liamcoop/wardline/internal/logger"
	"github.com/liamcoop/wardline/requests"
	"github.com/liamcoop/wardline/wards"
)

var (
	// ErrBusy is returned while a generate or submit call is still pending
	ErrBusy = errors.New("a request for this form is already in progress")

	// ErrAlreadySubmitted is returned until the form is reset after a submission
	ErrAlreadySubmitted = errors.New("request already submitted; reset the form to start another")
)

// ValidationError reports required form fields that are missing or invalid.
// It is raised before any network or store call.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// WardLookup resolves a ward id against the catalog
type WardLookup interface {
	GetByID(ctx context.Context, id int) (*wards.Ward, error)
}

// LetterWriter produces letter text from request fields
type LetterWriter interface {
	GenerateRequestLetter(ctx context.Context, l generator.Letter) (string, error)
}

// Prioritizer assigns a priority to a request before it is stored
type Prioritizer interface {
	Assess(req *requests.Request) requests.Priority
}

// Deps are the collaborators every flow uses
type Deps struct {
	Wards  WardLookup
	Writer LetterWriter
	Store  requests.RequestStore
	Triage Prioritizer
	IDs    *requests.IDGenerator
	Now    func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Form is what the resident types in
type Form struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

func (f Form) letter() generator.Letter {
	return generator.Letter{Type: f.Type, Description: f.Description, Location: f.Location}
}

func (f Form) validateForGenerate() error {
	if missing := f.letter().Missing(); len(missing) > 0 {
		return &ValidationError{
			Fields:  missing,
			Message: "Please fill in the type, description, and location fields first.",
		}
	}
	return nil
}

func (f Form) validateForSubmit() error {
	var fields []string
	if !requests.Type(f.Type).Valid() {
		fields = append(fields, "type")
	}
	if strings.TrimSpace(f.Description) == "" {
		fields = append(fields, "description")
	}
	if len(fields) > 0 {
		return &ValidationError{
			Fields:  fields,
			Message: "Please choose a request type (infrastructure, safety, environment, housing, other) and describe the issue.",
		}
	}
	return nil
}

// Flow is one resident's request form for one ward.
// The mutex guards state transitions only; it is never held across a vendor or store call.
type Flow struct {
	ID     string
	WardID int

	deps *Deps

	mu        sync.Mutex
	form      Form
	generated string
	state     State
	epoch     uint64
	touched   time.Time
}

// NewFlow creates an idle flow for a ward
func NewFlow(id string, wardID int, deps *Deps) *Flow {
	return &Flow{
		ID:      id,
		WardID:  wardID,
		deps:    deps,
		state:   Idle{},
		touched: deps.now(),
	}
}

// State returns the current state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Form returns the current form fields
func (f *Flow) Form() Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// GeneratedText returns the last generated letter, if any
func (f *Flow) GeneratedText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generated
}

// idleSince reports whether the flow has no call pending and was last
// touched before cutoff
func (f *Flow) idleSince(cutoff time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !busy(f.state) && f.touched.Before(cutoff)
}

// SetForm replaces the form fields
func (f *Flow) SetForm(form Form) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkAvailable(); err != nil {
		return err
	}
	f.form = form
	f.touched = f.deps.now()
	return nil
}

// UseGeneratedText stores letter text produced elsewhere, as if Generate had returned it
func (f *Flow) UseGeneratedText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkAvailable(); err != nil {
		return err
	}
	f.touched = f.deps.now()
	if text == "" {
		return nil
	}
	f.generated = text
	f.state = Generated{Text: text}
	return nil
}

func (f *Flow) checkAvailable() error {
	if busy(f.state) {
		return ErrBusy
	}
	if _, done := f.state.(Submitted); done {
		return ErrAlreadySubmitted
	}
	return nil
}

// Generate asks the letter writer for text.
// On validation failure the writer is not called and an idle flow records the message.
func (f *Flow) Generate(ctx context.Context) (string, error) {
	f.mu.Lock()
	if err := f.checkAvailable(); err != nil {
		f.mu.Unlock()
		return "", err
	}
	f.touched = f.deps.now()
	form := f.form
	if err := form.validateForGenerate(); err != nil {
		if f.state.Phase() == PhaseIdle {
			f.state = Idle{Message: err.Error()}
		}
		f.mu.Unlock()
		return "", err
	}
	f.state = Generating{}
	epoch := f.epoch
	f.mu.Unlock()

	text, err := f.deps.Writer.GenerateRequestLetter(ctx, form.letter())

	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = f.deps.now()

	if f.epoch != epoch {
		// reset while pending: drop the result
		return text, err
	}
	if err != nil {
		logger.Error("Error generating request", "flowId", f.ID, "wardId", f.WardID, "error", err)
		f.state = Failed{From: PhaseGenerating, Err: err}
		return "", err
	}

	f.generated = text
	f.state = Generated{Text: text}
	return text, nil
}

// Submit stores the request. Generation is optional; when it happened the
// letter is kept as the request's AI text.
func (f *Flow) Submit(ctx context.Context) (*requests.Request, error) {
	f.mu.Lock()
	if err := f.checkAvailable(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	f.touched = f.deps.now()
	form := f.form
	if err := form.validateForSubmit(); err != nil {
		if f.state.Phase() == PhaseIdle {
			f.state = Idle{Message: err.Error()}
		}
		f.mu.Unlock()
		return nil, err
	}
	text := f.generated
	f.state = Submitting{}
	epoch := f.epoch
	f.mu.Unlock()

	req, err := f.submit(ctx, form, text)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = f.deps.now()

	if f.epoch != epoch {
		return req, err
	}
	if err != nil {
		logger.Error("Error submitting request", "flowId", f.ID, "wardId", f.WardID, "error", err)
		f.state = Failed{From: PhaseSubmitting, Err: err}
		return nil, err
	}

	f.state = Submitted{Request: req}
	return req, nil
}

func (f *Flow) submit(ctx context.Context, form Form, generated string) (*requests.Request, error) {
	// the ward must still exist when the request is filed
	ward, err := f.deps.Wards.GetByID(ctx, f.WardID)
	if err != nil {
		return nil, err
	}

	now := f.deps.now().UTC().Truncate(time.Millisecond)
	req := &requests.Request{
		ID:                    f.deps.IDs.Next(now),
		Type:                  requests.Type(form.Type),
		Title:                 form.Title,
		Description:           form.Description,
		Location:              form.Location,
		WardID:                ward.ID,
		WardName:              ward.Name,
		AldermanName:          ward.Alderman.Name,
		Status:                requests.StatusSubmitted,
		Priority:              requests.PriorityLow,
		CreatedAt:             now,
		EstimatedResponseTime: requests.EstimatedResponseTime,
		AIGeneratedText:       generated,
	}
	if f.deps.Triage != nil {
		req.Priority = f.deps.Triage.Assess(req)
	}

	if err := f.deps.Store.Add(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to store request: %w", err)
	}

	logger.Info("Request submitted",
		"requestId", req.ID,
		"wardId", req.WardID,
		"type", req.Type,
		"priority", req.Priority,
		"aiGenerated", generated != "",
	)
	return req, nil
}

// Reset returns the flow to idle and clears the form. Results of calls still
// pending are discarded when they complete.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.epoch++
	f.form = Form{}
	f.generated = ""
	f.state = Idle{}
	f.touched = f.deps.now()
}
