package upload

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	apperrors "github.com/jrsteele09/go-profile-uploader/internal/errors"
	"github.com/jrsteele09/go-profile-uploader/tenants"
	"github.com/rs/zerolog/log"
)

var (
	// ErrBusy rejects a request made while another one is in flight
	ErrBusy = apperrors.ErrUploadInProgress
	// ErrRemovalDeclined is returned when the user does not confirm a removal
	ErrRemovalDeclined = errors.New("profile picture removal not confirmed")
)

const (
	RemovalPrompt     = "Remove your profile picture?"
	UploadSuccessText = "Profile picture updated successfully."
	RemoveSuccessText = "Profile picture removed."
)

// ProfilePictureService is what a Controller drives, *Service in production
type ProfilePictureService interface {
	UploadProfilePicture(ctx context.Context, img Image, t tenants.Type, onProgress ProgressFunc) (json.RawMessage, error)
	RemoveProfilePicture(ctx context.Context, t tenants.Type) (json.RawMessage, error)
}

var _ ProfilePictureService = (*Service)(nil)

// Confirmer asks the user to approve a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Notifier shows the terminal outcome of a request to the user
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// State is what a screen renders while a request runs
type State struct {
	Uploading bool
	Progress  int // 0..100
}

// Controller serialises requests for one screen: at most one upload or
// removal is in flight per Controller. Separate Controllers do not
// coordinate with each other.
type Controller struct {
	service   ProfilePictureService
	tenant    tenants.Type
	confirmer Confirmer
	notifier  Notifier
	listener  ProgressFunc

	mu    sync.Mutex
	state State
}

type ControllerOption func(*Controller)

func WithConfirmer(c Confirmer) ControllerOption {
	return func(ctl *Controller) {
		ctl.confirmer = c
	}
}

func WithNotifier(n Notifier) ControllerOption {
	return func(ctl *Controller) {
		ctl.notifier = n
	}
}

// WithProgressListener is told about every progress change after State is updated
func WithProgressListener(fn ProgressFunc) ControllerOption {
	return func(ctl *Controller) {
		ctl.listener = fn
	}
}

// NewController binds a service to one tenant. Without a Confirmer every
// removal is declined.
func NewController(service ProfilePictureService, t tenants.Type, opts ...ControllerOption) *Controller {
	c := &Controller{
		service:   service,
		tenant:    t,
		confirmer: ConfirmFunc(declineAll),
		notifier:  logNotifier{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RequestUpload uploads img unless a request is already running, in which
// case ErrBusy is returned without touching the network or the state.
func (c *Controller) RequestUpload(ctx context.Context, img Image) (json.RawMessage, error) {
	if !c.begin() {
		return nil, ErrBusy
	}

	snapshot, err := c.service.UploadProfilePicture(ctx, img, c.tenant, c.setProgress)
	c.finish()
	c.report(err, UploadSuccessText)
	return snapshot, err
}

// RequestRemoval removes the picture after the Confirmer approves it.
// Declining leaves the state untouched and returns ErrRemovalDeclined.
func (c *Controller) RequestRemoval(ctx context.Context) (json.RawMessage, error) {
	if c.State().Uploading {
		return nil, ErrBusy
	}

	ok, err := c.confirmer.Confirm(ctx, RemovalPrompt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRemovalDeclined
	}

	if !c.begin() {
		return nil, ErrBusy
	}
	snapshot, err := c.service.RemoveProfilePicture(ctx, c.tenant)
	c.finish()
	c.report(err, RemoveSuccessText)
	return snapshot, err
}

func (c *Controller) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Uploading {
		return false
	}
	c.state = State{Uploading: true}
	return true
}

func (c *Controller) finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{}
}

func (c *Controller) setProgress(percent int) {
	c.mu.Lock()
	uploading := c.state.Uploading
	if uploading {
		c.state.Progress = percent
	}
	c.mu.Unlock()

	if uploading && c.listener != nil {
		c.listener(percent)
	}
}

func (c *Controller) report(err error, successText string) {
	if err == nil {
		c.notifier.Success(successText)
		return
	}
	c.notifier.Failure(err.Error())
}

func declineAll(context.Context, string) (bool, error) {
	return false, nil
}

type logNotifier struct{}

func (logNotifier) Success(message string) {
	log.Info().Msg(message)
}

func (logNotifier) Failure(message string) {
	log.Error().Msg(message)
}
