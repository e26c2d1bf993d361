package wsmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/smarttrack/internal/core/domain"
	"github.com/samirrijal/smarttrack/internal/core/mapview"
	"github.com/samirrijal/smarttrack/internal/pkg/debounce"
)

// DefaultSearchDelay is how long search input must be quiet before the
// geocoder is queried.
const DefaultSearchDelay = 300 * time.Millisecond

// Searcher resolves place queries.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.GeocodeResult, error)
}

// ClientOptions configure a Client.
type ClientOptions struct {
	Map           mapview.Options
	PromptTimeout time.Duration
	SearchDelay   time.Duration
	Logger        *slog.Logger
}

// Client is the server side of one browser map connection. Reads are fed
// to HandleMessage; the map session runs in Run.
type Client struct {
	t        Transport
	factory  *Factory
	prompter *Prompter
	session  *mapview.Session
	searcher Searcher
	search   *debounce.Debouncer
	logger   *slog.Logger
}

// NewClient creates a client. searcher may be nil, in which case search
// requests are answered with an error op.
func NewClient(t Transport, create mapview.BoundaryCreator, searcher Searcher, opts ClientOptions) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SearchDelay <= 0 {
		opts.SearchDelay = DefaultSearchDelay
	}
	opts.Map.Logger = opts.Logger

	c := &Client{
		t:        t,
		factory:  NewFactory(t),
		prompter: NewPrompter(t, opts.PromptTimeout),
		searcher: searcher,
		search:   debounce.New(opts.SearchDelay),
		logger:   opts.Logger,
	}
	c.session = mapview.NewSession(c.factory, c.prompter, create, opts.Map)
	return c
}

// Session returns the map session, which receives entity snapshots.
func (c *Client) Session() *mapview.Session { return c.session }

// Run drives the map until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	defer c.search.Stop()
	return c.session.Run(ctx)
}

// HandleMessage routes one message read from the browser. It never waits
// on the map session, so a prompt answer is read even while the session is
// blocked on that prompt.
func (c *Client) HandleMessage(ctx context.Context, data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		return err
	}

	if ev, ok := msg.DrawEvent(); ok {
		s := c.factory.Current()
		if s == nil {
			return fmt.Errorf("%s before surface was created", msg.Op)
		}
		s.Dispatch(ev)
		return nil
	}

	switch msg.Op {
	case OpPromptAnswer:
		answer := msg.Answer
		if msg.Cancelled {
			answer = ""
		}
		if !c.prompter.Resolve(msg.PromptID, answer) {
			c.logger.Debug("answer for unknown prompt", "prompt", msg.PromptID)
		}
	case OpRequestView:
		if msg.View == nil {
			return errors.New("set_view without view")
		}
		c.session.RequestViewport(*msg.View)
	case OpFocusUser:
		c.session.FocusUser(msg.UserID)
	case OpFocusBoundary:
		c.session.FocusBoundary(msg.BoundaryID)
	case OpSelectPlace:
		if msg.Place == nil {
			return errors.New("select_place without place")
		}
		c.session.FocusPlace(*msg.Place)
	case OpSearch:
		query := msg.Query
		c.search.Trigger(func() { c.runSearch(ctx, query) })
	default:
		return fmt.Errorf("unknown op %q", msg.Op)
	}
	return nil
}

func (c *Client) runSearch(ctx context.Context, query string) {
	if c.searcher == nil {
		c.SendError(errors.New("place search is not available"))
		return
	}
	results, err := c.searcher.Search(ctx, query)
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		results = nil
	case err != nil:
		c.logger.Warn("place search failed", "query", query, "error", err)
		c.SendError(fmt.Errorf("search failed"))
		return
	}
	if results == nil {
		results = []domain.GeocodeResult{}
	}
	if err := send(c.t, ServerMessage{Op: OpSearchResults, Query: query, Results: results}); err != nil {
		c.logger.Debug("send search results", "error", err)
	}
}

// SendError reports a problem to the browser.
func (c *Client) SendError(err error) {
	if sendErr := send(c.t, ServerMessage{Op: OpError, Text: err.Error()}); sendErr != nil {
		c.logger.Debug("send error op", "error", sendErr)
	}
}
