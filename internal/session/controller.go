// Package session owns the session lifecycle: create/join, the dual-channel
// refresh (push signals plus a fixed-interval poll), every session-mutating
// operation, and the derived view state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/scrumkit/pokerd/internal/deck"
	"github.com/scrumkit/pokerd/internal/metrics"
	"github.com/scrumkit/pokerd/internal/models"
	"github.com/scrumkit/pokerd/internal/notify"
	"github.com/scrumkit/pokerd/internal/roomcode"
	"github.com/scrumkit/pokerd/internal/store"
)

// Config holds the controller's tunables.
type Config struct {
	// PollInterval is the fixed refresh interval while a session is active.
	// Polling is the correctness backstop; the push channel only trims
	// latency.
	PollInterval time.Duration

	// CreateAttempts bounds the room-code collision retry loop. This is the
	// only automatic retry in the controller.
	CreateAttempts int
}

// DefaultConfig returns the stock intervals.
func DefaultConfig() Config {
	return Config{
		PollInterval:   4 * time.Second,
		CreateAttempts: 3,
	}
}

// Controller reconciles local view state against the remote store. One
// controller tracks at most one session at a time; all collaborators are
// injected.
type Controller struct {
	store store.Store
	hub   notify.Hub
	clock clockwork.Clock
	cfg   Config

	mu          sync.Mutex
	participant models.Participant
	state       State
	code        string
	session     *models.Session
	votes       []models.Vote

	// generation fences refresh completions: it bumps on every attach and
	// detach, and a refresh only installs its result if the generation it
	// started under is still current. A refresh outliving its session can
	// never write a stale snapshot.
	generation uint64

	unsubscribe func()
	stopPoll    context.CancelFunc

	// busy serializes user-initiated actions only; background refreshes
	// are never blocked by it.
	busy bool

	listeners    map[int]func(Snapshot)
	nextListener int
}

// NewController wires a controller from its injected collaborators. A nil
// store means the backend is not configured: every network-bound operation
// fails fast with ErrBackendUnavailable.
func NewController(st store.Store, hub notify.Hub, participant models.Participant, clock clockwork.Clock, cfg Config) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.CreateAttempts <= 0 {
		cfg.CreateAttempts = DefaultConfig().CreateAttempts
	}
	return &Controller{
		store:       st,
		hub:         hub,
		clock:       clock,
		cfg:         cfg,
		participant: participant,
		state:       StateNoSession,
		listeners:   make(map[int]func(Snapshot)),
	}
}

// Participant returns the local participant.
func (c *Controller) Participant() models.Participant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.participant
}

// Snapshot returns the current cached view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// OnUpdate registers a listener fired after every state transition and
// every successful refresh. The returned disposer unregisters it.
func (c *Controller) OnUpdate(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Create generates room codes until one is free (bounded by CreateAttempts),
// creates the session, joins it as the local participant, refreshes, and
// opens both update channels. Exhausted retries surface ErrCreateFailed with
// the controller state unchanged.
func (c *Controller) Create(ctx context.Context, displayName string, cards []string) (string, error) {
	if c.store == nil {
		return "", ErrBackendUnavailable
	}
	if err := c.beginAction(); err != nil {
		return "", err
	}
	defer c.endAction()

	if len(cards) == 0 {
		cards = deck.Default
	}

	prev := c.setState(StateJoiningOrCreating)

	var created *models.Session
	for attempt := 1; attempt <= c.cfg.CreateAttempts; attempt++ {
		code := roomcode.Generate()
		name := displayName
		if name == "" {
			name = "Session " + code
		}

		session, err := c.store.CreateSession(ctx, code, name, cards)
		if errors.Is(err, store.ErrCodeTaken) {
			log.Debug().Str("code", code).Int("attempt", attempt).Msg("room code collision, retrying")
			continue
		}
		if err != nil {
			c.setState(prev)
			return "", fmt.Errorf("%w: %w", ErrCreateFailed, err)
		}
		created = session
		break
	}
	if created == nil {
		c.setState(prev)
		return "", ErrCreateFailed
	}

	if err := c.store.EnsureVote(ctx, created.Code, c.participant.ID, c.participant.DisplayName); err != nil {
		c.setState(prev)
		return "", fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}

	c.attach(created.Code)
	c.publish(ctx, created.Code)

	if err := c.refresh(ctx, "action"); err != nil {
		// Already attached; the poll loop recovers the snapshot.
		log.Warn().Err(err).Str("code", created.Code).Msg("initial refresh after create failed")
	}

	log.Info().Str("code", created.Code).Msg("session created")
	return created.Code, nil
}

// Join normalizes the code, requires the session to exist, upserts the local
// participant's membership (an existing pick survives a rejoin), refreshes,
// and opens both update channels.
func (c *Controller) Join(ctx context.Context, rawCode string) error {
	if c.store == nil {
		return ErrBackendUnavailable
	}
	code := roomcode.Normalize(rawCode)
	if code == "" {
		return ErrSessionNotFound
	}
	if err := c.beginAction(); err != nil {
		return err
	}
	defer c.endAction()

	prev := c.setState(StateJoiningOrCreating)

	if _, err := c.store.GetSession(ctx, code); err != nil {
		c.setState(prev)
		if errors.Is(err, store.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}

	if err := c.store.EnsureVote(ctx, code, c.participant.ID, c.participant.DisplayName); err != nil {
		c.setState(prev)
		return fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}

	c.attach(code)
	c.publish(ctx, code)

	if err := c.refresh(ctx, "action"); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("initial refresh after join failed")
	}

	log.Info().Str("code", code).Msg("joined session")
	return nil
}

// Refresh re-fetches the session and vote list and replaces the snapshot
// wholesale. Safe to call redundantly from any channel; a failure leaves the
// previous snapshot untouched.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.refresh(ctx, "action")
}

// Wake is the hidden-to-visible transition: the presentation layer calls it
// when it (re)attaches, triggering an immediate out-of-cycle refresh.
func (c *Controller) Wake() {
	c.backgroundRefresh("wake")
}

// SetVote upserts the local participant's pick, then refreshes. No
// optimistic local update happens before the round trip completes; the UI
// shows busy until the store has accepted the value.
func (c *Controller) SetVote(ctx context.Context, value string) error {
	code, p, err := c.requireActive()
	if err != nil {
		return err
	}
	if err := c.beginAction(); err != nil {
		return err
	}
	defer c.endAction()

	if err := c.store.UpsertVote(ctx, code, p.ID, p.DisplayName, &value); err != nil {
		return fmt.Errorf("%w: %w", ErrVoteFailed, err)
	}
	c.publish(ctx, code)

	if err := c.refresh(ctx, "action"); err != nil {
		return fmt.Errorf("%w: %w", ErrVoteFailed, err)
	}
	return nil
}

// Reveal raises the session's revealed flag, then refreshes.
func (c *Controller) Reveal(ctx context.Context) error {
	code, _, err := c.requireActive()
	if err != nil {
		return err
	}
	if err := c.beginAction(); err != nil {
		return err
	}
	defer c.endAction()

	revealed := true
	if err := c.store.UpdateSession(ctx, code, models.SessionPatch{Revealed: &revealed}); err != nil {
		return fmt.Errorf("%w: %w", ErrRevealFailed, err)
	}
	c.publish(ctx, code)

	if err := c.refresh(ctx, "action"); err != nil {
		return fmt.Errorf("%w: %w", ErrRevealFailed, err)
	}
	return nil
}

// Reset nulls every pick, then lowers the revealed flag, then refreshes.
// The two writes are sequential: if clearing votes fails the reveal flag is
// left alone.
func (c *Controller) Reset(ctx context.Context) error {
	code, _, err := c.requireActive()
	if err != nil {
		return err
	}
	if err := c.beginAction(); err != nil {
		return err
	}
	defer c.endAction()

	if err := c.store.ClearVotes(ctx, code); err != nil {
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}

	revealed := false
	if err := c.store.UpdateSession(ctx, code, models.SessionPatch{Revealed: &revealed}); err != nil {
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}
	c.publish(ctx, code)

	if err := c.refresh(ctx, "action"); err != nil {
		return fmt.Errorf("%w: %w", ErrResetFailed, err)
	}
	return nil
}

// UpdateDeck parses the raw deck text and writes the validated card list to
// the session. An empty result fails locally with ErrEmptyDeck before any
// network call.
func (c *Controller) UpdateDeck(ctx context.Context, rawText string) error {
	code, _, err := c.requireActive()
	if err != nil {
		return err
	}
	cards := deck.Parse(rawText)
	if len(cards) == 0 {
		return ErrEmptyDeck
	}
	if err := c.beginAction(); err != nil {
		return err
	}
	defer c.endAction()

	if err := c.store.UpdateSession(ctx, code, models.SessionPatch{Deck: &cards}); err != nil {
		return fmt.Errorf("%w: %w", ErrDeckUpdateFailed, err)
	}
	c.publish(ctx, code)

	if err := c.refresh(ctx, "action"); err != nil {
		return fmt.Errorf("%w: %w", ErrDeckUpdateFailed, err)
	}
	return nil
}

// UpdateStory writes the session's story text, then refreshes.
func (c *Controller) UpdateStory(ctx context.Context, story string) error {
	code, _, err := c.requireActive()
	if err != nil {
		return err
	}
	if err := c.beginAction(); err != nil {
		return err
	}
	defer c.endAction()

	if err := c.store.UpdateSession(ctx, code, models.SessionPatch{Story: &story}); err != nil {
		return fmt.Errorf("%w: %w", ErrStoryUpdateFailed, err)
	}
	c.publish(ctx, code)

	if err := c.refresh(ctx, "action"); err != nil {
		return fmt.Errorf("%w: %w", ErrStoryUpdateFailed, err)
	}
	return nil
}

// Rename updates the local display name. Inside a session it also refreshes
// the membership row's denormalized name without touching the current pick.
func (c *Controller) Rename(ctx context.Context, name string) error {
	c.mu.Lock()
	c.participant.DisplayName = name
	active := c.state == StateActive
	code := c.code
	pid := c.participant.ID
	c.mu.Unlock()

	if !active {
		return nil
	}
	if err := c.beginAction(); err != nil {
		return err
	}
	defer c.endAction()

	if err := c.store.EnsureVote(ctx, code, pid, name); err != nil {
		return fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}
	c.publish(ctx, code)

	if err := c.refresh(ctx, "action"); err != nil {
		return fmt.Errorf("%w: %w", ErrJoinFailed, err)
	}
	return nil
}

// Leave deletes the local participant's membership row, then unconditionally
// tears down the subscription, stops the poll loop, and resets to NoSession.
// Teardown is local-first: it happens even when the delete call fails.
func (c *Controller) Leave(ctx context.Context) error {
	if err := c.beginAction(); err != nil {
		return err
	}
	defer c.endAction()

	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return nil
	}
	c.state = StateLeaving
	code := c.code
	pid := c.participant.ID
	c.mu.Unlock()
	c.notifyListeners()

	if err := c.store.DeleteVote(ctx, code, pid); err != nil {
		log.Warn().Err(err).Str("code", code).Msg("failed to delete vote, leaving anyway")
	}
	c.publish(ctx, code)

	c.mu.Lock()
	c.detachLocked()
	c.state = StateNoSession
	c.code = ""
	c.session = nil
	c.votes = nil
	c.mu.Unlock()
	c.notifyListeners()

	log.Info().Str("code", code).Msg("left session")
	return nil
}

// Close tears down channels on daemon shutdown without deleting the
// membership row; the participant is still in the session when they return.
func (c *Controller) Close() {
	c.mu.Lock()
	c.detachLocked()
	c.mu.Unlock()
}

func (c *Controller) requireActive() (string, models.Participant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return "", models.Participant{}, ErrNoSession
	}
	return c.code, c.participant, nil
}

func (c *Controller) beginAction() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Controller) endAction() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// setState swaps the lifecycle state, returning the previous one so failed
// transitions can restore it.
func (c *Controller) setState(next State) State {
	c.mu.Lock()
	prev := c.state
	c.state = next
	c.mu.Unlock()
	if prev != next {
		c.notifyListeners()
	}
	return prev
}

// attach enters Active for code: any prior subscription and poll loop are
// torn down first, then exactly one of each is opened.
func (c *Controller) attach(code string) {
	c.mu.Lock()
	c.detachLocked()
	c.code = code
	c.state = StateActive
	c.generation++
	c.mu.Unlock()

	unsubscribe, err := c.hub.Subscribe(code, func() {
		metrics.PushSignals.Inc()
		c.backgroundRefresh("push")
	})
	if err != nil {
		// Push is a latency optimization; the poll loop still runs.
		log.Error().Err(err).Str("code", code).Msg("push subscription failed, relying on polling")
	} else {
		c.mu.Lock()
		c.unsubscribe = unsubscribe
		c.mu.Unlock()
	}

	pollCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.stopPoll = cancel
	c.mu.Unlock()
	go c.pollLoop(pollCtx)

	c.notifyListeners()
}

// detachLocked closes the subscription, stops the poll loop, and fences out
// any in-flight refresh. Caller holds c.mu.
func (c *Controller) detachLocked() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	if c.stopPoll != nil {
		c.stopPoll()
		c.stopPoll = nil
	}
	c.generation++
}

func (c *Controller) pollLoop(ctx context.Context) {
	ticker := c.clock.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.backgroundRefresh("poll")
		}
	}
}

func (c *Controller) backgroundRefresh(trigger string) {
	if err := c.refresh(context.Background(), trigger); err != nil && !errors.Is(err, ErrNoSession) {
		log.Debug().Err(err).Str("trigger", trigger).Msg("background refresh failed")
	}
}

// refresh fetches the session document and the vote list concurrently and
// installs them as one unit. The generation captured before the fetches must
// still be current at install time; otherwise the completed result is
// discarded, so the snapshot is always wholly one fetch's result and never a
// leftover from a previous session.
func (c *Controller) refresh(ctx context.Context, trigger string) error {
	c.mu.Lock()
	if c.code == "" {
		c.mu.Unlock()
		return ErrNoSession
	}
	code := c.code
	gen := c.generation
	c.mu.Unlock()

	metrics.Refreshes.WithLabelValues(trigger).Inc()

	var (
		wg      sync.WaitGroup
		session *models.Session
		votes   []models.Vote
		sErr    error
		vErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		session, sErr = c.store.GetSession(ctx, code)
	}()
	go func() {
		defer wg.Done()
		votes, vErr = c.store.ListVotes(ctx, code)
	}()
	wg.Wait()

	if sErr != nil || vErr != nil {
		metrics.RefreshFailures.Inc()
		err := sErr
		if err == nil {
			err = vErr
		}
		return fmt.Errorf("refresh failed: %w", err)
	}

	c.mu.Lock()
	if c.generation != gen || c.code != code {
		c.mu.Unlock()
		return nil
	}
	c.session = session
	c.votes = votes
	c.mu.Unlock()

	c.notifyListeners()
	return nil
}

// publish pokes peers over the push channel. Failures only cost latency, so
// they are logged and never surfaced.
func (c *Controller) publish(ctx context.Context, code string) {
	if c.hub == nil {
		return
	}
	if err := c.hub.Publish(ctx, code); err != nil {
		log.Debug().Err(err).Str("code", code).Msg("failed to publish change signal")
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:   c.state,
		Session: c.session,
		Votes:   append([]models.Vote(nil), c.votes...),
	}
}

func (c *Controller) notifyListeners() {
	c.mu.Lock()
	snapshot := c.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
