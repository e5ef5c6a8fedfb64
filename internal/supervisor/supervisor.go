package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/trunk-metrics/internal/dispatch"
	"github.com/sweeney/trunk-metrics/internal/genesys"
	"github.com/sweeney/trunk-metrics/internal/identity"
	"github.com/sweeney/trunk-metrics/internal/notify"
	"github.com/sweeney/trunk-metrics/internal/store"
)

// State is the lifecycle state of the notification channel session.
type State string

const (
	StateIdle          State = "idle"
	StateProvisioning  State = "provisioning"
	StateOpening       State = "opening"
	StateSubscribing   State = "subscribing"
	StateStreaming     State = "streaming"
	StateClosing       State = "closing"
	StateReconnectWait State = "reconnect_wait"
)

// Provisioner acquires credentials and a notification channel.
type Provisioner interface {
	Authenticate(ctx context.Context) (genesys.Token, error)
	ProvisionChannel(ctx context.Context, tok genesys.Token) (genesys.Channel, error)
}

// Conn is one open message transport to the notification channel.
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens a transport to a channel's connect URI.
type Dialer interface {
	Dial(ctx context.Context, uri string) (Conn, error)
}

// Config holds the supervisor's tunables.
type Config struct {
	// TrunkIDs is the static set of trunks to subscribe to.
	TrunkIDs []string

	// KeepAliveInterval is the ping cadence while streaming.
	KeepAliveInterval time.Duration

	// ReconnectBackoff is the fixed wait between sessions. Retries are
	// unbounded: a monitoring feed should keep trying to come back.
	ReconnectBackoff time.Duration
}

const (
	defaultKeepAliveInterval = 30 * time.Second
	defaultReconnectBackoff  = 5 * time.Second
)

// Supervisor owns the notification channel session lifecycle: it
// provisions a channel, opens the transport, subscribes to the tracked
// trunk metric topics, holds the session alive, and reconnects with a
// fixed backoff when the session fails.
type Supervisor struct {
	cfg         Config
	provisioner Provisioner
	directory   identity.Directory
	dialer      Dialer
	store       *store.Store
	dispatcher  *dispatch.Dispatcher

	newCorrelationID func() string

	mu    sync.Mutex
	state State
}

// New creates a Supervisor. Zero durations in cfg fall back to the
// defaults (30s keep-alive, 5s backoff).
func New(cfg Config, prov Provisioner, dir identity.Directory, dialer Dialer, st *store.Store) *Supervisor {
	if cfg.KeepAliveInterval <= 0 {
		cfg.KeepAliveInterval = defaultKeepAliveInterval
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = defaultReconnectBackoff
	}
	return &Supervisor{
		cfg:              cfg,
		provisioner:      prov,
		directory:        dir,
		dialer:           dialer,
		store:            st,
		dispatcher:       dispatch.New(st),
		newCorrelationID: uuid.NewString,
		state:            StateIdle,
	}
}

// State returns the current session state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run drives sessions until ctx is cancelled. A session error never
// escapes: it is logged and followed by the fixed backoff, then a fresh
// session. Run returns nil on shutdown.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.setState(StateIdle)
	for {
		err := s.runSession(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Printf("channel session error: %v, reconnecting in %s", err, s.cfg.ReconnectBackoff)
		}
		s.setState(StateReconnectWait)
		select {
		case <-time.After(s.cfg.ReconnectBackoff):
		case <-ctx.Done():
			return nil
		}
	}
}

// runSession runs one channel session from provisioning to termination.
func (s *Supervisor) runSession(ctx context.Context) error {
	s.setState(StateProvisioning)

	tok, err := s.provisioner.Authenticate(ctx)
	if err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	ch, err := s.provisioner.ProvisionChannel(ctx, tok)
	if err != nil {
		return fmt.Errorf("provisioning channel: %w", err)
	}
	log.Printf("provisioned notification channel %s", ch.ID)

	// Resolve the identity map before the stream opens so directory
	// calls never block the receive loop. Partial failures degrade to
	// ungrouped trunks.
	idMap := identity.Resolve(ctx, s.directory, s.cfg.TrunkIDs)
	s.store.SetIdentityMap(idMap)
	log.Printf("resolved %d of %d trunks to groups", len(idMap), len(s.cfg.TrunkIDs))

	s.setState(StateOpening)
	conn, err := s.dialer.Dial(ctx, ch.ConnectURI)
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}

	s.setState(StateSubscribing)
	correlationID := s.newCorrelationID()
	sub, err := notify.BuildSubscribe(correlationID, s.cfg.TrunkIDs)
	if err != nil {
		conn.Close()
		return err
	}
	if err := conn.WriteMessage(sub); err != nil {
		conn.Close()
		return fmt.Errorf("sending subscribe: %w", err)
	}
	log.Printf("subscribed to %d trunk metric topics (correlation %s)", len(s.cfg.TrunkIDs), correlationID)

	s.setState(StateStreaming)
	g, gctx := errgroup.WithContext(ctx)

	// Closing the conn is the only way to unblock a pending read, both
	// on shutdown and when the keep-alive sender fails.
	g.Go(func() error {
		<-gctx.Done()
		s.setState(StateClosing)
		conn.Close()
		return nil
	})

	g.Go(func() error {
		return s.receiveLoop(gctx, conn)
	})

	g.Go(func() error {
		return s.keepAlive(gctx, conn)
	})

	return g.Wait()
}

// receiveLoop reads inbound frames and hands metric events to the
// dispatcher. Malformed frames and non-metrics protocol frames are
// logged and dropped; only transport failures end the session.
func (s *Supervisor) receiveLoop(ctx context.Context, conn Conn) error {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading from channel: %w", err)
		}

		evt, err := notify.Parse(raw)
		if err != nil {
			if errors.Is(err, notify.ErrNotMetrics) {
				log.Printf("channel: %v", err)
			} else {
				log.Printf("dropping malformed frame: %v", err)
			}
			continue
		}
		s.dispatcher.Handle(evt)
	}
}

func (s *Supervisor) keepAlive(ctx context.Context, conn Conn) error {
	ticker := time.NewTicker(s.cfg.KeepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteMessage(notify.BuildPing()); err != nil {
				return fmt.Errorf("sending keep-alive: %w", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
