package bus

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
)

const dialTimeout = 2 * time.Second

// ErrClosed is returned by operations on a closed Socket.
var ErrClosed = errors.New("bus connection closed")

// Socket is a container.MessageBus client of a Broker.
//
// Listeners run on one dispatch goroutine in arrival order, so a listener
// may publish without stalling the connection.
type Socket struct {
	conn   net.Conn
	id     Identity
	logger *zap.Logger

	wmu sync.Mutex

	mu      sync.Mutex
	seq     uint64
	subSeq  uint64
	pending map[uint64]chan Frame
	subs    map[uint64]*container.Subscription
	ids     map[*container.Subscription]uint64
	closed  bool

	queue   []delivery
	qmu     sync.Mutex
	qsignal chan struct{}

	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

type delivery struct {
	sub  *container.Subscription
	data json.RawMessage
	from Identity
}

// Dial connects to the broker at socketPath and identifies as id.
func Dial(ctx context.Context, socketPath string, id Identity, logger *zap.Logger) (*Socket, error) {
	if id.UUID == "" {
		return nil, fmt.Errorf("bus identity requires a uuid")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bus broker (is it running?): %w", err)
	}

	s := &Socket{
		conn:    conn,
		id:      id,
		logger:  logger.Named("bus"),
		pending: make(map[uint64]chan Frame),
		subs:    make(map[uint64]*container.Subscription),
		ids:     make(map[*container.Subscription]uint64),
		qsignal: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	s.wg.Add(2)
	go s.readLoop()
	go s.dispatchLoop()

	if err := s.request(ctx, Frame{Type: FrameHello, UUID: id.UUID, Name: id.Name}); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to identify to bus broker: %w", err)
	}
	return s, nil
}

var _ container.MessageBus = (*Socket)(nil)

// Identity returns the address this client publishes as.
func (s *Socket) Identity() Identity { return s.id }

func (s *Socket) Subscribe(ctx context.Context, topic string, listener container.MessageHandler, opts *container.SubscriptionOptions) (*container.Subscription, error) {
	sub := container.NewSubscription(topic, listener, opts)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.subSeq++
	id := s.subSeq
	s.subs[id] = sub
	s.ids[sub] = id
	s.mu.Unlock()

	f := Frame{Type: FrameSubscribe, Sub: id, Topic: topic}
	if opts != nil {
		f.UUID, f.Name = opts.UUID, opts.Name
	}
	if err := s.request(ctx, f); err != nil {
		s.forget(sub)
		return nil, err
	}
	return sub, nil
}

func (s *Socket) Unsubscribe(ctx context.Context, sub *container.Subscription) error {
	if sub == nil {
		return fmt.Errorf("unsubscribe: subscription is nil")
	}
	s.mu.Lock()
	id, ok := s.ids[sub]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unsubscribe: no subscription to %q", sub.Topic)
	}
	if err := s.request(ctx, Frame{Type: FrameUnsubscribe, Sub: id}); err != nil {
		return err
	}
	s.forget(sub)
	return nil
}

func (s *Socket) Publish(ctx context.Context, topic string, message any, opts *container.PublishOptions) error {
	data, err := encodeData(message)
	if err != nil {
		return err
	}
	f := Frame{Type: FramePublish, Topic: topic, Data: data}
	if opts.IsPointToPoint() {
		f.Type = FrameSend
		f.UUID, f.Name = opts.UUID, opts.Name
	}
	return s.request(ctx, f)
}

// Close disconnects from the broker. Pending requests fail with ErrClosed.
// It must not be called from a listener.
func (s *Socket) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	err := s.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	s.shutdown()
	s.wg.Wait()
	return err
}

// Done is closed once the connection ends, by Close or by the broker.
func (s *Socket) Done() <-chan struct{} { return s.done }

func (s *Socket) shutdown() {
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Socket) forget(sub *container.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.ids[sub]; ok {
		delete(s.ids, sub)
		delete(s.subs, id)
	}
}

// request writes f and waits for the broker's OK or ERROR.
func (s *Socket) request(ctx context.Context, f Frame) error {
	reply := make(chan Frame, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.seq++
	f.Seq = s.seq
	s.pending[f.Seq] = reply
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, f.Seq)
		s.mu.Unlock()
	}()

	if err := s.write(f); err != nil {
		return fmt.Errorf("failed to send %s: %w", f.Type, err)
	}

	select {
	case r := <-reply:
		if r.Type == FrameError {
			return fmt.Errorf("broker rejected %s: %s", f.Type, r.Error)
		}
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Socket) write(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err = s.conn.Write(data)
	return err
}

func (s *Socket) readLoop() {
	defer s.wg.Done()
	scanner := bufio.NewScanner(s.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	for scanner.Scan() {
		f, err := ParseFrame(scanner.Bytes())
		if err != nil {
			s.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		switch f.Type {
		case FrameOK, FrameError:
			s.mu.Lock()
			reply, ok := s.pending[f.Seq]
			s.mu.Unlock()
			if ok {
				reply <- f
			} else if f.Type == FrameError {
				s.logger.Warn("broker error", zap.String("error", f.Error))
			}
		case FrameMessage:
			s.mu.Lock()
			sub, ok := s.subs[f.Sub]
			s.mu.Unlock()
			if ok {
				s.enqueue(delivery{sub: sub, data: f.Data, from: Identity{UUID: f.UUID, Name: f.Name}})
			}
		}
	}

	s.mu.Lock()
	wasClosed := s.closed
	s.closed = true
	s.mu.Unlock()
	if !wasClosed {
		s.logger.Warn("bus broker connection lost")
	}
	s.shutdown()
}

func (s *Socket) enqueue(d delivery) {
	s.qmu.Lock()
	s.queue = append(s.queue, d)
	s.qmu.Unlock()
	select {
	case s.qsignal <- struct{}{}:
	default:
	}
}

func (s *Socket) dispatchLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.qsignal:
		case <-s.done:
			return
		}
		for {
			s.qmu.Lock()
			if len(s.queue) == 0 {
				s.qmu.Unlock()
				break
			}
			d := s.queue[0]
			s.queue[0] = delivery{}
			s.queue = s.queue[1:]
			s.qmu.Unlock()
			d.sub.Deliver(decodeData(d.data), d.from.UUID, d.from.Name)
		}
	}
}
