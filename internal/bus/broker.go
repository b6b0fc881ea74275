package bus

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/1broseidon/deskbridge/container"
)

// maxFrameSize bounds a single line read from a client.
const maxFrameSize = 4 << 20

// Broker routes bus traffic between local processes over a unix socket.
type Broker struct {
	socketPath string
	logger     *zap.Logger

	listener     net.Listener
	router       router[*brokerConn]
	wg           sync.WaitGroup
	mu           sync.Mutex
	conns        map[*brokerConn]struct{}
	shuttingDown bool
}

// NewBroker creates a broker listening on socketPath once Start is called.
func NewBroker(socketPath string, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		socketPath: socketPath,
		logger:     logger.Named("broker"),
		conns:      make(map[*brokerConn]struct{}),
	}
}

// SocketPath returns the path the broker listens on.
func (b *Broker) SocketPath() string { return b.socketPath }

// Start begins accepting clients.
func (b *Broker) Start() error {
	if err := os.MkdirAll(filepath.Dir(b.socketPath), 0o700); err != nil {
		return fmt.Errorf("failed to create socket dir: %w", err)
	}
	if err := os.Remove(b.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	listener, err := net.Listen("unix", b.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	if err := os.Chmod(b.socketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	b.listener = listener
	b.wg.Add(1)
	go b.acceptLoop()

	b.logger.Info("bus broker listening", zap.String("socket", b.socketPath))
	return nil
}

// Stop closes the listener and every client, then removes the socket file.
func (b *Broker) Stop() error {
	b.mu.Lock()
	b.shuttingDown = true
	conns := make([]*brokerConn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	var err error
	if b.listener != nil {
		err = b.listener.Close()
	}
	for _, c := range conns {
		c.conn.Close()
	}
	b.wg.Wait()
	os.Remove(b.socketPath)
	return err
}

func (b *Broker) acceptLoop() {
	defer b.wg.Done()
	for {
		conn, err := b.listener.Accept()
		if err != nil {
			b.mu.Lock()
			down := b.shuttingDown
			b.mu.Unlock()
			if down || errors.Is(err, net.ErrClosed) {
				return
			}
			b.logger.Warn("accept failed", zap.Error(err))
			continue
		}

		c := &brokerConn{conn: conn}
		b.mu.Lock()
		if b.shuttingDown {
			b.mu.Unlock()
			conn.Close()
			return
		}
		b.conns[c] = struct{}{}
		b.mu.Unlock()

		b.wg.Add(1)
		go b.handleConnection(c)
	}
}

func (b *Broker) handleConnection(c *brokerConn) {
	defer b.wg.Done()
	defer func() {
		b.router.removeOwner(c)
		b.mu.Lock()
		delete(b.conns, c)
		b.mu.Unlock()
		c.conn.Close()
		b.logger.Debug("client disconnected", zap.String("uuid", c.id.UUID), zap.String("name", c.id.Name))
	}()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	for scanner.Scan() {
		f, err := ParseFrame(scanner.Bytes())
		if err != nil {
			c.write(NewErrorFrame(0, err.Error()))
			continue
		}
		if err := b.handleFrame(c, f); err != nil {
			c.write(NewErrorFrame(f.Seq, err.Error()))
			continue
		}
		c.write(NewOKFrame(f.Seq))
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		b.logger.Debug("client read failed", zap.Error(err))
	}
}

func (b *Broker) handleFrame(c *brokerConn, f Frame) error {
	if f.Type != FrameHello && c.id.UUID == "" {
		return fmt.Errorf("HELLO required before %s", f.Type)
	}

	switch f.Type {
	case FrameHello:
		if c.id.UUID != "" {
			return fmt.Errorf("already identified as %s", c.id.UUID)
		}
		c.id = Identity{UUID: f.UUID, Name: f.Name}
		b.logger.Debug("client connected", zap.String("uuid", c.id.UUID), zap.String("name", c.id.Name))
		return nil

	case FrameSubscribe:
		var opts *container.SubscriptionOptions
		if f.UUID != "" || f.Name != "" {
			opts = &container.SubscriptionOptions{UUID: f.UUID, Name: f.Name}
		}
		sub := container.NewSubscription(f.Topic, nil, opts)
		if !c.addSub(f.Sub, sub) {
			return fmt.Errorf("subscription %d already exists", f.Sub)
		}
		b.router.add(c, c.id, sub)
		return nil

	case FrameUnsubscribe:
		sub, ok := c.takeSub(f.Sub)
		if !ok {
			return fmt.Errorf("no subscription %d", f.Sub)
		}
		b.router.remove(c, sub)
		return nil

	case FramePublish:
		b.route(c.id, f.Topic, f.Data, nil)
		return nil

	case FrameSend:
		b.route(c.id, f.Topic, f.Data, &container.PublishOptions{UUID: f.UUID, Name: f.Name})
		return nil

	default:
		return fmt.Errorf("unexpected %s from client", f.Type)
	}
}

func (b *Broker) route(sender Identity, topic string, data json.RawMessage, dest *container.PublishOptions) {
	routes := b.router.match(topic, sender, dest)
	for _, rt := range routes {
		id, ok := rt.owner.subID(rt.sub)
		if !ok {
			continue
		}
		err := rt.owner.write(Frame{
			Type:  FrameMessage,
			Sub:   id,
			Topic: topic,
			UUID:  sender.UUID,
			Name:  sender.Name,
			Data:  data,
		})
		if err != nil {
			b.logger.Debug("delivery failed", zap.String("to", rt.id.UUID), zap.Error(err))
		}
	}
	b.logger.Debug("routed message",
		zap.String("topic", topic),
		zap.String("from", sender.UUID),
		zap.Int("deliveries", len(routes)),
	)
}

type brokerConn struct {
	conn net.Conn
	id   Identity

	wmu sync.Mutex

	smu  sync.Mutex
	subs map[uint64]*container.Subscription
}

func (c *brokerConn) write(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err = c.conn.Write(data)
	return err
}

func (c *brokerConn) addSub(id uint64, sub *container.Subscription) bool {
	c.smu.Lock()
	defer c.smu.Unlock()
	if c.subs == nil {
		c.subs = make(map[uint64]*container.Subscription)
	}
	if _, ok := c.subs[id]; ok {
		return false
	}
	c.subs[id] = sub
	return true
}

func (c *brokerConn) takeSub(id uint64) (*container.Subscription, bool) {
	c.smu.Lock()
	defer c.smu.Unlock()
	sub, ok := c.subs[id]
	delete(c.subs, id)
	return sub, ok
}

func (c *brokerConn) subID(sub *container.Subscription) (uint64, bool) {
	c.smu.Lock()
	defer c.smu.Unlock()
	for id, s := range c.subs {
		if s == sub {
			return id, true
		}
	}
	return 0, false
}
