// bus/bus.go
package bus

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"sync"
)

// -----------------------------------------------------------------------------
// Tokens + Topics
// -----------------------------------------------------------------------------

// Token is a single element in a topic path. Any comparable value works as a
// token; in practice the driver uses strings ("serial", "port", "mu0") and
// ints. The strings "+" and "#" are wildcards in subscriptions: "+" matches
// exactly one token, "#" matches the remainder of the topic.
type Token = any

// Wildcard tokens.
const (
	Plus = "+"
	Hash = "#"
)

// T validates a value for use as a token. It panics if the value is not
// comparable, since non-comparable tokens would corrupt the trie.
func T(v any) Token {
	if v != nil && !reflect.TypeOf(v).Comparable() {
		panic("bus: token must be comparable")
	}
	return v
}

// Topic is a sequence of tokens.
type Topic []Token

// -----------------------------------------------------------------------------
// Message
// -----------------------------------------------------------------------------

type Message struct {
	Topic    Topic
	Payload  any
	Retained bool
	ReplyTo  Topic
}

// -----------------------------------------------------------------------------
// Subscription
// -----------------------------------------------------------------------------

type Subscription struct {
	topic Topic
	ch    chan *Message
	bus   *Bus
	conn  *Connection // owning connection
}

func (s *Subscription) Topic() Topic             { return s.topic }
func (s *Subscription) Channel() <-chan *Message { return s.ch }
func (s *Subscription) Unsubscribe()             { s.conn.Unsubscribe(s) }

// -----------------------------------------------------------------------------
// Trie node
// -----------------------------------------------------------------------------

type node struct {
	children map[Token]*node
	subs     []*Subscription
	retained *Message
}

// -----------------------------------------------------------------------------
// Bus
// -----------------------------------------------------------------------------

type Bus struct {
	mu   sync.RWMutex
	root *node
	qLen int
}

// NewBus creates a new bus with the given subscription queue length.
func NewBus(queueLen int) *Bus {
	if queueLen <= 0 {
		queueLen = 8 // safe default
	}
	return &Bus{
		root: &node{},
		qLen: queueLen,
	}
}

// NewMessage builds a message for this bus.
func (b *Bus) NewMessage(topic Topic, payload any, retained bool) *Message {
	return &Message{Topic: topic, Payload: payload, Retained: retained}
}

// addSubscription inserts a subscription into the trie and delivers any
// retained messages its topic filter matches.
func (b *Bus) addSubscription(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	for _, tok := range topic {
		if n.children == nil {
			n.children = make(map[Token]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	n.subs = append(n.subs, sub)

	b.root.eachRetained(topic, func(m *Message) {
		select {
		case sub.ch <- m:
		default:
		}
	})
}

// eachRetained walks the trie under n, visiting retained messages whose topic
// matches the (possibly wildcarded) filter.
func (n *node) eachRetained(filter Topic, visit func(*Message)) {
	if len(filter) == 0 {
		if n.retained != nil {
			visit(n.retained)
		}
		return
	}
	tok := filter[0]
	rest := filter[1:]
	switch tok {
	case Hash:
		// Matches everything at and below this node.
		n.walkRetained(visit)
	case Plus:
		for _, child := range n.children {
			child.eachRetained(rest, visit)
		}
	default:
		if child, ok := n.children[tok]; ok {
			child.eachRetained(rest, visit)
		}
	}
}

func (n *node) walkRetained(visit func(*Message)) {
	if n.retained != nil {
		visit(n.retained)
	}
	for _, child := range n.children {
		child.walkRetained(visit)
	}
}

// Publish delivers a message to all subscribers whose filter matches its
// topic, then stores or clears the retained copy.
func (b *Bus) Publish(msg *Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.root.match(msg.Topic, func(sub *Subscription) {
		select {
		case sub.ch <- msg:
		default:
			// drop oldest if queue full
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- msg:
			default:
			}
		}
	})

	if !msg.Retained {
		return
	}
	n := b.root
	for _, tok := range msg.Topic {
		if n.children == nil {
			n.children = make(map[Token]*node)
		}
		child, ok := n.children[tok]
		if !ok {
			child = &node{}
			n.children[tok] = child
		}
		n = child
	}
	if msg.Payload == nil {
		n.retained = nil
	} else {
		n.retained = msg
	}
}

// match visits subscriptions reachable from n for the given concrete topic,
// honouring "+" and "#" filter nodes.
func (n *node) match(topic Topic, visit func(*Subscription)) {
	if len(topic) == 0 {
		for _, sub := range n.subs {
			visit(sub)
		}
		if hash, ok := n.children[Token(Hash)]; ok {
			for _, sub := range hash.subs {
				visit(sub)
			}
		}
		return
	}
	if n.children == nil {
		return
	}
	if child, ok := n.children[topic[0]]; ok {
		child.match(topic[1:], visit)
	}
	if topic[0] != Plus {
		if plus, ok := n.children[Token(Plus)]; ok {
			plus.match(topic[1:], visit)
		}
	}
	if hash, ok := n.children[Token(Hash)]; ok {
		for _, sub := range hash.subs {
			visit(sub)
		}
	}
}

// unsubscribe removes a subscription from the trie.
func (b *Bus) unsubscribe(topic Topic, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := b.root
	var stack []*node
	for _, t := range topic {
		if n.children == nil {
			return
		}
		child, ok := n.children[t]
		if !ok {
			return
		}
		stack = append(stack, n)
		n = child
	}

	for i, s := range n.subs {
		if s == sub {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}

	// Prune empty nodes.
	for i := len(topic) - 1; i >= 0; i-- {
		parent := stack[i]
		key := topic[i]
		child := parent.children[key]
		if len(child.subs) == 0 && len(child.children) == 0 && child.retained == nil {
			delete(parent.children, key)
		} else {
			break
		}
	}
}

// -----------------------------------------------------------------------------
// Connection
// -----------------------------------------------------------------------------

type Connection struct {
	bus      *Bus
	subs     []*Subscription
	mu       sync.Mutex
	id       string
	replySeq int
}

// NewConnection creates a new connection bound to this bus.
func (b *Bus) NewConnection(id string) *Connection {
	return &Connection{
		bus: b,
		id:  id,
	}
}

// NewMessage builds a message for the connection's bus.
func (c *Connection) NewMessage(topic Topic, payload any, retained bool) *Message {
	return c.bus.NewMessage(topic, payload, retained)
}

// Publish sends a message via the bus.
func (c *Connection) Publish(msg *Message) {
	c.bus.Publish(msg)
}

// Subscribe registers a subscription owned by this connection.
func (c *Connection) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{
		topic: topic,
		ch:    make(chan *Message, c.bus.qLen),
		bus:   c.bus,
		conn:  c,
	}
	c.bus.addSubscription(topic, sub)
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

// Unsubscribe removes a subscription owned by this connection.
func (c *Connection) Unsubscribe(sub *Subscription) {
	c.bus.unsubscribe(sub.topic, sub)
	c.mu.Lock()
	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	close(sub.ch)
}

// Disconnect closes all subscriptions and clears them.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		c.bus.unsubscribe(sub.topic, sub)
		close(sub.ch)
	}
}

// -----------------------------------------------------------------------------
// Request–Reply
// -----------------------------------------------------------------------------

// ErrNoReply is returned by RequestWait when the context expires first.
var ErrNoReply = errors.New("bus: no reply")

// Request assigns a private ReplyTo topic to msg, subscribes to it, and
// publishes the request. The caller owns the returned subscription.
func (c *Connection) Request(msg *Message) *Subscription {
	c.mu.Lock()
	c.replySeq++
	seq := c.replySeq
	c.mu.Unlock()

	msg.ReplyTo = Topic{"$reply", c.id, strconv.Itoa(seq)}
	sub := c.Subscribe(msg.ReplyTo)
	c.bus.Publish(msg)
	return sub
}

// RequestWait publishes a request and waits for one reply or ctx expiry.
func (c *Connection) RequestWait(ctx context.Context, msg *Message) (*Message, error) {
	sub := c.Request(msg)
	defer c.Unsubscribe(sub)
	select {
	case reply := <-sub.ch:
		return reply, nil
	case <-ctx.Done():
		return nil, ErrNoReply
	}
}

// Reply publishes a response on the request's ReplyTo topic. It is a no-op
// for requests that did not ask for a reply.
func (c *Connection) Reply(req *Message, payload any, retained bool) {
	if len(req.ReplyTo) == 0 {
		return
	}
	c.bus.Publish(&Message{Topic: req.ReplyTo, Payload: payload, Retained: retained})
}
