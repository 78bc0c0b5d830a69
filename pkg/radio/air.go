package radio

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Air is an in-process radio medium. Radios attached to the same Air on the
// same channel can reach each other; delivery happens synchronously inside
// Send so frames arrive in the order they were sent.
type Air struct {
	mu     sync.RWMutex
	radios map[MAC]*AirRadio
	loss   float64
}

// NewAir creates an empty medium with no frame loss.
func NewAir() *Air {
	return &Air{
		radios: make(map[MAC]*AirRadio),
	}
}

// SetLoss sets the probability in [0, 1] that a unicast frame is lost.
func (a *Air) SetLoss(p float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loss = min(max(p, 0), 1)
}

// Attach creates a radio with the given address tuned to channel.
func (a *Air) Attach(addr MAC, channel int) (*AirRadio, error) {
	if !ValidChannel(channel) {
		return nil, fmt.Errorf("%w: %d", ErrChannel, channel)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.radios[addr]; ok {
		return nil, fmt.Errorf("address %s already attached", addr)
	}
	r := &AirRadio{
		air:     a,
		addr:    addr,
		channel: channel,
		peers:   make(map[MAC]int),
	}
	a.radios[addr] = r
	return r, nil
}

func (a *Air) detach(addr MAC) {
	a.mu.Lock()
	delete(a.radios, addr)
	a.mu.Unlock()
}

// deliver hands payload to every radio addressed by dst on channel and
// reports whether at least one received it.
func (a *Air) deliver(from MAC, dst MAC, channel int, payload []byte) bool {
	a.mu.RLock()
	var targets []*AirRadio
	if dst == Broadcast {
		for addr, r := range a.radios {
			if addr != from && r.channel == channel {
				targets = append(targets, r)
			}
		}
	} else if r, ok := a.radios[dst]; ok && r.channel == channel {
		if a.loss == 0 || rand.Float64() >= a.loss {
			targets = append(targets, r)
		}
	}
	a.mu.RUnlock()

	for _, r := range targets {
		// Receivers must not keep payload, each gets its own copy
		buf := make([]byte, len(payload))
		copy(buf, payload)
		r.receive(from, buf)
	}
	return len(targets) > 0
}

// AirRadio is a Radio attached to an Air medium.
type AirRadio struct {
	air     *Air
	addr    MAC
	channel int

	mu     sync.RWMutex
	peers  map[MAC]int
	onSent func(addr MAC, ok bool)
	onRecv func(from MAC, payload []byte)
	closed bool
}

var _ Radio = (*AirRadio)(nil)

func (r *AirRadio) Address() MAC { return r.addr }

func (r *AirRadio) Channel() int { return r.channel }

// AddPeer registers addr. Channel 0 means the radio's own channel.
func (r *AirRadio) AddPeer(addr MAC, channel int) error {
	if channel != 0 && channel != r.channel {
		return fmt.Errorf("%w: peer on %d, radio on %d", ErrChannel, channel, r.channel)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if _, ok := r.peers[addr]; ok {
		return ErrPeerExists
	}
	r.peers[addr] = r.channel
	return nil
}

func (r *AirRadio) RemovePeer(addr MAC) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.peers[addr]; !ok {
		return ErrPeerNotFound
	}
	delete(r.peers, addr)
	return nil
}

func (r *AirRadio) HasPeer(addr MAC) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.peers[addr]
	return ok
}

// Peers returns the registered peer addresses.
func (r *AirRadio) Peers() []MAC {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MAC, 0, len(r.peers))
	for addr := range r.peers {
		out = append(out, addr)
	}
	return out
}

func (r *AirRadio) Send(addr MAC, payload []byte) error {
	if len(payload) == 0 || len(payload) > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrPayloadSize, len(payload))
	}
	r.mu.RLock()
	closed := r.closed
	_, registered := r.peers[addr]
	onSent := r.onSent
	r.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if !registered {
		return fmt.Errorf("%w: %s", ErrPeerNotFound, addr)
	}

	ok := r.air.deliver(r.addr, addr, r.channel, payload)
	if onSent != nil {
		onSent(addr, ok)
	}
	return nil
}

func (r *AirRadio) OnSendComplete(fn func(addr MAC, ok bool)) {
	r.mu.Lock()
	r.onSent = fn
	r.mu.Unlock()
}

func (r *AirRadio) OnReceive(fn func(from MAC, payload []byte)) {
	r.mu.Lock()
	r.onRecv = fn
	r.mu.Unlock()
}

func (r *AirRadio) receive(from MAC, payload []byte) {
	r.mu.RLock()
	fn := r.onRecv
	closed := r.closed
	r.mu.RUnlock()
	if closed || fn == nil {
		return
	}
	fn(from, payload)
}

// Close detaches the radio from the medium.
func (r *AirRadio) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	r.air.detach(r.addr)
	return nil
}
