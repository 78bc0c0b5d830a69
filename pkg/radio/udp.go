package radio

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
)

// headerSize is the UDP datagram header: magic(2) | channel(1) | dst(6) | src(6).
const headerSize = 2 + 1 + 6 + 6

var udpMagic = [2]byte{'E', 'N'}

// UDP emulates the radio link over UDP datagrams so nodes can run as separate
// processes. All datagrams go to a single target address (the "air"); the
// receiver filters by channel and destination address.
type UDP struct {
	addr    MAC
	channel int
	conn    *net.UDPConn
	target  *net.UDPAddr

	mu     sync.RWMutex
	peers  map[MAC]int
	onSent func(addr MAC, ok bool)
	onRecv func(from MAC, payload []byte)
	closed bool

	wg sync.WaitGroup
}

var _ Radio = (*UDP)(nil)

// ListenUDP opens a UDP radio listening on listen. target may be empty for a
// receive-only node.
func ListenUDP(addr MAC, channel int, listen, target string) (*UDP, error) {
	if !ValidChannel(channel) {
		return nil, fmt.Errorf("%w: %d", ErrChannel, channel)
	}

	laddr, err := net.ResolveUDPAddr("udp", listen)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve listen address %s: %w", listen, err)
	}

	var taddr *net.UDPAddr
	if target != "" {
		taddr, err = net.ResolveUDPAddr("udp", target)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve target address %s: %w", target, err)
		}
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", listen, err)
	}

	u := &UDP{
		addr:    addr,
		channel: channel,
		conn:    conn,
		target:  taddr,
		peers:   make(map[MAC]int),
	}

	u.wg.Add(1)
	go u.readLoop()

	return u, nil
}

// LocalAddr returns the bound UDP address.
func (u *UDP) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

func (u *UDP) Address() MAC { return u.addr }

func (u *UDP) Channel() int { return u.channel }

func (u *UDP) AddPeer(addr MAC, channel int) error {
	if channel != 0 && channel != u.channel {
		return fmt.Errorf("%w: peer on %d, radio on %d", ErrChannel, channel, u.channel)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrClosed
	}
	if _, ok := u.peers[addr]; ok {
		return ErrPeerExists
	}
	u.peers[addr] = u.channel
	return nil
}

func (u *UDP) RemovePeer(addr MAC) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.peers[addr]; !ok {
		return ErrPeerNotFound
	}
	delete(u.peers, addr)
	return nil
}

func (u *UDP) HasPeer(addr MAC) bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, ok := u.peers[addr]
	return ok
}

// Send writes one datagram to the target. Completion reports whether the
// datagram left the socket; there is no link-level acknowledgement.
func (u *UDP) Send(addr MAC, payload []byte) error {
	if len(payload) == 0 || len(payload) > MaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrPayloadSize, len(payload))
	}
	u.mu.RLock()
	closed := u.closed
	_, registered := u.peers[addr]
	onSent := u.onSent
	u.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if !registered {
		return fmt.Errorf("%w: %s", ErrPeerNotFound, addr)
	}
	if u.target == nil {
		return errors.New("no target address configured")
	}

	dgram := make([]byte, headerSize+len(payload))
	copy(dgram[0:2], udpMagic[:])
	dgram[2] = byte(u.channel)
	copy(dgram[3:9], addr[:])
	copy(dgram[9:15], u.addr[:])
	copy(dgram[headerSize:], payload)

	_, err := u.conn.WriteToUDP(dgram, u.target)
	if onSent != nil {
		onSent(addr, err == nil)
	}
	return nil
}

func (u *UDP) OnSendComplete(fn func(addr MAC, ok bool)) {
	u.mu.Lock()
	u.onSent = fn
	u.mu.Unlock()
}

func (u *UDP) OnReceive(fn func(from MAC, payload []byte)) {
	u.mu.Lock()
	u.onRecv = fn
	u.mu.Unlock()
}

// Close stops the receive loop and closes the socket.
func (u *UDP) Close() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return nil
	}
	u.closed = true
	u.mu.Unlock()

	err := u.conn.Close()
	u.wg.Wait()
	return err
}

func (u *UDP) readLoop() {
	defer u.wg.Done()

	buf := make([]byte, headerSize+MaxPayload+1)
	for {
		n, _, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			u.mu.RLock()
			closed := u.closed
			u.mu.RUnlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("[radio] udp read: %v", err)
			continue
		}

		from, payload, ok := u.accept(buf[:n])
		if !ok {
			continue
		}

		u.mu.RLock()
		fn := u.onRecv
		u.mu.RUnlock()
		if fn != nil {
			fn(from, payload)
		}
	}
}

// accept parses a datagram and filters it by channel and destination.
func (u *UDP) accept(dgram []byte) (MAC, []byte, bool) {
	if len(dgram) <= headerSize || dgram[0] != udpMagic[0] || dgram[1] != udpMagic[1] {
		return MAC{}, nil, false
	}
	if int(dgram[2]) != u.channel {
		return MAC{}, nil, false
	}
	var dst, src MAC
	copy(dst[:], dgram[3:9])
	copy(src[:], dgram[9:15])
	if dst != u.addr && dst != Broadcast {
		return MAC{}, nil, false
	}
	if src == u.addr {
		return MAC{}, nil, false
	}
	return src, dgram[headerSize:], true
}
