package radio

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// MaxPayload is the largest payload a single connectionless frame can carry.
const MaxPayload = 250

var (
	ErrPeerExists   = errors.New("peer already registered")
	ErrPeerNotFound = errors.New("peer not registered")
	ErrPayloadSize  = errors.New("payload size out of range")
	ErrClosed       = errors.New("radio closed")
	ErrChannel      = errors.New("invalid channel")
)

// MAC is a radio hardware address.
type MAC [6]byte

// Broadcast reaches every node on a channel.
var Broadcast = MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// String formats the address as six lowercase hex octets separated by colons.
func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsZero reports whether the address is unset.
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// ParseMAC parses "aa:bb:cc:dd:ee:ff" (or '-' separated) notation.
func ParseMAC(s string) (MAC, error) {
	var m MAC
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != len(m) {
		return MAC{}, fmt.Errorf("invalid MAC %q: expected 6 octets, got %d", s, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return MAC{}, fmt.Errorf("invalid MAC %q: %w", s, err)
		}
		m[i] = byte(v)
	}
	return m, nil
}

// RandomMAC returns a locally administered unicast address derived from a
// random UUID. Used for simulated nodes that have no configured address.
func RandomMAC() MAC {
	id := uuid.New()
	var m MAC
	copy(m[:], id[:6])
	m[0] = (m[0] | 0x02) &^ 0x01
	return m
}

// Radio is a connectionless point-to-point radio interface.
//
// Completion and receive callbacks may run on a goroutine other than the
// caller's and must not block.
type Radio interface {
	// Address returns the local hardware address.
	Address() MAC
	// Channel returns the operating channel.
	Channel() int
	// AddPeer registers a destination on a channel.
	AddPeer(addr MAC, channel int) error
	// RemovePeer unregisters a destination.
	RemovePeer(addr MAC) error
	// HasPeer reports whether addr is registered.
	HasPeer(addr MAC) bool
	// Send hands payload to the radio for a registered peer. The returned
	// error only reflects the hand-off; delivery is reported through the
	// send-complete callback.
	Send(addr MAC, payload []byte) error
	// OnSendComplete registers the send completion callback.
	OnSendComplete(fn func(addr MAC, ok bool))
	// OnReceive registers the receive callback. payload is only valid
	// for the duration of the call.
	OnReceive(fn func(from MAC, payload []byte))
	// Close releases the radio.
	Close() error
}

// ValidChannel reports whether ch is a usable 2.4 GHz channel number.
func ValidChannel(ch int) bool {
	return ch >= 1 && ch <= 14
}
