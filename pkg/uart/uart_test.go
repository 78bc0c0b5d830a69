package uart

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/envlink/pkg/telemetry"
)

func collect(t *testing.T, r *Reader) []Message {
	t.Helper()
	var out []Message
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m, ok := <-r.Messages():
			if !ok {
				return out
			}
			out = append(out, m)
		case <-timeout:
			t.Fatal("timed out waiting for messages")
		}
	}
}

func TestReader_Stream(t *testing.T) {
	input := strings.Join([]string{
		`rst:0x1 (POWERON_RESET),boot:0x13`,
		`{"type":"gateway_boot","channel":1,"mac":"98:f4:ab:6c:e7:88"}`,
		``,
		`{"type":"sample","id":"A1","t":23.45,"h":56.70,"p":1013.20,"seq":7,"from":"24:6f:28:aa:bb:cc"}`,
		`{"type":"sample","id":"B2","t":21.00`,
		`{"type":"sample","id":"B2","t":21.00,"h":40.00,"p":1000.00,"seq":0,"from":"24:6f:28:aa:bb:cd"}`,
	}, "\n")

	r := NewStreamReader(io.NopCloser(strings.NewReader(input)), 0)
	fixed := time.Unix(1700000000, 0)
	r.now = func() time.Time { return fixed }
	require.NoError(t, r.Connect())

	msgs := collect(t, r)
	require.Len(t, msgs, 3)

	assert.Equal(t, telemetry.RecordBoot, msgs[0].Type)
	assert.Equal(t, 1, msgs[0].Channel)
	assert.Equal(t, "98:f4:ab:6c:e7:88", msgs[0].MAC)

	assert.Equal(t, "A1", msgs[1].ID)
	assert.InDelta(t, 23.45, msgs[1].T, 1e-9)
	assert.Equal(t, uint32(7), msgs[1].Seq)
	assert.Equal(t, fixed, msgs[1].Timestamp)

	assert.Equal(t, "B2", msgs[2].ID)
	assert.Equal(t, uint32(2), r.Skipped())

	require.NoError(t, r.Close())
}

func TestReader_Close(t *testing.T) {
	pr, pw := io.Pipe()
	r := NewStreamReader(pr, 1)
	require.NoError(t, r.Connect())
	assert.True(t, r.IsConnected())

	go func() {
		pw.Write([]byte(`{"type":"sample","id":"A1","t":1,"h":2,"p":3,"seq":1,"from":"x"}` + "\n"))
	}()

	select {
	case m := <-r.Messages():
		assert.Equal(t, "A1", m.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}

	require.NoError(t, r.Close())
	assert.False(t, r.IsConnected())

	_, ok := <-r.Messages()
	assert.False(t, ok, "messages channel must be closed")

	// Closing twice is harmless
	assert.NoError(t, r.Close())
}

func TestReader_ConnectTwice(t *testing.T) {
	pr, _ := io.Pipe()
	r := NewStreamReader(pr, 0)
	require.NoError(t, r.Connect())
	defer r.Close()

	assert.Error(t, r.Connect())
}

func TestOpen_MissingPort(t *testing.T) {
	_, err := Open("/dev/envlink-does-not-exist", 0)
	assert.Error(t, err)

	r := NewReader("/dev/envlink-does-not-exist", DefaultBaudRate, 0)
	assert.Error(t, r.Connect())
	assert.False(t, r.IsConnected())
}
