// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbank/internal/audio"
	"fbank/pkg/fbank"
	"fbank/pkg/utils"
)

const testSampleRate = 16000

func newTestServer(t *testing.T, opts ServerOptions) (*Server, *fbank.Extractor, string) {
	t.Helper()
	ext, err := fbank.New(fbank.DefaultOptions())
	require.NoError(t, err)

	srv := NewServer(ext, opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ext, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dialTest(t *testing.T, baseURL string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, baseURL+PathFeatures)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func pcmBytes(pcm []int16) []byte {
	out := make([]byte, 2*len(pcm))
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func TestServerExtractRawPCM(t *testing.T) {
	observer := &utils.MockTransport{}
	_, ext, url := newTestServer(t, ServerOptions{Observer: observer})
	client := dialTest(t, url)

	pcm := utils.GenerateSineWavePCM16(testSampleRate/2, testSampleRate, 440)
	feats, err := client.Extract(context.Background(), pcmBytes(pcm))
	require.NoError(t, err)

	want, err := ext.ExtractPCM16(pcm)
	require.NoError(t, err)

	_, err = uuid.Parse(feats.ID)
	assert.NoError(t, err)
	assert.Equal(t, want.Rows(), feats.Frames)
	assert.Equal(t, ext.Dim(), feats.Bins)
	assert.Equal(t, want, feats.Data)

	msgs := observer.Messages()
	require.Len(t, msgs, 1)
	ev, ok := msgs[0].(Event)
	require.True(t, ok)
	assert.Equal(t, feats.ID, ev.ID)
	assert.Equal(t, len(pcm), ev.Samples)
	assert.Equal(t, feats.Frames, ev.Frames)
	assert.Equal(t, 2*len(pcm), ev.Bytes)
	assert.Empty(t, ev.Err)
}

func TestServerExtractWAV(t *testing.T) {
	_, ext, url := newTestServer(t, ServerOptions{})
	client := dialTest(t, url)

	pcm := utils.GenerateSineWavePCM16(4000, testSampleRate, 1000)
	path := filepath.Join(t.TempDir(), "utt.wav")
	require.NoError(t, audio.WriteFile(path, pcm, testSampleRate))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	feats, err := client.Extract(context.Background(), data)
	require.NoError(t, err)

	want, err := ext.ExtractPCM16(pcm)
	require.NoError(t, err)
	assert.Equal(t, want, feats.Data)
}

func TestServerManyRequestsOneConnection(t *testing.T) {
	_, ext, url := newTestServer(t, ServerOptions{})
	client := dialTest(t, url)

	for i := 1; i <= 3; i++ {
		pcm := utils.GenerateSineWavePCM16(i*1600, testSampleRate, 300*float64(i))
		feats, err := client.Extract(context.Background(), pcmBytes(pcm))
		require.NoError(t, err)
		assert.Equal(t, ext.NumFrames(len(pcm)), feats.Frames)
	}
}

func TestServerShortInput(t *testing.T) {
	_, _, url := newTestServer(t, ServerOptions{})
	client := dialTest(t, url)

	feats, err := client.Extract(context.Background(), pcmBytes(make([]int16, 100)))
	require.NoError(t, err)
	assert.Equal(t, 0, feats.Frames)
	assert.Empty(t, feats.Data)
}

func TestServerCMVN(t *testing.T) {
	_, _, url := newTestServer(t, ServerOptions{CMVN: true})
	client := dialTest(t, url)

	pcm := utils.GenerateSineWavePCM16(testSampleRate, testSampleRate, 440)
	feats, err := client.Extract(context.Background(), pcmBytes(pcm))
	require.NoError(t, err)
	require.NotZero(t, feats.Frames)

	for j := 0; j < feats.Bins; j++ {
		var sum float64
		for i := range feats.Data {
			sum += float64(feats.Data[i][j])
		}
		assert.InDelta(t, 0, sum/float64(feats.Frames), 1e-3, "column %d", j)
	}
}

func TestServerErrorReplies(t *testing.T) {
	observer := &utils.MockTransport{}
	_, _, url := newTestServer(t, ServerOptions{Observer: observer})
	client := dialTest(t, url)

	_, err := client.Extract(context.Background(), []byte{1, 2, 3})
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Contains(t, remote.Message, "pcm16 byte length")

	// The connection survives a rejected request.
	feats, err := client.Extract(context.Background(), pcmBytes(make([]int16, 800)))
	require.NoError(t, err)
	assert.Equal(t, 3, feats.Frames)

	msgs := observer.Messages()
	require.Len(t, msgs, 2)
	assert.NotEmpty(t, msgs[0].(Event).Err)
	assert.Empty(t, msgs[1].(Event).Err)
}

func TestServerRejectsTextMessages(t *testing.T) {
	_, _, url := newTestServer(t, ServerOptions{})
	conn, _, err := websocket.DefaultDialer.Dial(url+PathFeatures, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)

	var reply ErrorReply
	require.NoError(t, json.Unmarshal(data, &reply))
	assert.NotEmpty(t, reply.ID)
	assert.Equal(t, ErrTextMessage.Error(), reply.Error)
}

func TestServerReadLimit(t *testing.T) {
	_, _, url := newTestServer(t, ServerOptions{MaxMessageBytes: 64})
	client := dialTest(t, url)

	_, err := client.Extract(context.Background(), make([]byte, 1024))
	require.Error(t, err)
	// The server drops the connection instead of replying.
	var remote *RemoteError
	assert.False(t, errors.As(err, &remote))
}

func TestHealth(t *testing.T) {
	_, ext, url := newTestServer(t, ServerOptions{})

	resp, err := http.Get("http" + strings.TrimPrefix(url, "ws") + PathHealth)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
		Dim    int    `json:"dim"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, ext.Dim(), body.Dim)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ext, err := fbank.New(fbank.DefaultOptions())
	require.NoError(t, err)
	srv := NewServer(ext, ServerOptions{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := dialTest(t, "ws://"+ln.Addr().String())
	_, err = client.Extract(context.Background(), pcmBytes(make([]int16, 800)))
	require.NoError(t, err)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Equal(t, 0, srv.Clients())

	_, err = client.Extract(context.Background(), pcmBytes(make([]int16, 800)))
	assert.Error(t, err)
}

func TestServerCloseIdempotent(t *testing.T) {
	ext, err := fbank.New(fbank.DefaultOptions())
	require.NoError(t, err)
	srv := NewServer(ext, ServerOptions{})
	assert.NoError(t, srv.Close())
	assert.NoError(t, srv.Close())
}

func TestClientContextCancel(t *testing.T) {
	// A bare websocket endpoint that never replies.
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer ts.Close()

	c, err := Dial(context.Background(), "ws"+strings.TrimPrefix(ts.URL, "http"))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Extract(ctx, []byte{0, 0})
	assert.Error(t, err)
}

func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/fbank")
	assert.Error(t, err)
}
