package server

import (
	"bufio"
	"context"
	"encoding/json"
	"image"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/superimpose/internal/capture"
	"github.com/ayusman/superimpose/internal/detector"
	"github.com/ayusman/superimpose/internal/scene"
	"github.com/ayusman/superimpose/internal/store"
)

// swapState is a StateSource tests can change between broadcasts.
type swapState struct {
	mu     sync.Mutex
	status scene.Status
}

func (s *swapState) Status() scene.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *swapState) set(st scene.Status) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func TestAPI_ScoresWorkflow(t *testing.T) {
	st, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	st.Results().Record(7, 600)

	ts := httptest.NewServer(New(Config{Store: st}))
	defer ts.Close()
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/api/scores")
	if err != nil {
		t.Fatalf("GET /api/scores error = %v", err)
	}
	var listed struct {
		HighScore int `json:"high_score"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if listed.HighScore != 7 {
		t.Fatalf("high score = %d, want 7", listed.HighScore)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/scores", nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	if high, _ := st.Results().HighScore(); high != 0 {
		t.Errorf("high score after reset = %d, want 0", high)
	}
}

func TestPosesHandler_PublishesToFeed(t *testing.T) {
	feed := detector.NewFeed()
	ts := httptest.NewServer(New(Config{Feed: feed}))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/api/poses"), nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	// A malformed message is dropped without closing the connection.
	conn.WriteMessage(websocket.TextMessage, []byte("{not json"))

	msg := `{"poses":[{"keypoints":[{"name":"nose","x":320,"y":165,"confidence":0.9},{"name":"tail","x":1,"y":1,"confidence":1}]}]}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !feed.Started() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !feed.Started() {
		t.Fatal("feed never received the poses")
	}

	poses := feed.Poses()
	if len(poses) != 1 || len(poses[0]) != 1 {
		t.Fatalf("poses = %+v, want one pose with only the nose", poses)
	}
	if k := poses[0][detector.Nose]; k.X != 320 || k.Y != 165 || k.Confidence != 0.9 {
		t.Errorf("nose = %+v", k)
	}
}

func TestLiveHandler_Broadcasts(t *testing.T) {
	state := &swapState{status: scene.Status{Scene: scene.NameMainMenu}}
	srv := New(Config{State: state})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/api/live"), nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg liveMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if msg.State.Scene != scene.NameMainMenu || msg.Timestamp == 0 {
		t.Errorf("initial message = %+v", msg)
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.Live().Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	state.set(scene.Status{Scene: scene.NameGame, Score: 2, Lives: 3})
	srv.Live().Broadcast()

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if msg.State.Scene != scene.NameGame || msg.State.Score != 2 {
		t.Errorf("broadcast message = %+v", msg)
	}
}

func TestLiveHandler_DefaultInterval(t *testing.T) {
	h := NewLiveHandler(&swapState{}, 0)
	if h.interval != DefaultLiveInterval {
		t.Errorf("interval = %v, want %v", h.interval, DefaultLiveInterval)
	}
}

func TestStreamHandler_ServesFrames(t *testing.T) {
	frames := capture.NewFrameBuffer()
	ts := httptest.NewServer(New(Config{Frames: frames}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)
	go func() {
		time.Sleep(20 * time.Millisecond)
		frames.Put(image.NewGray(image.Rect(0, 0, 1, 1)), []byte("JPEGDATA"))
	}()

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "multipart/x-mixed-replace; boundary=frame" {
		t.Errorf("Content-Type = %s", ct)
	}

	r := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 5 {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read error = %v after %q", err, lines)
		}
		lines = append(lines, strings.TrimRight(line, "\r\n"))
	}

	want := []string{"--frame", "Content-Type: image/jpeg", "Content-Length: 8", "", "JPEGDATA"}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestServer_RunShutsDown(t *testing.T) {
	srv := New(Config{State: &swapState{}})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/health"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		if resp, err = http.Get(url); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
