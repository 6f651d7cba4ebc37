package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/rclass/internal/app"
	"github.com/dkeye/rclass/internal/app/orch"
	"github.com/dkeye/rclass/internal/core"
	"github.com/dkeye/rclass/internal/core/mocks"
	"github.com/dkeye/rclass/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type stubWorker struct{}

func (stubWorker) CreateRouter(context.Context, []core.Codec) (core.Router, error) {
	return stubRouter{}, nil
}

type stubRouter struct{}

func (stubRouter) ID() string { return "r" }
func (stubRouter) Capabilities() core.Capabilities {
	return core.Capabilities{Codecs: []core.Codec{{Kind: core.KindAudio, MimeType: "audio/opus", ClockRate: 48000}}}
}
func (stubRouter) CreateTransport(context.Context, core.TransportOptions) (core.Transport, error) {
	return nil, assert.AnError
}
func (stubRouter) CanConsume(string, core.Capabilities) bool { return false }
func (stubRouter) Close() error                              { return nil }

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func newController(t *testing.T) (*SignalWSController, *mocks.MockStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(nil),
		Rooms:    core.NewRoomManager(ctx, store),
		Worker:   stubWorker{},
		Store:    store,
		Policy:   domain.DefaultPolicy(),
	}
	t.Cleanup(func() {
		cancel()
		deadline := time.Now().Add(2 * time.Second)
		for o.Rooms.Len() > 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
	})
	return NewSignalWSController(o, Options{ChatLimit: 2, ChatInterval: time.Minute}), store
}

func TestDispatchErrors(t *testing.T) {
	ctl, _ := newController(t)
	ctx := context.Background()
	sid := app.SessionID("s1")
	ctl.Orch.Registry.BindSignal(sid, nopConn{}, func() {})

	resp := ctl.dispatch(ctx, sid, request{ID: json.RawMessage(`7`), Name: "no_such_thing"})
	assert.False(t, resp.Result)
	assert.Equal(t, "bad payload", resp.Data)
	assert.JSONEq(t, `7`, string(resp.ID))

	resp = ctl.dispatch(ctx, sid, request{Name: "ping"})
	assert.True(t, resp.Result)
	assert.Equal(t, "pong", resp.Data)

	resp = ctl.dispatch(ctx, sid, request{Name: "join_room", Payload: json.RawMessage(`{}`)})
	assert.False(t, resp.Result)
	assert.Equal(t, "bad payload", resp.Data, "room_name is required")

	resp = ctl.dispatch(ctx, sid, request{Name: "join_room", Payload: json.RawMessage(`{"room_name":"math"}`)})
	assert.Equal(t, "log on required", resp.Data)

	resp = ctl.dispatch(ctx, sid, request{Name: "chat_send", Payload: json.RawMessage(`{"msg":"hi","mode":"ALL"`)})
	assert.Equal(t, "bad payload", resp.Data, "truncated json")

	resp = ctl.dispatch(ctx, sid, request{Name: "add_class_time", Payload: json.RawMessage(`{"class_id":"c","start_day":"MOON","start_time":"09:00","end_day":"MON","end_time":"10:00"}`)})
	assert.Equal(t, "bad payload", resp.Data)
}

func TestDispatchHidesInternalErrors(t *testing.T) {
	ctl, store := newController(t)
	ctx := context.Background()
	sid := app.SessionID("s1")
	ctl.Orch.Registry.BindSignal(sid, nopConn{}, func() {})

	store.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return(nil, assert.AnError)
	resp := ctl.dispatch(ctx, sid, request{Name: "login", Payload: json.RawMessage(`{"login":"alice","password":"pw"}`)})
	assert.False(t, resp.Result)
	assert.Equal(t, "internal error", resp.Data)
}

func TestChatIsRateLimited(t *testing.T) {
	ctl, store := newController(t)
	ctx := context.Background()
	sid := app.SessionID("s1")
	ctl.Orch.Registry.BindSignal(sid, nopConn{}, func() {})
	ctl.Orch.Adopt(sid, &domain.Account{ID: "alice", Name: "alice", Type: domain.AccountMember})

	store.EXPECT().GetClassSchedule(gomock.Any(), domain.RoomName("math"), gomock.Any()).Return(nil, nil)
	store.EXPECT().StoreRoom(gomock.Any(), gomock.Any()).Return("rec-1", nil)
	store.EXPECT().ArchiveRoom(gomock.Any(), gomock.Any()).Return(nil)

	resp := ctl.dispatch(ctx, sid, request{Name: "join_room", Payload: json.RawMessage(`{"room_name":"math"}`)})
	require.True(t, resp.Result, resp.Data)

	send := request{Name: "chat_send", Payload: json.RawMessage(`{"msg":"hi","mode":"ALL"}`)}
	assert.True(t, ctl.dispatch(ctx, sid, send).Result)
	assert.True(t, ctl.dispatch(ctx, sid, send).Result)
	resp = ctl.dispatch(ctx, sid, send)
	assert.False(t, resp.Result)
	assert.Equal(t, "rate limited", resp.Data)

	resp = ctl.dispatch(ctx, sid, request{Name: "leave"})
	assert.True(t, resp.Result)
}

func TestWebsocketSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctl, store := newController(t)
	acc := &domain.Account{ID: "alice", Name: "Alice", Type: domain.AccountMember}

	engine := gin.New()
	engine.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(context.Background(), c, acc) })
	srv := httptest.NewServer(engine)
	defer srv.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)

	call := func(id int, name, payload string) map[string]any {
		t.Helper()
		msg := `{"id":` + jsonInt(id) + `,"name":"` + name + `"`
		if payload != "" {
			msg += `,"payload":` + payload
		}
		msg += `}`
		require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(msg)))
		require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
		for {
			_, data, err := ws.ReadMessage()
			require.NoError(t, err)
			var out map[string]any
			require.NoError(t, json.Unmarshal(data, &out))
			if out["type"] == "response" {
				return out
			}
		}
	}

	who := call(1, "whoami", "")
	assert.Equal(t, true, who["result"])
	assert.EqualValues(t, 1, who["id"])
	assert.Equal(t, "Alice", who["data"].(map[string]any)["name"])

	store.EXPECT().GetClassSchedule(gomock.Any(), domain.RoomName("math"), gomock.Any()).Return(nil, nil)
	store.EXPECT().StoreRoom(gomock.Any(), gomock.Any()).Return("rec-1", nil)
	archived := make(chan struct{})
	store.EXPECT().ArchiveRoom(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, domain.RoomArchive) error {
		close(archived)
		return nil
	})

	joined := call(2, "join_room", `{"room_name":"math"}`)
	require.Equal(t, true, joined["result"], joined["data"])
	assert.Equal(t, true, joined["data"].(map[string]any)["creator"])

	// Dropping the socket runs the disconnect path and empties the room.
	require.NoError(t, ws.Close())
	select {
	case <-archived:
	case <-time.After(3 * time.Second):
		t.Fatal("room was not archived after disconnect")
	}
	assert.Eventually(t, func() bool { return ctl.Orch.Rooms.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func jsonInt(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}
