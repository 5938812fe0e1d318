// Package observer serves the chunk-watch WebSocket: a subscriber names a
// square of chunks and receives each chunk's contents whenever its key moves.
package observer

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"voxelcraft.ai/worldstore/internal/observerproto"
	"voxelcraft.ai/worldstore/internal/persistence/worlddb"
)

const DefaultPollInterval = 500 * time.Millisecond

type Server struct {
	db   *worlddb.DB
	log  log.FieldLogger
	poll time.Duration

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(db *worlddb.DB, poll time.Duration, logger log.FieldLogger) *Server {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Server{
		db:   db,
		log:  logger,
		poll: poll,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type chunkPos struct{ p, q int }

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		logger := s.log.WithField("session", s.nextID.Add(1))

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, err := observerproto.ParseSubscribe(raw)
		if err != nil {
			logger.WithError(err).Debug("bad subscribe")
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		logger.WithFields(log.Fields{"p": sub.P, "q": sub.Q, "radius": sub.Radius}).Debug("observer subscribed")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		subs := make(chan observerproto.SubscribeMsg, 1)
		subs <- sub

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			writeErr <- s.stream(ctx, conn, subs)
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			next, err := observerproto.ParseSubscribe(raw)
			if err != nil {
				continue
			}
			select {
			case <-subs:
			default:
			}
			subs <- next
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case err := <-writeErr:
			if err != nil && err != context.Canceled {
				logger.WithError(err).Debug("observer stream ended")
			}
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// stream polls chunk keys in the subscribed square and pushes changed chunks
// followed by a STATS message.
func (s *Server) stream(ctx context.Context, conn *websocket.Conn, subs <-chan observerproto.SubscribeMsg) error {
	t := time.NewTicker(s.poll)
	defer t.Stop()

	var sub observerproto.SubscribeMsg
	sent := make(map[chunkPos]int)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sub = <-subs:
			sent = make(map[chunkPos]int)
		case <-t.C:
		}

		for p := sub.P - sub.Radius; p <= sub.P+sub.Radius; p++ {
			for q := sub.Q - sub.Radius; q <= sub.Q+sub.Radius; q++ {
				key := s.db.GetKey(p, q)
				if last, ok := sent[chunkPos{p, q}]; ok && last == key {
					continue
				}
				if err := s.write(conn, s.chunk(p, q, key)); err != nil {
					return err
				}
				sent[chunkPos{p, q}] = key
			}
		}

		st := s.db.Stats()
		if err := s.write(conn, observerproto.StatsMsg{
			Type:          observerproto.TypeStats,
			Enabled:       st.Enabled,
			State:         st.State,
			QueueDepth:    st.QueueDepth,
			QueueCapacity: st.QueueCapacity,
		}); err != nil {
			return err
		}
	}
}

func (s *Server) chunk(p, q, key int) observerproto.ChunkMsg {
	msg := observerproto.ChunkMsg{
		Type:   observerproto.TypeChunk,
		P:      p,
		Q:      q,
		Key:    key,
		Blocks: []observerproto.Voxel{},
		Lights: []observerproto.Voxel{},
		Damage: []observerproto.Voxel{},
		Signs:  []observerproto.Sign{},
	}
	blocks, lights, damage := worlddb.Voxels{}, worlddb.Voxels{}, worlddb.Voxels{}
	s.db.LoadBlocks(p, q, blocks)
	s.db.LoadLights(p, q, lights)
	s.db.LoadDamage(p, q, damage)
	msg.Blocks = appendVoxels(msg.Blocks, blocks)
	msg.Lights = appendVoxels(msg.Lights, lights)
	msg.Damage = appendVoxels(msg.Damage, damage)

	var signs worlddb.SignList
	s.db.LoadSigns(p, q, &signs)
	for _, sg := range signs {
		msg.Signs = append(msg.Signs, observerproto.Sign{X: sg.X, Y: sg.Y, Z: sg.Z, Face: sg.Face, Text: sg.Text})
	}
	return msg
}

func appendVoxels(dst []observerproto.Voxel, v worlddb.Voxels) []observerproto.Voxel {
	for _, pos := range v.Sorted() {
		dst = append(dst, observerproto.Voxel{X: pos.X, Y: pos.Y, Z: pos.Z, W: v[pos]})
	}
	return dst
}

func (s *Server) write(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
