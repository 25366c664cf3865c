package api

import (
	"time"

	"github.com/blueplan/notes-go/internal/notes/events"
	logx "github.com/blueplan/notes-go/internal/notes/log"
	"github.com/blueplan/notes-go/internal/notes/notes"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// handleEvents 通过 websocket 推送笔记变更：先发送一次快照，再按写入顺序推送后续变更
func (r *Router) handleEvents(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已写出错误响应
		r.logger.Warn(ctx, "websocket upgrade failed", logx.KV("error", err))
		return
	}
	defer conn.Close()

	// 快照与订阅在同一把读锁内完成：快照之后的每个变更恰好推送一次
	var (
		sub      *events.Subscription
		snapshot []notes.Note
	)
	r.store.View(func(list []notes.Note) {
		snapshot = list
		sub = r.hub.Subscribe()
	})
	defer sub.Close()

	r.logger.Debug(ctx, "events.subscribe", logx.KV("client_ip", c.ClientIP()))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeEvent(conn, events.NewSnapshot(snapshot)); err != nil {
		r.logger.Debug(ctx, "events.write", logx.KV("error", err))
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				// hub 已关闭
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := writeEvent(conn, ev); err != nil {
				r.logger.Debug(ctx, "events.write", logx.KV("error", err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev events.StreamEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(ev)
}
