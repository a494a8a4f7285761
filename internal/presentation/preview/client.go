package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/penwyp/go-project-history/internal/core/model"
	"github.com/penwyp/go-project-history/internal/util"
)

// Message types exchanged with the preview surface
const (
	TypeReady         = "ready"
	TypeImportProject = "importproject"
	TypeAck           = "ack"
)

var (
	// ErrClosed is returned once the connection to the surface is gone
	ErrClosed = errors.New("preview surface connection closed")
	// ErrImportRejected is returned when the surface acknowledges an import with success=false
	ErrImportRejected = errors.New("preview surface rejected import")
)

// Surface renders a project file set
type Surface interface {
	ImportProject(ctx context.Context, files model.ProjectFileSet) error
}

// Message is the envelope for every frame in both directions
type Message struct {
	Type    string               `json:"type"`
	ID      int64                `json:"id,omitempty"`
	Project model.ProjectFileSet `json:"project,omitempty"`
	Success bool                 `json:"success,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// Client talks to a preview surface over a WebSocket.
// Imports issued before the surface reports ready wait for it.
type Client struct {
	conn *websocket.Conn

	writeMu  sync.Mutex
	importMu sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.Mutex
	nextID  int64
	waiters map[int64]chan Message

	done    chan struct{}
	doneErr error
}

// Dial connects to the surface at url
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to preview surface %s: %w", url, err)
	}
	util.LogInfof("Connected to preview surface %s", url)
	return NewClient(conn), nil
}

// NewClient wraps an established connection and starts reading from it
func NewClient(conn *websocket.Conn) *Client {
	c := &Client{
		conn:    conn,
		ready:   make(chan struct{}),
		waiters: make(map[int64]chan Message),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// ImportProject sends files to the surface and waits for its acknowledgement.
// Calls are serialized so at most one import is outstanding.
func (c *Client) ImportProject(ctx context.Context, files model.ProjectFileSet) error {
	c.importMu.Lock()
	defer c.importMu.Unlock()

	select {
	case <-c.ready:
	case <-c.done:
		return c.closedErr()
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	waiter := make(chan Message, 1)
	c.waiters[id] = waiter
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.waiters, id)
		c.mu.Unlock()
	}()

	if err := c.send(Message{Type: TypeImportProject, ID: id, Project: files}); err != nil {
		return err
	}
	util.LogDebugf("Sent import %d (%s)", id, util.Plural(len(files), "file", "files"))

	select {
	case ack := <-waiter:
		if !ack.Success {
			return fmt.Errorf("%w: %s", ErrImportRejected, ack.Error)
		}
		return nil
	case <-c.done:
		return c.closedErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts the connection down
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Client) send(msg Message) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop() {
	var err error
	defer func() {
		c.doneErr = err
		close(c.done)
	}()

	for {
		var data []byte
		_, data, err = c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg Message
		if uerr := sonic.Unmarshal(data, &msg); uerr != nil {
			util.LogWarnf("Ignoring malformed preview message: %v", uerr)
			continue
		}

		switch msg.Type {
		case TypeReady:
			c.readyOnce.Do(func() {
				util.LogDebug("Preview surface ready")
				close(c.ready)
			})
		case TypeAck:
			c.mu.Lock()
			waiter, ok := c.waiters[msg.ID]
			c.mu.Unlock()
			if ok {
				select {
				case waiter <- msg:
				default:
					util.LogDebugf("Dropping repeated ack for import %d", msg.ID)
				}
			} else {
				util.LogDebugf("Dropping ack for unknown import %d", msg.ID)
			}
		default:
			util.LogDebugf("Ignoring preview message of type %q", msg.Type)
		}
	}
}

func (c *Client) closedErr() error {
	if c.doneErr != nil && !websocket.IsCloseError(c.doneErr, websocket.CloseNormalClosure) {
		return fmt.Errorf("%w: %v", ErrClosed, c.doneErr)
	}
	return ErrClosed
}
