package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"holdem-service/internal/service/game"
	pkgAuth "holdem-service/pkg/auth"
	appErr "holdem-service/pkg/errors"
	"holdem-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type Handler struct {
	gameSvc *game.Service
}

func NewHandler(gameSvc *game.Service) *Handler {
	return &Handler{gameSvc: gameSvc}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// HandleTableWS authenticates the connection, seats the player with
// the requested buy-in and runs the read/write pumps until the socket
// or the seat goes away.
func (h *Handler) HandleTableWS(c *gin.Context) {
	tableName := c.Param("name")
	if tableName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table name"})
		return
	}

	buyIn, err := strconv.ParseInt(c.Query("buyIn"), 10, 64)
	if err != nil || buyIn <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid buy-in"})
		return
	}

	token, err := getTokenFromRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	claims, err := pkgAuth.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	username := claims.Username

	seat, outbound, err := h.gameSvc.JoinTable(c.Request.Context(), tableName, username, buyIn)
	if err != nil {
		switch {
		case errors.Is(err, appErr.ErrTableNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "table not found"})
		case errors.Is(err, appErr.ErrTableFull),
			errors.Is(err, appErr.ErrRankedStarted),
			errors.Is(err, appErr.ErrAlreadySeated):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, appErr.ErrInsufficientChips),
			errors.Is(err, appErr.ErrInvalidBuyIn):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join table"})
		}
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		h.gameSvc.HandleDisconnect(tableName, username)
		return
	}

	logger.Log.Info("New WebSocket connection",
		zap.String("table", tableName),
		zap.String("username", username),
		zap.Int("seat", seat),
	)

	client := newClient(conn, username, tableName, h.gameSvc, outbound)
	client.run()
}

func getTokenFromRequest(c *gin.Context) (string, error) {
	token := strings.TrimSpace(c.Query("token"))
	if token != "" {
		return token, nil
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
			if token != "" {
				return token, nil
			}
		}
	}
	return "", errors.New("missing token")
}

type client struct {
	conn        *websocket.Conn
	username    string
	tableName   string
	gameSvc     *game.Service
	outbound    <-chan game.OutgoingMessage
	done        chan struct{}
	left        bool
	pingEvery   time.Duration
	revealPause time.Duration
}

func newClient(conn *websocket.Conn, username, tableName string, gameSvc *game.Service, outbound <-chan game.OutgoingMessage) *client {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	return &client{
		conn:        conn,
		username:    username,
		tableName:   tableName,
		gameSvc:     gameSvc,
		outbound:    outbound,
		done:        make(chan struct{}),
		pingEvery:   25 * time.Second,
		revealPause: gameSvc.RevealPacing(),
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

func (c *client) readPump() {
	defer func() {
		close(c.done)
		if !c.left {
			c.gameSvc.HandleDisconnect(c.tableName, c.username)
		}
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info("WS read error", zap.Error(err), zap.String("username", c.username), zap.String("table", c.tableName))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var incoming struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(message, &incoming); err != nil {
			c.safeWrite(game.OutgoingMessage{
				Type: game.EventError,
				Data: gin.H{"message": "invalid payload"},
			})
			continue
		}
		if incoming.Type == "" {
			continue
		}

		if done := c.dispatch(incoming.Type, incoming.Data); done {
			return
		}
	}
}

// dispatch routes one inbound frame. Returns true when the client has
// left the table and the connection should wind down.
func (c *client) dispatch(msgType string, data json.RawMessage) bool {
	var err error
	switch msgType {
	case "check":
		err = c.gameSvc.HandleAction(c.tableName, c.username, game.Action{Kind: game.ActionCheck})
	case "call":
		err = c.gameSvc.HandleAction(c.tableName, c.username, game.Action{Kind: game.ActionCall})
	case "raise":
		var body struct {
			Amount int64 `json:"amount"`
		}
		if err = json.Unmarshal(data, &body); err == nil {
			err = c.gameSvc.HandleAction(c.tableName, c.username, game.Action{Kind: game.ActionRaise, Amount: body.Amount})
		}
	case "all_in":
		err = c.gameSvc.HandleAction(c.tableName, c.username, game.Action{Kind: game.ActionAllIn})
	case "fold":
		err = c.gameSvc.HandleAction(c.tableName, c.username, game.Action{Kind: game.ActionFold})
	case "sit_in":
		err = c.gameSvc.SitIn(c.tableName, c.username)
	case "chat":
		var body struct {
			Text string `json:"text"`
		}
		if err = json.Unmarshal(data, &body); err == nil {
			err = c.gameSvc.HandleChat(c.tableName, c.username, body.Text)
		}
	case "leave":
		result, leaveErr := c.gameSvc.LeaveTable(c.tableName, c.username)
		if leaveErr != nil {
			err = leaveErr
			break
		}
		c.left = true
		payload := gin.H{"cashed": result.Cashed}
		if result.Ranked != nil {
			payload["rating"] = result.Ranked
		}
		c.safeWrite(game.OutgoingMessage{Type: result.Kind, Data: payload})
		return true
	case "ping":
		c.safeWrite(game.OutgoingMessage{Type: "pong"})
	default:
		err = appErr.ErrIllegalAction
	}

	if err != nil {
		c.safeWrite(game.OutgoingMessage{
			Type: game.EventError,
			Data: gin.H{"message": fmt.Sprintf("action failed: %v", err)},
		})
	}
	return false
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.outbound:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Log.Info("WS write error", zap.Error(err), zap.String("username", c.username), zap.String("table", c.tableName))
				return
			}
			c.pauseForReveal(msg)
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// pauseForReveal holds the write pump after a card-revealing frame so
// clients see cards land at the configured cadence. Purely
// presentational; the table state machine is untouched.
func (c *client) pauseForReveal(msg game.OutgoingMessage) {
	if c.revealPause <= 0 {
		return
	}
	cards := 0
	switch data := msg.Data.(type) {
	case game.CommunityPayload:
		cards = len(data.Cards)
	case game.CardsRevealPayload:
		for _, h := range data.Hands {
			cards += len(h.Cards)
		}
	}
	if cards > 0 {
		time.Sleep(time.Duration(cards) * c.revealPause)
	}
}

func (c *client) safeWrite(msg game.OutgoingMessage) {
	if err := c.conn.WriteJSON(msg); err != nil {
		logger.Log.Info("WS write error", zap.Error(err), zap.String("username", c.username), zap.String("table", c.tableName))
	}
}
