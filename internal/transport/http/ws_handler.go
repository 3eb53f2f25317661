package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/game"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WSHandler wires websocket connections into the round state machine and the
// broadcast hub.
type WSHandler struct {
	round    *game.Round
	hub      *Hub
	auth     *auth.Service
	upgrader websocket.Upgrader
}

// NewWSHandler builds the handler. The auth service may be nil, in which
// case the client-declared user id on submissions is trusted as-is.
func NewWSHandler(round *game.Round, hub *Hub, authService *auth.Service) *WSHandler {
	return &WSHandler{
		round: round,
		hub:   hub,
		auth:  authService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type startGamePayload struct {
	Category   int    `json:"category"`
	Difficulty string `json:"difficulty"`
}

type submitAnswerPayload struct {
	UserID         string `json:"userId"`
	QuestionID     int    `json:"questionId"`
	SelectedAnswer string `json:"selectedAnswer"`
	// CorrectAnswer is accepted for wire compatibility but never consulted:
	// the server resolves the expected answer from its own question batch.
	CorrectAnswer string `json:"correctAnswer"`
	Category      int    `json:"category"`
	Difficulty    string `json:"difficulty"`
}

type answerResultPayload struct {
	Correct    bool `json:"correct"`
	NewScore   int  `json:"newScore"`
	QuestionID int  `json:"questionId"`
}

type scoreUpdatePayload struct {
	NewScore int `json:"newScore"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the connection's event loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// A token is optional on the socket itself; when present, the verified
	// identity overrides whatever user id submissions claim.
	var tokenUserID string
	if h.auth != nil {
		if token := r.URL.Query().Get("token"); token != "" {
			userID, err := h.auth.VerifyToken(token)
			if err != nil {
				_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid token"}})
				return
			}
			tokenUserID = userID
		}
	}

	connID := uuid.NewString()
	send := make(chan outboundMessage, 16)
	h.hub.Register(connID, send)
	defer h.hub.Unregister(context.Background(), connID)

	updates, cancel := h.round.Subscribe()
	defer cancel()

	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: event.Type, Payload: event.Payload}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r.Context(), connID, tokenUserID, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, connID, tokenUserID string, inbound inboundMessage, send chan<- outboundMessage) {
	switch inbound.Type {
	case "startGame":
		var payload startGamePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid startGame payload")
			return
		}
		if err := h.round.Start(ctx, payload.Category, payload.Difficulty); err != nil {
			// Failure is surfaced to the initiator only; other connections
			// never learn a start was attempted.
			log.Printf("start round failed: %v", err)
			if errors.Is(err, domain.ErrValidation) {
				send <- errorMessage("category and difficulty are required")
			} else {
				send <- errorMessage("could not start the game, please try again")
			}
		}

	case "submitAnswer":
		var payload submitAnswerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- errorMessage("invalid submitAnswer payload")
			return
		}
		userID := payload.UserID
		if tokenUserID != "" {
			userID = tokenUserID
		}
		verdict, err := h.round.Submit(ctx, userID, payload.QuestionID, payload.SelectedAnswer)
		if err != nil {
			log.Printf("submission from %q failed: %v", userID, err)
			switch {
			case errors.Is(err, domain.ErrInvalidUser):
				send <- errorMessage("user not logged in or undefined user id")
			case errors.Is(err, domain.ErrQuestionNotFound), errors.Is(err, domain.ErrRoundNotActive):
				send <- errorMessage("submission does not match the current question")
			default:
				send <- errorMessage("an error occurred processing your answer")
			}
			return
		}
		// The result reply and the score push both fire so that a client
		// that misses one still learns its score from the other.
		send <- outboundMessage{Type: "answerResult", Payload: answerResultPayload{
			Correct:    verdict.Correct,
			NewScore:   verdict.NewScore,
			QuestionID: payload.QuestionID,
		}}
		send <- outboundMessage{Type: "updateScore", Payload: scoreUpdatePayload{NewScore: verdict.NewScore}}

	case "createGame":
		roomID, err := h.hub.CreateRoom(ctx, connID)
		if err != nil {
			log.Printf("create room failed: %v", err)
			send <- errorMessage("could not create a room")
			return
		}
		send <- outboundMessage{Type: "gameCreated", Payload: roomID}

	case "joinGame":
		var roomID string
		if err := json.Unmarshal(inbound.Payload, &roomID); err != nil || roomID == "" {
			send <- errorMessage("invalid joinGame payload")
			return
		}
		if err := h.hub.JoinRoom(ctx, roomID, connID); err != nil {
			send <- errorMessage("room not found")
			return
		}
		h.hub.SendToRoom(roomID, outboundMessage{Type: "playerJoined", Payload: connID})

	case "broadcastMessage":
		var message string
		if err := json.Unmarshal(inbound.Payload, &message); err != nil {
			send <- errorMessage("invalid broadcast payload")
			return
		}
		h.hub.Broadcast(outboundMessage{Type: "receiveBroadcast", Payload: message})

	default:
		send <- errorMessage("unsupported message type")
	}
}

func errorMessage(text string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: text}}
}
