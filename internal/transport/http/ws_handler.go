package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"riddleme-service/internal/app"
)

// FeedHandler streams riddle and leaderboard events over a websocket and
// accepts answers and skips on the same connection.
type FeedHandler struct {
	riddles  *app.RiddleService
	scoring  *app.ScoringService
	feed     *app.Feed
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewFeedHandler(riddles *app.RiddleService, scoring *app.ScoringService, feed *app.Feed) *FeedHandler {
	return &FeedHandler{
		riddles:  riddles,
		scoring:  scoring,
		feed:     feed,
		validate: newValidator(),
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and pumps feed events until the client disconnects.
func (h *FeedHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	snapshot := h.snapshot(ctx)
	updates, cancel := h.feed.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Msg("ws write failed")
				conn.Close()
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-writerDone:
			return false
		}
	}

	for _, msg := range snapshot {
		push(msg)
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: ev.Type, Payload: ev.Payload}:
				case <-writerDone:
					return
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
		if !push(h.dispatch(ctx, inbound)) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// snapshot is the initial state sent to a new subscriber.
func (h *FeedHandler) snapshot(ctx context.Context) []outboundMessage[any] {
	var out []outboundMessage[any]
	if entries, err := h.scoring.Leaderboard(ctx, app.DefaultLeaderboardLimit); err != nil {
		out = append(out, errorMessage(err))
	} else {
		out = append(out, outboundMessage[any]{Type: app.EventLeaderboard, Payload: entries})
	}
	if riddle, err := h.riddles.Current(ctx); err != nil {
		out = append(out, errorMessage(err))
	} else {
		out = append(out, outboundMessage[any]{Type: app.EventRiddle, Payload: riddle.Public()})
	}
	return out
}

func (h *FeedHandler) dispatch(ctx context.Context, inbound inboundMessage) outboundMessage[any] {
	switch inbound.Type {
	case "answer":
		var req answerRequest
		if err := h.decode(inbound.Payload, &req); err != nil {
			return errorMessage(err)
		}
		result, err := h.scoring.SubmitAnswer(ctx, req.submission())
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "answerResult", Payload: result}
	case "skip":
		var req skipRequest
		if err := h.decode(inbound.Payload, &req); err != nil {
			return errorMessage(err)
		}
		riddle, err := h.scoring.Skip(ctx, req.Username, req.RiddleID)
		if err != nil {
			return errorMessage(err)
		}
		return outboundMessage[any]{Type: "skipped", Payload: riddleResponse{Message: "Riddle skipped", Riddle: riddle.Public()}}
	default:
		return outboundMessage[any]{Type: "error", Payload: errorBody{Error: "unsupported", Message: "unsupported message type"}}
	}
}

func (h *FeedHandler) decode(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return validationError(err)
	}
	return validationError(h.validate.Struct(dst))
}

func errorMessage(err error) outboundMessage[any] {
	_, body := classify(err)
	return outboundMessage[any]{Type: "error", Payload: body}
}
