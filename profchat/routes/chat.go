package routes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"profchat/profchat/controllers"
	"profchat/profchat/middlewares"
	"profchat/profchat/utils/format"
	"profchat/profchat/utils/logging"
	"profchat/profchat/utils/types"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxChatBody = 1 << 20

// ChatRoutes serves the relay. Websocket upgrades from another origin are
// refused unless it matches one of originPatterns, so a foreign page cannot
// ride the session cookie.
func ChatRoutes(ctrl *controllers.ChatController, verifier *middlewares.Verifier, requireSignIn bool, originPatterns []string) chi.Router {
	r := chi.NewRouter()

	// POST /api/chat : JSON message array in, raw text stream out
	r.With(middlewares.RequireSignIn(requireSignIn)).Post("/", func(w http.ResponseWriter, r *http.Request) {
		var messages []types.Message
		if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBody)).Decode(&messages); err != nil {
			writeAnswerError(w, r, fmt.Errorf("%w: %v", controllers.ErrInvalidConversation, err))
			return
		}

		reply, err := ctrl.Answer(r.Context(), messages)
		if err != nil {
			writeAnswerError(w, r, err)
			return
		}

		if reply.Greeting {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Content-Length", strconv.Itoa(len(reply.Text)))
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, reply.Text)
			return
		}

		streamReply(w, r, reply)
	})

	// GET /api/chat/ws : same relay over a websocket
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var input types.WSChatRequest
		if err := json.Unmarshal(data, &input); err != nil {
			sendError(ctx, conn, "invalid json")
			conn.Close(websocket.StatusUnsupportedData, "invalid json")
			return
		}

		viewer := middlewares.ViewerFrom(ctx)
		if input.Token != "" {
			viewer = verifier.Viewer(input.Token)
		}
		if requireSignIn && !viewer.SignedIn {
			sendError(ctx, conn, "sign in required")
			conn.Close(websocket.StatusPolicyViolation, "sign in required")
			return
		}

		// only the close handshake is expected from here on
		ctx = conn.CloseRead(ctx)

		reply, err := ctrl.Answer(ctx, input.Messages)
		if err != nil {
			sendError(ctx, conn, answerErrorMessage(err))
			if errors.Is(err, controllers.ErrInvalidConversation) {
				conn.Close(websocket.StatusUnsupportedData, "invalid conversation")
				return
			}
			conn.Close(websocket.StatusInternalError, "answer failed")
			return
		}

		if reply.Greeting {
			if sendChunk(ctx, conn, reply.Text, reply.Text) != nil {
				return
			}
			wsjson.Write(ctx, conn, types.WSFrame{Type: types.FrameEnd})
			conn.Close(websocket.StatusNormalClosure, "")
			return
		}

		var full strings.Builder
		for chunk := range reply.Chunks {
			full.WriteString(chunk)
			if err := sendChunk(ctx, conn, chunk, full.String()); err != nil {
				return
			}
		}
		if err := <-reply.Errs; err != nil {
			logging.ErrorLogger.Error("ws stream aborted", zap.Error(err))
			sendError(ctx, conn, err.Error())
			conn.Close(websocket.StatusInternalError, "stream error")
			return
		}
		wsjson.Write(ctx, conn, types.WSFrame{Type: types.FrameEnd})
		conn.Close(websocket.StatusNormalClosure, "")
	})

	return r
}

// streamReply writes fragments as they arrive. Headers go out with the first
// fragment, so a failure before it can still be a 500. A failure after it
// aborts the connection and the client sees a truncated body.
func streamReply(w http.ResponseWriter, r *http.Request, reply *controllers.Reply) {
	flusher, _ := w.(http.Flusher)
	started := false

	for chunk := range reply.Chunks {
		if !started {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			// client went away; the request context stops the upstream
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	if err := <-reply.Errs; err != nil {
		logging.ErrorLogger.Error("chat stream aborted",
			zap.String("request_id", requestID(r)), zap.Bool("started", started), zap.Error(err))
		if !started {
			writeAnswerError(w, r, err)
			return
		}
		panic(http.ErrAbortHandler)
	}

	if !started {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
	}
}

func writeAnswerError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, controllers.ErrInvalidConversation) {
		status = http.StatusBadRequest
	} else {
		logging.ErrorLogger.Error("chat request failed", zap.String("request_id", requestID(r)), zap.Error(err))
	}
	http.Error(w, answerErrorMessage(err), status)
}

func answerErrorMessage(err error) string {
	if errors.Is(err, controllers.ErrInvalidConversation) {
		return err.Error()
	}
	return "failed to answer: " + err.Error()
}

func sendChunk(ctx context.Context, conn *websocket.Conn, chunk, full string) error {
	return wsjson.Write(ctx, conn, types.WSFrame{
		Type:    types.FrameChunk,
		Payload: map[string]any{"chunk": chunk, "html": format.HTML(full)},
	})
}

func sendError(ctx context.Context, conn *websocket.Conn, message string) {
	wsjson.Write(ctx, conn, types.WSFrame{
		Type:    types.FrameError,
		Payload: map[string]any{"message": message},
	})
}
