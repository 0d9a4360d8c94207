package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/pairchat-server/internal/proto"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

// run is an interactive client: it joins the pool, waits for a partner
// and relays typed lines as chat messages. /quit leaves.
func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "user id to join with")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", msgType, err)
		}
		return wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload})
	}

	if err := send(proto.InboundTypeJoin, proto.JoinData{UserID: *user}); err != nil {
		return err
	}

	readErr := make(chan error, 1)
	go func() {
		for {
			var outbound struct {
				Type  string          `json:"type"`
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
				Error *proto.Error    `json:"error"`
			}
			if err := wsjson.Read(ctx, conn, &outbound); err != nil {
				readErr <- err
				return
			}

			switch outbound.Event {
			case "waiting":
				fmt.Println("* waiting for a partner...")
			case "chat_start":
				var start proto.EventChatStart
				_ = json.Unmarshal(outbound.Data, &start)
				fmt.Printf("* paired (session %s), say hi\n", start.SessionID)
			case "partner_disconnected":
				fmt.Println("* partner left; type /join to find a new one")
			case "message":
				var msg proto.EventMessage
				_ = json.Unmarshal(outbound.Data, &msg)
				fmt.Printf("<%s> %s\n", msg.From, msg.Message)
			default:
				if outbound.Error != nil {
					fmt.Printf("! %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
				}
			}
		}
	}()

	input := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- scanner.Text()
		}
		close(input)
	}()

	for {
		select {
		case err := <-readErr:
			return err
		case <-ctx.Done():
			_ = send(proto.InboundTypeLeave, proto.LeaveData{UserID: *user})
			return ctx.Err()
		case line, ok := <-input:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case line == "/quit":
				_ = send(proto.InboundTypeLeave, proto.LeaveData{UserID: *user})
				return nil
			case line == "/join":
				if err := send(proto.InboundTypeJoin, proto.JoinData{UserID: *user}); err != nil {
					return err
				}
			default:
				if err := send(proto.InboundTypeMessage, proto.MessageData{
					UserID:  *user,
					Message: line,
				}); err != nil {
					return err
				}
			}
		}
	}
}
