package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"crewquest/internal/service"
)

// Drives a two-player maze room against a locally running server and
// prints what comes back. Needs JWT_SECRET to match the server's.
func main() {
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET not set")
	}
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	service.InitJWT()
	tokenA, err := service.GenerateToken("smoke-scout")
	if err != nil {
		log.Fatalf("gen token A: %v", err)
	}
	tokenB, err := service.GenerateToken("smoke-engineer")
	if err != nil {
		log.Fatalf("gen token B: %v", err)
	}

	dial := func(token, role string) *websocket.Conn {
		url := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s&key=maze-smoke&game=grid&role=%s", port, token, role)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			log.Fatalf("dial %s: %v", role, err)
		}
		return conn
	}

	connA := dial(tokenA, "scout")
	defer connA.Close()
	connB := dial(tokenB, "engineer")
	defer connB.Close()

	// Move sequences that thread both players through the wall gap of
	// the default map without ever claiming the same cell.
	readyA := map[string]any{
		"type":   "ready",
		"inputs": []string{"right", "right", "down", "right", "right", "up", "right", "right"},
	}
	readyB := map[string]any{
		"type":   "ready",
		"inputs": []string{"stay", "stay", "right", "right", "up", "right", "right", "down", "right", "right"},
	}

	if err := connA.WriteJSON(readyA); err != nil {
		log.Fatalf("write A: %v", err)
	}
	if err := connB.WriteJSON(readyB); err != nil {
		log.Fatalf("write B: %v", err)
	}

	// Drain until the completion signal or timeout.
	drain := func(conn *websocket.Conn, name string) {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				continue
			}
			log.Printf("%s got: %s", name, string(msg))
			var obj map[string]any
			_ = json.Unmarshal(msg, &obj)
			if obj["type"] == "challenge_complete" {
				return
			}
		}
	}

	drain(connA, "A")
	drain(connB, "B")

	log.Println("smoke run finished")
}
