// relaycli is a minimal terminal client for the relay server. It keeps the
// conversation and block list locally and drives one turn per input line.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"guardrelay/internal/session"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "relay server base URL")
	flag.Parse()

	endpoint := strings.TrimRight(*server, "/") + "/api/chat"
	ctrl := session.NewController(endpoint)
	sessionID := uuid.NewString()

	fmt.Printf("session %s connected to %s\n", sessionID, endpoint)
	fmt.Printf("assistant: %s\n", session.DefaultGreeting)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			break
		}

		fmt.Print("assistant: ")
		result, err := ctrl.Send(context.Background(), text, func(fragment string) {
			fmt.Print(fragment)
		})
		if err != nil {
			fmt.Println()
			log.Printf("turn failed: %v", err)
			continue
		}
		switch result.Outcome {
		case session.OutcomeAnswered:
			fmt.Println()
		case session.OutcomePromptBlocked:
			// Muted notice; the utterance was retracted and will not be resent.
			fmt.Printf("\n[%s]\n", result.Notice)
		case session.OutcomeFailed:
			fmt.Printf("\n[%s]\n", result.Notice)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("read input: %v", err)
	}
}
