// Relay CLI - Command line client for the relay message bus
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/eldtechnologies/relay/clients/go/relay"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := relay.NewClient(os.Getenv("RELAY_URL"))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health(ctx)
		exitOnError(err)
		printJSON(resp)

	case "send":
		if len(os.Args) < 4 {
			fmt.Fprintln(os.Stderr, "Usage: relay send <recipient> <json-object>")
			os.Exit(1)
		}
		var fields relay.Message
		if err := json.Unmarshal([]byte(os.Args[3]), &fields); err != nil {
			exitOnError(fmt.Errorf("message must be a JSON object: %w", err))
		}
		exitOnError(client.Send(ctx, os.Args[2], fields))
		fmt.Println("sent")

	case "recv":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: relay recv <name>")
			os.Exit(1)
		}
		msgs, err := client.Receive(ctx, os.Args[2])
		exitOnError(err)
		for _, msg := range msgs {
			printJSON(msg)
		}

	case "listen":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: relay listen <name>")
			os.Exit(1)
		}
		for ctx.Err() == nil {
			msgs, err := client.Receive(ctx, os.Args[2])
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				exitOnError(err)
			}
			for _, msg := range msgs {
				printJSON(msg)
			}
		}

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Relay CLI - ephemeral point-to-point message bus

Usage: relay <command> [options]

Commands:
  send <recipient> <json>   Send a JSON object to a recipient
  recv <name>               Drain the inbox once
  listen <name>             Long-poll the inbox until interrupted
  health                    Check server health

Environment:
  RELAY_URL     Server URL (default: http://localhost:80)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
