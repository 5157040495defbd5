package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
)

// StartConsole runs the operator shell on stdin in its own
// goroutine, concurrently with the dispatch loop
func StartConsole(srv *Server) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "aldergate"
	}

	go func() {
		log.Print("Starting server administrator shell")

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Printf("admin@%s: ", hostname)
			if !scanner.Scan() {
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			params := strings.Fields(line)
			name := strings.TrimPrefix(params[0], "/")

			cmd, ok := consoleCommands[name]
			if !ok {
				log.Print("Unknown command ", name, ".")
				cmdHelp(srv, nil)
				continue
			}

			cmd.function(srv, params[1:])
		}
	}()
}
