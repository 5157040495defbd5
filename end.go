package main

import (
	"log"
)

// End evicts all sessions and stops the dispatch loop
// The in-flight packet (if any) finishes before Run returns; main
// then closes the stores and the logger
func End(srv *Server, crash bool) {
	if crash {
		log.Print("Ending after crash")
	} else {
		log.Print("Ending")
	}

	srv.sessions.Clear()
	srv.Stop()
}
