package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

// WatchSignals shuts the server down on SIGINT or SIGTERM
func WatchSignals(srv *Server) {
	go func() {
		signalChan := make(chan os.Signal, 1)
		signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
		<-signalChan

		log.Print("Caught SIGINT or SIGTERM, shutting down")

		End(srv, false)
	}()
}
