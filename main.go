/*
Aldergate is the dedicated game server: a UDP dispatcher that
decodes the fixed binary packet protocol, tracks per-connection
sessions and gates gameplay packets behind authentication
*/
package main

import (
	"log"
	"net"

	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	configFile = kingpin.Flag("config", "Path to the configuration file.").Default("config/aldergate.yml").String()
	hostFlag   = kingpin.Flag("host", "Listen address, overrides the configuration.").String()
	noConsole  = kingpin.Flag("no-console", "Disable the interactive admin shell.").Bool()
	skipCost   = kingpin.Flag("skip-derive-check", "Skip the key derivation cost calibration check.").Bool()
)

func main() {
	kingpin.Parse()

	if err := LoadConfig(*configFile); err != nil {
		log.Fatal(err)
	}

	logger := InitLogger()
	defer logger.Close()

	host := *hostFlag
	if host == "" {
		var ok bool
		host, ok = ConfKey("host").(string)
		if !ok {
			host = "0.0.0.0:31000"
		}
	}

	if !*skipCost {
		if err := CheckDeriveCost(); err != nil {
			log.Fatal(err)
		}
	}

	db, err := OpenGameDB()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	accounts, err := NewAccountDB(db)
	if err != nil {
		log.Fatal(err)
	}

	players, err := NewPlayerDB(db)
	if err != nil {
		log.Fatal(err)
	}

	// Inability to bind the socket is the only fatal runtime
	// condition; everything after this point drops bad input and
	// keeps serving
	conn, err := net.ListenPacket("udp", host)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Print("Listening on " + host)

	srv := NewServer(conn, NewSessionTable(), accounts, players, db)

	WatchSignals(srv)
	if !*noConsole {
		StartConsole(srv)
	}

	srv.Run()

	log.Print("Server stopped")
}
