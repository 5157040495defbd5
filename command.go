package main

import (
	"encoding/hex"
	"fmt"
	"log"
	"strings"
)

type command struct {
	help     string
	function func(srv *Server, args []string)
}

// consoleCommands is the operator command table
// Commands read shared state through snapshots and the stores, never
// by reaching into the dispatch loop
var consoleCommands map[string]command

func init() {
	consoleCommands = map[string]command{
		"shutdown": {
			help:     "shutdown            = Shuts down the server.",
			function: cmdShutdown,
		},
		"list": {
			help:     "list <var>          = Lists all entities of given <var>, where <var> is [accounts, players, npcs, sessions, packets].",
			function: cmdList,
		},
		"db": {
			help:     "db <query>          = Runs a given sql query on the database.",
			function: cmdDb,
		},
		"newaccount": {
			help:     "newaccount <n> <pw> = Creates an account server-side, deriving the key from the password.",
			function: cmdNewAccount,
		},
		"uptime": {
			help:     "uptime              = Reports how long the server has been running.",
			function: cmdUptime,
		},
		"help": {
			help:     "help                = Prints this usage text.",
			function: cmdHelp,
		},
	}
}

func truncHex(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}

	return s
}

func cmdShutdown(srv *Server, args []string) {
	End(srv, false)
}

func cmdList(srv *Server, args []string) {
	if len(args) != 1 {
		cmdHelp(srv, nil)
		return
	}

	switch args[0] {
	case "accounts":
		accounts, err := srv.accounts.ListAccounts()
		if err != nil {
			log.Print(err)
			return
		}
		for _, a := range accounts {
			log.Print(a.Name, " salt=", truncHex(a.SaltHex), " key=", truncHex(a.KeyHex))
		}
		log.Print(len(accounts), " account(s)")
	case "players":
		players, err := srv.players.ListPlayers()
		if err != nil {
			log.Print(err)
			return
		}
		for _, p := range players {
			log.Print(p.FirstName, " ", p.LastName, " (", p.Account, ") level ", p.Level)
		}
		log.Print(len(players), " player(s)")
	case "npcs":
		npcs, err := srv.players.ListNPCs()
		if err != nil {
			log.Print(err)
			return
		}
		for _, n := range npcs {
			log.Print(n.FirstName, " ", n.LastName, " level ", n.Level)
		}
		log.Print(len(npcs), " npc(s)")
	case "sessions":
		sessions := srv.sessions.Snapshot()
		for _, s := range sessions {
			log.Print("session ", s.ID, " ", s.Addr, " state=", s.State, " account=", s.Account)
		}
		log.Print(len(sessions), " session(s)")
	case "packets":
		for t := PktGeneric; t <= PktUnity; t++ {
			size, _ := packetSize(uint8(t))
			log.Printf("type %2d: %3d bytes", t, size)
		}
	default:
		cmdHelp(srv, nil)
	}
}

func cmdDb(srv *Server, args []string) {
	if len(args) == 0 || srv.db == nil {
		cmdHelp(srv, nil)
		return
	}

	query := strings.Join(args, " ")
	rows, err := srv.db.Query(query)
	if err != nil {
		log.Print(err)
		return
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		log.Print(err)
		return
	}

	values := make([]interface{}, len(cols))
	for i := range values {
		var v interface{}
		values[i] = &v
	}

	for rows.Next() {
		if err := rows.Scan(values...); err != nil {
			log.Print(err)
			return
		}

		var line strings.Builder
		for i, col := range cols {
			v := *(values[i].(*interface{}))
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			fmt.Fprintf(&line, "%s = %v | ", col, v)
		}
		log.Print(line.String())
	}

	if err := rows.Err(); err != nil {
		log.Print(err)
	}
}

func cmdNewAccount(srv *Server, args []string) {
	if len(args) != 2 {
		cmdHelp(srv, nil)
		return
	}
	name, password := args[0], args[1]

	salt, err := GenerateSalt()
	if err != nil {
		log.Print(err)
		return
	}

	key, err := DeriveKey([]byte(password), salt[:])
	if err != nil {
		log.Print(err)
		return
	}

	err = srv.accounts.CreateAccount(name, hex.EncodeToString(key[:]), hex.EncodeToString(salt[:]))
	if err != nil {
		log.Print(err)
		return
	}

	log.Print("Created account ", name)
}

func cmdUptime(srv *Server, args []string) {
	log.Print("Up for ", Uptime())
}

func cmdHelp(srv *Server, args []string) {
	log.Print("Dedicated Server Admin Usage:")
	for _, name := range []string{"shutdown", "list", "db", "newaccount", "uptime", "help"} {
		log.Print(consoleCommands[name].help)
	}
}
