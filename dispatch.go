package main

import (
	"errors"
	"log"
	"net"
)

// Server owns the UDP socket and drives one packet at a time to
// completion
// Malformed or unauthenticated datagrams are dropped without a
// reply so hostile peers can't probe for live session ids
type Server struct {
	conn     net.PacketConn
	sessions *SessionTable
	accounts AccountStore
	players  PlayerStore

	// raw handle for the console's db command; nil in tests that
	// run without a database
	db *DB
}

func NewServer(conn net.PacketConn, sessions *SessionTable, accounts AccountStore, players PlayerStore, db *DB) *Server {
	return &Server{
		conn:     conn,
		sessions: sessions,
		accounts: accounts,
		players:  players,
		db:       db,
	}
}

// Addr returns the bound listen address
func (srv *Server) Addr() net.Addr { return srv.conn.LocalAddr() }

// Sessions returns the session registry shared with the console
func (srv *Server) Sessions() *SessionTable { return srv.sessions }

// Run receives datagrams until the socket is closed
// Each datagram is decoded, session-gated and routed to its handler;
// handlers run to completion, so shutdown waits for at most one
// in-flight packet
func (srv *Server) Run() {
	buf := make([]byte, MaxPktSize)

	for {
		n, addr, err := srv.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			log.Print(err)
			continue
		}

		srv.handle(buf[:n], addr)
	}
}

// Stop closes the socket, letting Run return after the in-flight
// packet finishes
func (srv *Server) Stop() {
	srv.conn.Close()
}

func (srv *Server) handle(buf []byte, addr net.Addr) {
	pkt, err := Decode(buf)
	if err != nil {
		// Malformed input from the network is expected, not fatal
		return
	}

	// Everything except CONNECT requires a live session
	if pkt.Type() != PktConnect && !srv.sessions.Valid(pkt.Hdr().SessionID) {
		return
	}

	switch p := pkt.(type) {
	case *GenericPacket:
		// Clients must never send GENERIC
	case *AckPacket:
		// Replies double as acks, nothing to do
	case *ConnectPacket:
		srv.handleConnect(p, addr)
	case *DisconnectPacket:
		srv.handleDisconnect(p)
	case *GetSaltPacket:
		srv.handleGetSalt(p, addr)
	case *CreateAccountPacket:
		srv.handleCreateAccount(p, addr)
	case *LoginPacket:
		srv.handleLogin(p, addr)
	case *ListCharactersPacket:
		srv.handleListCharacters(p, addr)
	case *SelectCharacterPacket:
		srv.handleSelectCharacter(p)
	case *DeleteCharacterPacket:
		// Character deletion is not implemented yet
	case *CreateCharacterPacket:
		srv.handleCreateCharacter(p)
	case *InitializeGamePacket:
		// Gameplay initialisation is simulation content
	case *UpdatePcPacket:
		// Movement is simulation content
	case *UpdateNpcPacket:
	case *PlayerCommandPacket:
		srv.handlePlayerCommand(p)
	case *PlayerActionPacket:
	case *ServerActionPacket:
	case *UnityPacket:
		srv.handleUnity(p, addr)
	}
}

// send transmits at most one reply datagram per handled packet
func (srv *Server) send(pkt Packet, addr net.Addr) {
	if _, err := srv.conn.WriteTo(pkt.Encode(), addr); err != nil {
		log.Print(err)
	}
}

func (srv *Server) handleConnect(p *ConnectPacket, addr net.Addr) {
	id := srv.sessions.Connect(addr)
	log.Print("New connection from ", addr, ", session id ", id)

	srv.send(&ConnectPacket{Header{PacketID: p.PacketID, SessionID: id}}, addr)
}

func (srv *Server) handleDisconnect(p *DisconnectPacket) {
	if srv.sessions.Disconnect(p.SessionID) {
		log.Print("Session ", p.SessionID, " disconnected")
	}
}

func (srv *Server) handleGetSalt(p *GetSaltPacket, addr net.Addr) {
	reply := &GetSaltPacket{Header: Header{PacketID: p.PacketID, SessionID: p.SessionID}}

	salt, err := srv.accounts.GetSalt(p.Account)
	if err != nil {
		log.Print("Salt request for unknown account ", p.Account)
		reply.Account = FailedSentinel
	} else {
		reply.Account = p.Account
		reply.SaltHex = salt
	}

	srv.send(reply, addr)
}

func (srv *Server) handleCreateAccount(p *CreateAccountPacket, addr net.Addr) {
	reply := &CreateAccountPacket{Header: Header{PacketID: p.PacketID, SessionID: p.SessionID}}

	err := srv.accounts.CreateAccount(p.Account, p.KeyHex, p.SaltHex)
	if err != nil {
		log.Print("Failed to create account ", p.Account, ": ", err)
		reply.Account = FailedSentinel
	} else {
		log.Print("Created account ", p.Account)
		reply.Account = p.Account
		reply.SaltHex = p.SaltHex

		// A fresh account binds the session like a login would
		srv.sessions.Authenticate(p.SessionID, p.Account)
	}

	srv.send(reply, addr)
}

func (srv *Server) handleLogin(p *LoginPacket, addr net.Addr) {
	reply := &LoginPacket{Header: Header{PacketID: p.PacketID, SessionID: p.SessionID}}

	err := srv.accounts.VerifyLogin(p.Account, p.KeyHex)
	if err == nil && srv.sessions.Authenticate(p.SessionID, p.Account) {
		log.Print("Account ", p.Account, " logged in on session ", p.SessionID)
		reply.Account = p.Account
	} else {
		log.Print("Failed login attempt for account ", p.Account)
		reply.Account = FailedSentinel
	}

	srv.send(reply, addr)
}

func (srv *Server) handleListCharacters(p *ListCharactersPacket, addr net.Addr) {
	s, ok := srv.sessions.Lookup(p.SessionID)
	if !ok || s.State == StateConnected {
		return
	}

	reply := &ListCharactersPacket{Header: Header{PacketID: p.PacketID, SessionID: p.SessionID}}

	players, err := srv.players.ListByAccount(s.Account)
	if err != nil {
		log.Print(err)
		srv.send(reply, addr)
		return
	}

	for i, pl := range players {
		if i >= MaxCharacters {
			break
		}
		reply.Characters[i] = pl.FirstName
	}

	srv.send(reply, addr)
}

func (srv *Server) handleSelectCharacter(p *SelectCharacterPacket) {
	s, ok := srv.sessions.Lookup(p.SessionID)
	if !ok || s.State == StateConnected {
		log.Print("Unauthenticated session ", p.SessionID, " tried to select a character")
		return
	}

	players, err := srv.players.ListByAccount(s.Account)
	if err != nil {
		log.Print(err)
		return
	}

	for _, pl := range players {
		if pl.FirstName == p.Character {
			srv.sessions.Activate(p.SessionID, pl.FirstName, pl.ID)
			log.Print("Session ", p.SessionID, " selected character ", pl.FirstName)
			return
		}
	}

	log.Print("Session ", p.SessionID, " tried to select a character it doesn't own: ", p.Character)
}

func (srv *Server) handleCreateCharacter(p *CreateCharacterPacket) {
	s, ok := srv.sessions.Lookup(p.SessionID)
	if !ok || s.State == StateConnected {
		log.Print("Unauthenticated session ", p.SessionID, " tried to create a character")
		return
	}

	player := Player{
		Account:    s.Account,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Race:       p.Race,
		Gender:     p.Gender,
		Profession: p.Profession,
		Level:      1,
	}

	if err := srv.players.InsertPlayer(player); err != nil {
		log.Print(err)
		return
	}

	log.Print("Created character ", p.FirstName, " for account ", s.Account)
}

func (srv *Server) handlePlayerCommand(p *PlayerCommandPacket) {
	if !srv.sessions.Active(p.SessionID) {
		log.Print("Nonactive session ", p.SessionID, " requested to send a player command")
		return
	}

	s, _ := srv.sessions.Lookup(p.SessionID)
	log.Print("Player command from ", s.Character, ": ", p.Command)
}

func (srv *Server) handleUnity(p *UnityPacket, addr net.Addr) {
	log.Printf("Unity echo: 0x%x 0x%x 0x%x 0x%x 0x%x", p.Data1, p.Data2, p.Data3, p.Data4, p.Data5)

	reply := *p
	srv.send(&reply, addr)
}
