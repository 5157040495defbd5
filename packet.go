package main

import (
	"encoding/binary"
	"errors"
	"math"
)

// Packet discriminators
// The discriminator is the first byte of every datagram and selects
// the fixed layout of the remaining fields
const (
	PktGeneric = iota
	PktAck
	PktConnect
	PktDisconnect
	PktGetSalt
	PktCreateAccount
	PktLogin
	PktListCharacters
	PktSelectCharacter
	PktDeleteCharacter
	PktCreateCharacter
	PktInitializeGame
	PktUpdatePc
	PktUpdateNpc
	PktPlayerCommand
	PktPlayerAction
	PktServerAction
	PktUnity
)

// Field capacities, including the NUL terminator
const (
	AccountLen = 30
	HexLen     = 129
	NameLen    = 25
	CommandLen = 500

	MaxCharacters  = 10
	AttributeCount = 4
	SkillCount     = 51

	// HeaderSize is type + packet id + session id
	HeaderSize = 9

	// MaxPktSize is the size of the largest variant (SENDPLAYERCOMMAND)
	MaxPktSize = HeaderSize + CommandLen
)

// FailedSentinel is the account field value of a failure reply
const FailedSentinel = "FAILED"

var (
	ErrTruncated     = errors.New("datagram shorter than the fixed packet size")
	ErrBadType       = errors.New("unknown packet discriminator")
	ErrFieldOverflow = errors.New("string field is not terminated within its capacity")
)

// Header is the common leading layout of every packet:
// a uint8 discriminator followed by these two fields, big-endian
type Header struct {
	PacketID  uint32
	SessionID uint32
}

// Hdr makes the header available through the Packet interface
func (h Header) Hdr() Header { return h }

// A Packet is one decoded datagram
// Packets are transient: decoded, handled once, never retained
type Packet interface {
	Type() uint8
	Hdr() Header
	Encode() []byte
}

type GenericPacket struct{ Header }
type AckPacket struct{ Header }
type ConnectPacket struct{ Header }
type DisconnectPacket struct{ Header }

type GetSaltPacket struct {
	Header
	Account string
	SaltHex string
}

type CreateAccountPacket struct {
	Header
	Account string
	SaltHex string
	KeyHex  string
}

type LoginPacket struct {
	Header
	Account string
	KeyHex  string
}

type ListCharactersPacket struct {
	Header
	Characters [MaxCharacters]string
}

type SelectCharacterPacket struct {
	Header
	Character string
}

type DeleteCharacterPacket struct {
	Header
	Character string
}

type CreateCharacterPacket struct {
	Header
	FirstName  string
	LastName   string
	Race       string
	Gender     string
	Profession string
	Attributes [AttributeCount]uint32
	Skills     [SkillCount]uint32
}

type InitializeGamePacket struct{ Header }

type UpdatePcPacket struct {
	Header
	FirstName  string
	LastName   string
	Race       string
	Gender     string
	Profession string
	Level      uint32
	Hp         uint32
	Bp         uint32
	Mp         uint32
	Ep         uint32
	X          int32
	Y          int32
	Z          int32
	Direction  float32
}

type UpdateNpcPacket struct{ Header }

type PlayerCommandPacket struct {
	Header
	Command string
}

type PlayerActionPacket struct{ Header }
type ServerActionPacket struct{ Header }

// UnityPacket is a diagnostic echo variant
type UnityPacket struct {
	Header
	Data1 uint32
	Data2 uint32
	Data3 uint32
	Data4 uint32
	Data5 uint32
}

func (GenericPacket) Type() uint8         { return PktGeneric }
func (AckPacket) Type() uint8             { return PktAck }
func (ConnectPacket) Type() uint8         { return PktConnect }
func (DisconnectPacket) Type() uint8      { return PktDisconnect }
func (GetSaltPacket) Type() uint8         { return PktGetSalt }
func (CreateAccountPacket) Type() uint8   { return PktCreateAccount }
func (LoginPacket) Type() uint8           { return PktLogin }
func (ListCharactersPacket) Type() uint8  { return PktListCharacters }
func (SelectCharacterPacket) Type() uint8 { return PktSelectCharacter }
func (DeleteCharacterPacket) Type() uint8 { return PktDeleteCharacter }
func (CreateCharacterPacket) Type() uint8 { return PktCreateCharacter }
func (InitializeGamePacket) Type() uint8  { return PktInitializeGame }
func (UpdatePcPacket) Type() uint8        { return PktUpdatePc }
func (UpdateNpcPacket) Type() uint8       { return PktUpdateNpc }
func (PlayerCommandPacket) Type() uint8   { return PktPlayerCommand }
func (PlayerActionPacket) Type() uint8    { return PktPlayerAction }
func (ServerActionPacket) Type() uint8    { return PktServerAction }
func (UnityPacket) Type() uint8           { return PktUnity }

// packetSize returns the fixed wire size of a variant
func packetSize(t uint8) (int, bool) {
	switch t {
	case PktGeneric, PktAck, PktConnect, PktDisconnect,
		PktInitializeGame, PktUpdateNpc, PktPlayerAction, PktServerAction:
		return HeaderSize, true
	case PktGetSalt, PktLogin:
		return HeaderSize + AccountLen + HexLen, true
	case PktCreateAccount:
		return HeaderSize + AccountLen + 2*HexLen, true
	case PktListCharacters:
		return HeaderSize + MaxCharacters*NameLen, true
	case PktSelectCharacter, PktDeleteCharacter:
		return HeaderSize + NameLen, true
	case PktCreateCharacter:
		return HeaderSize + 5*NameLen + 4*(AttributeCount+SkillCount), true
	case PktUpdatePc:
		return HeaderSize + 5*NameLen + 5*4 + 3*4 + 4, true
	case PktPlayerCommand:
		return HeaderSize + CommandLen, true
	case PktUnity:
		return HeaderSize + 5*4, true
	}

	return 0, false
}

// cstring extracts a NUL-terminated value from a fixed-capacity field
// A field with no terminator is rejected, never copied past capacity
func cstring(field []byte) (string, error) {
	for i, b := range field {
		if b == 0 {
			return string(field[:i]), nil
		}
	}

	return "", ErrFieldOverflow
}

// putCString writes s into a fixed-capacity field, always leaving
// room for the NUL terminator
func putCString(field []byte, s string) {
	n := len(s)
	if n > len(field)-1 {
		n = len(field) - 1
	}
	copy(field, s[:n])
	for i := n; i < len(field); i++ {
		field[i] = 0
	}
}

// Decode converts a raw datagram into a typed packet
// It never reads past buf and rejects anything shorter than the
// fixed size of the indicated variant
func Decode(buf []byte) (Packet, error) {
	if len(buf) < HeaderSize {
		return nil, ErrTruncated
	}

	t := buf[0]
	size, ok := packetSize(t)
	if !ok {
		return nil, ErrBadType
	}
	if len(buf) < size {
		return nil, ErrTruncated
	}

	hdr := Header{
		PacketID:  binary.BigEndian.Uint32(buf[1:5]),
		SessionID: binary.BigEndian.Uint32(buf[5:9]),
	}

	body := buf[HeaderSize:size]

	switch t {
	case PktGeneric:
		return &GenericPacket{hdr}, nil
	case PktAck:
		return &AckPacket{hdr}, nil
	case PktConnect:
		return &ConnectPacket{hdr}, nil
	case PktDisconnect:
		return &DisconnectPacket{hdr}, nil
	case PktGetSalt:
		account, err := cstring(body[:AccountLen])
		if err != nil {
			return nil, err
		}
		salt, err := cstring(body[AccountLen : AccountLen+HexLen])
		if err != nil {
			return nil, err
		}

		return &GetSaltPacket{hdr, account, salt}, nil
	case PktCreateAccount:
		account, err := cstring(body[:AccountLen])
		if err != nil {
			return nil, err
		}
		salt, err := cstring(body[AccountLen : AccountLen+HexLen])
		if err != nil {
			return nil, err
		}
		key, err := cstring(body[AccountLen+HexLen : AccountLen+2*HexLen])
		if err != nil {
			return nil, err
		}

		return &CreateAccountPacket{hdr, account, salt, key}, nil
	case PktLogin:
		account, err := cstring(body[:AccountLen])
		if err != nil {
			return nil, err
		}
		key, err := cstring(body[AccountLen : AccountLen+HexLen])
		if err != nil {
			return nil, err
		}

		return &LoginPacket{hdr, account, key}, nil
	case PktListCharacters:
		p := &ListCharactersPacket{Header: hdr}
		for i := 0; i < MaxCharacters; i++ {
			name, err := cstring(body[i*NameLen : (i+1)*NameLen])
			if err != nil {
				return nil, err
			}
			p.Characters[i] = name
		}

		return p, nil
	case PktSelectCharacter:
		name, err := cstring(body[:NameLen])
		if err != nil {
			return nil, err
		}

		return &SelectCharacterPacket{hdr, name}, nil
	case PktDeleteCharacter:
		name, err := cstring(body[:NameLen])
		if err != nil {
			return nil, err
		}

		return &DeleteCharacterPacket{hdr, name}, nil
	case PktCreateCharacter:
		p := &CreateCharacterPacket{Header: hdr}

		names := []*string{&p.FirstName, &p.LastName, &p.Race, &p.Gender, &p.Profession}
		for i, dst := range names {
			name, err := cstring(body[i*NameLen : (i+1)*NameLen])
			if err != nil {
				return nil, err
			}
			*dst = name
		}

		off := 5 * NameLen
		for i := range p.Attributes {
			p.Attributes[i] = binary.BigEndian.Uint32(body[off:])
			off += 4
		}
		for i := range p.Skills {
			p.Skills[i] = binary.BigEndian.Uint32(body[off:])
			off += 4
		}

		return p, nil
	case PktInitializeGame:
		return &InitializeGamePacket{hdr}, nil
	case PktUpdatePc:
		p := &UpdatePcPacket{Header: hdr}

		names := []*string{&p.FirstName, &p.LastName, &p.Race, &p.Gender, &p.Profession}
		for i, dst := range names {
			name, err := cstring(body[i*NameLen : (i+1)*NameLen])
			if err != nil {
				return nil, err
			}
			*dst = name
		}

		off := 5 * NameLen
		for _, dst := range []*uint32{&p.Level, &p.Hp, &p.Bp, &p.Mp, &p.Ep} {
			*dst = binary.BigEndian.Uint32(body[off:])
			off += 4
		}
		for _, dst := range []*int32{&p.X, &p.Y, &p.Z} {
			*dst = int32(binary.BigEndian.Uint32(body[off:]))
			off += 4
		}
		p.Direction = math.Float32frombits(binary.BigEndian.Uint32(body[off:]))

		return p, nil
	case PktUpdateNpc:
		return &UpdateNpcPacket{hdr}, nil
	case PktPlayerCommand:
		command, err := cstring(body[:CommandLen])
		if err != nil {
			return nil, err
		}

		return &PlayerCommandPacket{hdr, command}, nil
	case PktPlayerAction:
		return &PlayerActionPacket{hdr}, nil
	case PktServerAction:
		return &ServerActionPacket{hdr}, nil
	case PktUnity:
		return &UnityPacket{
			Header: hdr,
			Data1:  binary.BigEndian.Uint32(body[0:]),
			Data2:  binary.BigEndian.Uint32(body[4:]),
			Data3:  binary.BigEndian.Uint32(body[8:]),
			Data4:  binary.BigEndian.Uint32(body[12:]),
			Data5:  binary.BigEndian.Uint32(body[16:]),
		}, nil
	}

	return nil, ErrBadType
}

// encodeHeader allocates the full fixed-size buffer for a variant
// and fills in the common header
func encodeHeader(t uint8, hdr Header) []byte {
	size, _ := packetSize(t)
	buf := make([]byte, size)
	buf[0] = t
	binary.BigEndian.PutUint32(buf[1:5], hdr.PacketID)
	binary.BigEndian.PutUint32(buf[5:9], hdr.SessionID)

	return buf
}

func (p *GenericPacket) Encode() []byte    { return encodeHeader(PktGeneric, p.Header) }
func (p *AckPacket) Encode() []byte        { return encodeHeader(PktAck, p.Header) }
func (p *ConnectPacket) Encode() []byte    { return encodeHeader(PktConnect, p.Header) }
func (p *DisconnectPacket) Encode() []byte { return encodeHeader(PktDisconnect, p.Header) }

func (p *GetSaltPacket) Encode() []byte {
	buf := encodeHeader(PktGetSalt, p.Header)
	putCString(buf[HeaderSize:HeaderSize+AccountLen], p.Account)
	putCString(buf[HeaderSize+AccountLen:], p.SaltHex)

	return buf
}

func (p *CreateAccountPacket) Encode() []byte {
	buf := encodeHeader(PktCreateAccount, p.Header)
	putCString(buf[HeaderSize:HeaderSize+AccountLen], p.Account)
	putCString(buf[HeaderSize+AccountLen:HeaderSize+AccountLen+HexLen], p.SaltHex)
	putCString(buf[HeaderSize+AccountLen+HexLen:], p.KeyHex)

	return buf
}

func (p *LoginPacket) Encode() []byte {
	buf := encodeHeader(PktLogin, p.Header)
	putCString(buf[HeaderSize:HeaderSize+AccountLen], p.Account)
	putCString(buf[HeaderSize+AccountLen:], p.KeyHex)

	return buf
}

func (p *ListCharactersPacket) Encode() []byte {
	buf := encodeHeader(PktListCharacters, p.Header)
	for i, name := range p.Characters {
		off := HeaderSize + i*NameLen
		putCString(buf[off:off+NameLen], name)
	}

	return buf
}

func (p *SelectCharacterPacket) Encode() []byte {
	buf := encodeHeader(PktSelectCharacter, p.Header)
	putCString(buf[HeaderSize:], p.Character)

	return buf
}

func (p *DeleteCharacterPacket) Encode() []byte {
	buf := encodeHeader(PktDeleteCharacter, p.Header)
	putCString(buf[HeaderSize:], p.Character)

	return buf
}

func (p *CreateCharacterPacket) Encode() []byte {
	buf := encodeHeader(PktCreateCharacter, p.Header)

	names := []string{p.FirstName, p.LastName, p.Race, p.Gender, p.Profession}
	for i, name := range names {
		off := HeaderSize + i*NameLen
		putCString(buf[off:off+NameLen], name)
	}

	off := HeaderSize + 5*NameLen
	for _, v := range p.Attributes {
		binary.BigEndian.PutUint32(buf[off:], v)
		off += 4
	}
	for _, v := range p.Skills {
		binary.BigEndian.PutUint32(buf[off:], v)
		off += 4
	}

	return buf
}

func (p *InitializeGamePacket) Encode() []byte {
	return encodeHeader(PktInitializeGame, p.Header)
}

func (p *UpdatePcPacket) Encode() []byte {
	buf := encodeHeader(PktUpdatePc, p.Header)

	names := []string{p.FirstName, p.LastName, p.Race, p.Gender, p.Profession}
	for i, name := range names {
		off := HeaderSize + i*NameLen
		putCString(buf[off:off+NameLen], name)
	}

	off := HeaderSize + 5*NameLen
	for _, v := range []uint32{p.Level, p.Hp, p.Bp, p.Mp, p.Ep} {
		binary.BigEndian.PutUint32(buf[off:], v)
		off += 4
	}
	for _, v := range []int32{p.X, p.Y, p.Z} {
		binary.BigEndian.PutUint32(buf[off:], uint32(v))
		off += 4
	}
	binary.BigEndian.PutUint32(buf[off:], math.Float32bits(p.Direction))

	return buf
}

func (p *UpdateNpcPacket) Encode() []byte {
	return encodeHeader(PktUpdateNpc, p.Header)
}

func (p *PlayerCommandPacket) Encode() []byte {
	buf := encodeHeader(PktPlayerCommand, p.Header)
	putCString(buf[HeaderSize:], p.Command)

	return buf
}

func (p *PlayerActionPacket) Encode() []byte {
	return encodeHeader(PktPlayerAction, p.Header)
}

func (p *ServerActionPacket) Encode() []byte {
	return encodeHeader(PktServerAction, p.Header)
}

func (p *UnityPacket) Encode() []byte {
	buf := encodeHeader(PktUnity, p.Header)
	binary.BigEndian.PutUint32(buf[HeaderSize:], p.Data1)
	binary.BigEndian.PutUint32(buf[HeaderSize+4:], p.Data2)
	binary.BigEndian.PutUint32(buf[HeaderSize+8:], p.Data3)
	binary.BigEndian.PutUint32(buf[HeaderSize+12:], p.Data4)
	binary.BigEndian.PutUint32(buf[HeaderSize+16:], p.Data5)

	return buf
}
