package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Decode(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrTruncated)

	// One byte short of each variant's fixed size
	for typ := uint8(PktGeneric); typ <= PktUnity; typ++ {
		size, ok := packetSize(typ)
		require.True(t, ok)

		if size == HeaderSize {
			continue
		}

		buf := make([]byte, size-1)
		buf[0] = typ
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrTruncated, "type %d", typ)
	}
}

func TestDecodeBadType(t *testing.T) {
	buf := make([]byte, MaxPktSize)
	buf[0] = 0xC8

	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrBadType)
}

func TestDecodeFieldOverflow(t *testing.T) {
	// An account field with no NUL terminator anywhere in its
	// capacity must be rejected, not copied
	size, _ := packetSize(PktGetSalt)
	buf := make([]byte, size)
	buf[0] = PktGetSalt
	for i := HeaderSize; i < HeaderSize+AccountLen; i++ {
		buf[i] = 'a'
	}

	_, err := Decode(buf)
	assert.ErrorIs(t, err, ErrFieldOverflow)
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	p := &ConnectPacket{Header{PacketID: 7, SessionID: 0}}
	buf := append(p.Encode(), 0xFF, 0xFF)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(PktConnect), got.Type())
	assert.Equal(t, uint32(7), got.Hdr().PacketID)
}

func TestConnectRoundTrip(t *testing.T) {
	p := &ConnectPacket{Header{PacketID: 1, SessionID: 42}}

	got, err := Decode(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestGetSaltRoundTrip(t *testing.T) {
	p := &GetSaltPacket{
		Header:  Header{PacketID: 3, SessionID: 9},
		Account: "alice",
		SaltHex: "deadbeef",
	}

	buf := p.Encode()
	size, _ := packetSize(PktGetSalt)
	require.Len(t, buf, size)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestCreateAccountRoundTrip(t *testing.T) {
	p := &CreateAccountPacket{
		Header:  Header{PacketID: 4, SessionID: 10},
		Account: "bob_77",
		SaltHex: "0102",
		KeyHex:  "aabbcc",
	}

	got, err := Decode(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestLoginRoundTrip(t *testing.T) {
	p := &LoginPacket{
		Header:  Header{PacketID: 5, SessionID: 11},
		Account: "alice",
		KeyHex:  "ff00ff00",
	}

	got, err := Decode(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestListCharactersRoundTrip(t *testing.T) {
	p := &ListCharactersPacket{Header: Header{PacketID: 1, SessionID: 2}}
	p.Characters[0] = "Aldric"
	p.Characters[3] = "Benna"

	got, err := Decode(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestCreateCharacterRoundTrip(t *testing.T) {
	p := &CreateCharacterPacket{
		Header:     Header{PacketID: 2, SessionID: 8},
		FirstName:  "Aldric",
		LastName:   "Vane",
		Race:       "Human",
		Gender:     "Male",
		Profession: "Ranger",
	}
	p.Attributes = [AttributeCount]uint32{12, 10, 8, 14}
	for i := range p.Skills {
		p.Skills[i] = uint32(i)
	}

	got, err := Decode(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestUpdatePcRoundTrip(t *testing.T) {
	p := &UpdatePcPacket{
		Header:     Header{PacketID: 6, SessionID: 12},
		FirstName:  "Aldric",
		LastName:   "Vane",
		Race:       "Human",
		Gender:     "Male",
		Profession: "Ranger",
		Level:      3,
		Hp:         57,
		Bp:         20,
		Mp:         11,
		Ep:         9,
		X:          -120,
		Y:          44,
		Z:          7,
		Direction:  1.5,
	}

	got, err := Decode(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPlayerCommandRoundTrip(t *testing.T) {
	p := &PlayerCommandPacket{
		Header:  Header{PacketID: 9, SessionID: 33},
		Command: "/say hello there",
	}

	got, err := Decode(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestUnityRoundTrip(t *testing.T) {
	p := &UnityPacket{
		Header: Header{PacketID: 1, SessionID: 2},
		Data1:  0xDEAD, Data2: 0xBEEF, Data3: 3, Data4: 4, Data5: 5,
	}

	got, err := Decode(p.Encode())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestEncodeClampsOversizedStrings(t *testing.T) {
	long := make([]byte, 2*AccountLen)
	for i := range long {
		long[i] = 'x'
	}

	p := &GetSaltPacket{Account: string(long)}
	buf := p.Encode()

	// The write stays inside the field and the terminator survives
	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Len(t, got.(*GetSaltPacket).Account, AccountLen-1)
}
