package flash

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const b_ACK byte = 0x06

// BlockSize is the payload length of every write packet. Images are padded to
// a multiple of it.
const BlockSize = 1024

const (
	CmdErase byte = 0x39
	CmdWrite byte = 0x57

	EraseAddress uint16 = 0x3305
	EraseUnlock  byte   = 0x10
	EraseConfirm byte   = 0x55
)

// Model selects the checksum seed used by the bootloader. The radios share a
// protocol and differ only in the initial checksum value.
type Model int

const (
	ModelRadtel Model = 0
	ModelIRadio Model = 1
)

var ErrUnknownModel = errors.New("unknown radio model")

// Seed returns the initial checksum value for every packet sent to the model
func (m Model) Seed() byte {
	if m == ModelIRadio {
		return 0x00
	}
	return 0x52
}

func (m Model) String() string {
	switch m {
	case ModelRadtel:
		return "radtel"
	case ModelIRadio:
		return "iradio"
	}
	return "model(" + strconv.Itoa(int(m)) + ")"
}

// ParseModel accepts a model name or its selector index
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "radtel", "retevis":
		return ModelRadtel, nil
	case "1", "iradio":
		return ModelIRadio, nil
	}
	return ModelRadtel, errors.Wrapf(ErrUnknownModel, "%q", s)
}

// BuildPacket frames a command as type, big-endian address, payload and a
// trailing checksum byte seeded with seed.
func BuildPacket(cmd byte, addr uint16, payload []byte, seed byte) []byte {
	pkt := make([]byte, len(payload)+4)
	pkt[0] = cmd
	pkt[1] = byte(addr >> 8)
	pkt[2] = byte(addr)
	copy(pkt[3:], payload)

	cs := len(pkt) - 1
	pkt[cs] = checksum(seed, pkt[:cs])
	return pkt
}

// ErasePackets returns the unlock and confirm frames of the erase phase. The
// unlock frame is sent twice on the wire.
func ErasePackets(m Model) (unlock, confirm []byte) {
	unlock = BuildPacket(CmdErase, EraseAddress, []byte{EraseUnlock}, m.Seed())
	confirm = BuildPacket(CmdErase, EraseAddress, []byte{EraseConfirm}, m.Seed())
	return
}

// WritePacket builds the packet carrying the block at offset of a padded
// image. The address field is 16 bits wide, so offsets past 64 KiB wrap.
func WritePacket(padded []byte, offset int, seed byte) []byte {
	return BuildPacket(CmdWrite, uint16(offset), padded[offset:offset+BlockSize], seed)
}
