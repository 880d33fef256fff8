package flash

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestBuildPacket_Layout(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC}
	pkt := BuildPacket(CmdWrite, 0x1234, payload, 0x52)

	if len(pkt) != len(payload)+4 {
		t.Fatalf("len = %d, want %d", len(pkt), len(payload)+4)
	}
	if pkt[0] != CmdWrite || pkt[1] != 0x12 || pkt[2] != 0x34 {
		t.Errorf("header = % X, want 57 12 34", pkt[:3])
	}
	if !bytes.Equal(pkt[3:6], payload) {
		t.Errorf("payload = % X, want % X", pkt[3:6], payload)
	}

	want := byte((0x52 + 0x57 + 0x12 + 0x34 + 0xAA + 0xBB + 0xCC) % 256)
	if pkt[6] != want {
		t.Errorf("checksum = 0x%02X, want 0x%02X", pkt[6], want)
	}
}

func TestBuildPacket_ChecksumProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		payload := make([]byte, 1+rng.Intn(BlockSize))
		rng.Read(payload)
		addr := uint16(rng.Intn(1 << 16))
		seed := byte(rng.Intn(256))
		cmd := byte(rng.Intn(256))

		pkt := BuildPacket(cmd, addr, payload, seed)

		sum := int(seed)
		for _, b := range pkt[:len(pkt)-1] {
			sum += int(b)
		}
		if got := pkt[len(pkt)-1]; got != byte(sum%256) {
			t.Fatalf("iteration %d: checksum 0x%02X, want 0x%02X", i, got, byte(sum%256))
		}
	}
}

func TestBuildPacket_DoesNotAliasPayload(t *testing.T) {
	payload := []byte{1, 2, 3}
	pkt := BuildPacket(CmdErase, 0, payload, 0)
	pkt[3] = 0xFF
	if payload[0] != 1 {
		t.Error("packet shares memory with payload")
	}
}

func TestErasePackets(t *testing.T) {
	tests := []struct {
		model   Model
		unlock  []byte
		confirm []byte
	}{
		{
			model:   ModelRadtel,
			unlock:  []byte{0x39, 0x33, 0x05, 0x10, 0xD3},
			confirm: []byte{0x39, 0x33, 0x05, 0x55, 0x18},
		},
		{
			model:   ModelIRadio,
			unlock:  []byte{0x39, 0x33, 0x05, 0x10, 0x81},
			confirm: []byte{0x39, 0x33, 0x05, 0x55, 0xC6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.model.String(), func(t *testing.T) {
			unlock, confirm := ErasePackets(tt.model)
			if !bytes.Equal(unlock, tt.unlock) {
				t.Errorf("unlock = % X, want % X", unlock, tt.unlock)
			}
			if !bytes.Equal(confirm, tt.confirm) {
				t.Errorf("confirm = % X, want % X", confirm, tt.confirm)
			}
		})
	}
}

func TestWritePacket_AddressWraps(t *testing.T) {
	padded := make([]byte, 66*BlockSize)
	padded[65*BlockSize] = 0x42

	pkt := WritePacket(padded, 65*BlockSize, ModelRadtel.Seed())

	// 0x10400 truncated to 16 bits
	if pkt[1] != 0x04 || pkt[2] != 0x00 {
		t.Errorf("address = %02X%02X, want 0400", pkt[1], pkt[2])
	}
	if pkt[3] != 0x42 {
		t.Errorf("payload not taken from offset: first byte 0x%02X", pkt[3])
	}
	if len(pkt) != BlockSize+4 {
		t.Errorf("len = %d, want %d", len(pkt), BlockSize+4)
	}
}

func TestModel(t *testing.T) {
	tests := []struct {
		in      string
		want    Model
		seed    byte
		wantErr bool
	}{
		{in: "", want: ModelRadtel, seed: 0x52},
		{in: "0", want: ModelRadtel, seed: 0x52},
		{in: "Radtel", want: ModelRadtel, seed: 0x52},
		{in: "retevis", want: ModelRadtel, seed: 0x52},
		{in: "1", want: ModelIRadio, seed: 0x00},
		{in: " iradio ", want: ModelIRadio, seed: 0x00},
		{in: "2", wantErr: true},
		{in: "baofeng", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseModel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseModel(%q) = %v, want error", tt.in, m)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseModel(%q): %v", tt.in, err)
			}
			if m != tt.want {
				t.Errorf("model = %v, want %v", m, tt.want)
			}
			if m.Seed() != tt.seed {
				t.Errorf("seed = 0x%02X, want 0x%02X", m.Seed(), tt.seed)
			}
		})
	}
}
