package bus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/onewire/onewirereg"
	"periph.io/x/host/v3"
	_ "periph.io/x/host/v3/netlink"
)

// DS18B20 function commands.
const (
	cmdConvertT        = 0x44
	cmdReadScratchpad  = 0xBE
	cmdWriteScratchpad = 0x4E
)

// ErrCRC is returned when a scratchpad read fails its checksum.
var ErrCRC = errors.New("bus: scratchpad CRC mismatch")

// OneWire drives DS18B20 sensors on a 1-Wire bus.
type OneWire struct {
	bus        onewire.Bus
	closer     func() error
	parasite   bool
	resolution int
	configured bool
}

// Open initializes the periph host drivers and opens the named 1-Wire bus.
// An empty name selects the first bus available.
func Open(name string, parasite bool) (*OneWire, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	b, err := onewirereg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open 1-wire bus %q: %w", name, err)
	}
	ow := NewOneWire(b, parasite)
	ow.closer = b.Close
	return ow, nil
}

// NewOneWire wraps an already opened bus. Close does not close b.
func NewOneWire(b onewire.Bus, parasite bool) *OneWire {
	return &OneWire{
		bus:        b,
		parasite:   parasite,
		resolution: DefaultResolution,
	}
}

// String returns the name of the underlying bus.
func (o *OneWire) String() string { return o.bus.String() }

func (o *OneWire) dev(addr Address) *onewire.Dev {
	return &onewire.Dev{Bus: o.bus, Addr: ROM(addr)}
}

// RequestConversion issues Convert T to one device. With parasite power the
// strong pull-up is held after the command so the device can convert.
func (o *OneWire) RequestConversion(addr Address) bool {
	d := o.dev(addr)
	var err error
	if o.parasite {
		err = d.TxPower([]byte{cmdConvertT}, nil)
	} else {
		err = d.Tx([]byte{cmdConvertT}, nil)
	}
	return err == nil
}

// ReadCelsius reads the scratchpad of one device and decodes the
// temperature register. Returns DisconnectedCelsius on any failure.
func (o *OneWire) ReadCelsius(addr Address) float64 {
	spad, err := o.readScratchpad(addr)
	if err != nil {
		return DisconnectedCelsius
	}
	return decodeCelsius(spad)
}

// ConversionDelay returns the conversion time for the highest resolution
// configured on the bus.
func (o *OneWire) ConversionDelay() time.Duration {
	return ConversionDelay(o.resolution)
}

// SetResolution writes the configuration register of one device, keeping
// its alarm thresholds.
func (o *OneWire) SetResolution(addr Address, bits int) error {
	if bits < MinResolution || bits > MaxResolution {
		return fmt.Errorf("bus: resolution %d out of range [%d, %d]", bits, MinResolution, MaxResolution)
	}
	spad, err := o.readScratchpad(addr)
	if err != nil {
		return fmt.Errorf("set resolution of %s: %w", addr, err)
	}
	cfg := byte(bits-MinResolution)<<5 | 0x1f
	if err := o.dev(addr).Tx([]byte{cmdWriteScratchpad, spad[2], spad[3], cfg}, nil); err != nil {
		return fmt.Errorf("set resolution of %s: %w", addr, err)
	}
	if !o.configured || bits > o.resolution {
		o.resolution = bits
		o.configured = true
	}
	return nil
}

// Search lists the ROM codes of every device present on the bus.
func (o *OneWire) Search() ([]Address, error) {
	roms, err := o.bus.Search(false)
	if err != nil {
		return nil, fmt.Errorf("search bus: %w", err)
	}
	addrs := make([]Address, len(roms))
	for i, r := range roms {
		addrs[i] = FromROM(r)
	}
	return addrs, nil
}

// Close releases the bus if it was opened by Open.
func (o *OneWire) Close() error {
	if o.closer == nil {
		return nil
	}
	return o.closer()
}

func (o *OneWire) readScratchpad(addr Address) ([]byte, error) {
	var spad [9]byte
	if err := o.dev(addr).Tx([]byte{cmdReadScratchpad}, spad[:]); err != nil {
		return nil, fmt.Errorf("read scratchpad: %w", err)
	}
	if !onewire.CheckCRC(spad[:]) {
		return nil, ErrCRC
	}
	return spad[:], nil
}

// decodeCelsius converts the signed 1/16 °C temperature register.
func decodeCelsius(spad []byte) float64 {
	raw := int16(binary.LittleEndian.Uint16(spad[0:2]))
	return float64(raw) / 16
}

// ROM converts an address to periph's representation, which stores the
// family code in the least significant byte.
func ROM(a Address) onewire.Address {
	return onewire.Address(binary.LittleEndian.Uint64(a[:]))
}

// FromROM is the inverse of ROM.
func FromROM(r onewire.Address) Address {
	var a Address
	binary.LittleEndian.PutUint64(a[:], uint64(r))
	return a
}
