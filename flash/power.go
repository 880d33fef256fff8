package flash

import (
	"time"

	"github.com/piotrjaromin/gpio"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// powerPins are the GPIO lines wired to the radio's power switch and PTT key
type powerPins struct {
	power  gpio.Pin
	ptt    gpio.Pin
	hasPTT bool
}

func (r *Radio) setupPins() (err error) {
	if r.pins != nil {
		return nil
	}

	p := &powerPins{}
	p.power, err = gpio.NewOutput(uint(r.config.PowerGPIO), true)
	if err != nil {
		return
	}
	if r.config.PTTGPIO > 0 {
		p.ptt, err = gpio.NewOutput(uint(r.config.PTTGPIO), false)
		if err != nil {
			p.power.Cleanup()
			return
		}
		p.hasPTT = true
	}

	r.pins = p
	return
}

// enterBootloader will power cycle the radio with PTT held, which brings it
// up in bootloader mode
func (r *Radio) enterBootloader() error {
	if err := r.setupPins(); err != nil {
		return markErr(ErrOpen, errors.Wrap(err, "could not setup pins"))
	}

	r.pins.power.Low()
	if r.pins.hasPTT {
		r.pins.ptt.High()
	}
	time.Sleep(100 * time.Millisecond)
	r.pins.power.High()

	// the bootloader samples PTT while it starts
	time.Sleep(500 * time.Millisecond)
	if r.pins.hasPTT {
		r.pins.ptt.Low()
	}

	logrus.Debug("radio in bootloader")

	return nil
}

// releasePins resets the lines to a running state
func (r *Radio) releasePins() {
	if r.pins == nil {
		return
	}

	if r.pins.hasPTT {
		r.pins.ptt.Low()
		r.pins.ptt.Cleanup()
	}
	r.pins.power.Cleanup()
	r.pins = nil

	logrus.Debug("radio pins released")
}
