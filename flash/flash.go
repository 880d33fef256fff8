package flash

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FlashFromFile will read the whole firmware file and flash it
func (r *Radio) FlashFromFile(filePath string, report ReportFunc) error {
	bs, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrap(err, "could not read firmware")
	}
	return r.Flash(bs, report)
}

// Flash will erase the radio and write image to it, block by block. It
// blocks until the radio acknowledges the last block, a packet fails or the
// flash is aborted. report receives every status change, ending with exactly
// one terminal event.
func (r *Radio) Flash(image []byte, report ReportFunc) error {
	if report == nil {
		report = func(Event) {}
	}

	if len(image) == 0 {
		report(Event{
			State:   StateFailed,
			Message: statusMessage(ErrEmptyImage, r.TTY()),
			Err:     ErrEmptyImage,
		})
		return ErrEmptyImage
	}

	if err := r.begin(); err != nil {
		return err
	}

	return r.run(image, report)
}

// run drives one claimed flash to a terminal state
func (r *Radio) run(image []byte, report ReportFunc) (err error) {
	padded := Pad(image)
	seed := r.Model().Seed()
	offset := 0
	started := time.Now()

	log := logrus.WithFields(logrus.Fields{
		"port":   r.TTY(),
		"model":  r.Model(),
		"bytes":  len(image),
		"blocks": len(padded) / BlockSize,
	})
	log.Info("flash start")

	defer func() {
		r.Close()

		ev := Event{Offset: offset, Err: err}
		switch {
		case err == nil:
			ev.State = StateCompleted
			ev.Progress = 100
		case r.isAborted() && !errors.Is(err, ErrAborted):
			err = markErr(ErrAborted, err)
			ev.State, ev.Err = StateAborted, err
		case errors.Is(err, ErrAborted):
			ev.State = StateAborted
		default:
			ev.State = StateFailed
		}
		ev.Message = statusMessage(err, r.TTY())

		r.end(ev.State)

		if err != nil {
			log.WithError(err).WithField("state", ev.State).Error("flash failed")
		} else {
			log.WithField("elapsed", time.Since(started).String()).Info("flash complete")
		}

		report(ev)
	}()

	port, err := r.Open()
	if err != nil {
		return err
	}

	r.setState(StateErasing)
	report(Event{State: StateErasing, Message: "Erasing Flash"})

	unlock, confirm := ErasePackets(r.Model())

	// the bootloader wants the unlock packet twice
	for i := 0; i < 2; i++ {
		if err = r.execCmd(port, unlock, StepEraseUnlock, 0); err != nil {
			return err
		}
	}
	if err = r.execCmd(port, confirm, StepEraseConfirm, 0); err != nil {
		return err
	}

	r.setState(StateWriting)

	for offset = 0; offset < len(padded); offset += BlockSize {
		logrus.Debugf("wm: %d -> %d @ %04x", offset, offset+BlockSize, uint16(offset))

		if err = r.execCmd(port, WritePacket(padded, offset, seed), StepWrite, offset); err != nil {
			return err
		}

		pct := progress(offset, len(padded))
		report(Event{
			State:    StateWriting,
			Offset:   offset,
			Progress: pct,
			Message:  fmt.Sprintf("Progress: %d%%", int(pct)),
		})
	}
	offset = len(padded)

	// the radio sends one more ACK once it has committed the image
	return r.readAck(port, StepFinal, offset)
}

// execCmd will send a packet and check that it is ACK'd
func (r *Radio) execCmd(port Transport, pkt []byte, step Step, offset int) error {
	if err := port.Write(pkt); err != nil {
		return &StepError{Step: step, Offset: offset, Err: err}
	}
	return r.readAck(port, step, offset)
}

// readAck reads the radio's answer to the last packet
func (r *Radio) readAck(port Transport, step Step, offset int) error {
	b, err := port.ReadByte()
	if err != nil {
		return &StepError{Step: step, Offset: offset, Err: err}
	}
	if b != b_ACK {
		return &StepError{Step: step, Offset: offset, Err: &BadAckError{Got: b}}
	}
	return nil
}
