package board

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PWMFrequency is the indicator PWM frequency.
const PWMFrequency = 1 * physic.KiloHertz

// GPIOConfig names the pins of a GPIOBoard. Names are periph.io pin names
// such as "GPIO22".
type GPIOConfig struct {
	Button      string
	Selectors   [SelectorCount]string
	Programming string // optional
	Indicator   string
	PWM         bool
}

// GPIOBoard is a Board backed by host GPIO pins.
type GPIOBoard struct {
	button    Input
	selectors [SelectorCount]Input
	program   Input
	indicator *gpioOutput
	dimmable  bool
}

// OpenGPIO initialises the host drivers and configures the pins. Inputs get
// pull-ups; the indicator starts off.
func OpenGPIO(cfg GPIOConfig) (*GPIOBoard, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio: init host: %w", err)
	}

	b := &GPIOBoard{dimmable: cfg.PWM}

	var err error
	if b.button, err = openInput(cfg.Button); err != nil {
		return nil, err
	}
	for i, name := range cfg.Selectors {
		if b.selectors[i], err = openInput(name); err != nil {
			return nil, err
		}
	}
	if cfg.Programming != "" {
		if b.program, err = openInput(cfg.Programming); err != nil {
			return nil, err
		}
	}

	pin, err := lookup(cfg.Indicator)
	if err != nil {
		return nil, err
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio: %s: %w", cfg.Indicator, err)
	}
	b.indicator = &gpioOutput{pin: pin}

	return b, nil
}

func lookup(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, errors.New("gpio: pin name is empty")
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio: no pin named %q", name)
	}
	return pin, nil
}

func openInput(name string) (Input, error) {
	pin, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio: %s: %w", name, err)
	}
	return gpioInput{pin: pin}, nil
}

// Name implements Board.
func (b *GPIOBoard) Name() string {
	return "gpio"
}

// Button implements Board.
func (b *GPIOBoard) Button() Input {
	return b.button
}

// Selectors implements Board.
func (b *GPIOBoard) Selectors() [SelectorCount]Input {
	return b.selectors
}

// Programming implements Board.
func (b *GPIOBoard) Programming() Input {
	return b.program
}

// Indicator implements Board.
func (b *GPIOBoard) Indicator() Output {
	return b.indicator
}

// Dimmer implements Board.
func (b *GPIOBoard) Dimmer() Dimmer {
	if !b.dimmable {
		return nil
	}
	return b.indicator
}

// Close switches the indicator off.
func (b *GPIOBoard) Close() error {
	return b.indicator.pin.Out(gpio.Low)
}

type gpioInput struct {
	pin gpio.PinIO
}

func (in gpioInput) Value() bool {
	return in.pin.Read() == gpio.High
}

type gpioOutput struct {
	pin gpio.PinIO
}

func (out *gpioOutput) SetValue(on bool) {
	_ = out.pin.Out(gpio.Level(on))
}

func (out *gpioOutput) SetDutyCycle(duty uint16) {
	_ = out.pin.PWM(toDuty(duty), PWMFrequency)
}

// toDuty scales a 16-bit duty cycle to periph's range.
func toDuty(duty uint16) gpio.Duty {
	return gpio.Duty(int64(duty) * int64(gpio.DutyMax) / MaxDuty)
}
