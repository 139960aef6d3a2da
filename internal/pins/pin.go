// Package pins models input sensors and latched outputs on physical
// channels, and the batch routines that poll them once per loop iteration.
//
// Nothing in this package is safe for concurrent use. A single polling
// loop owns every Pin, Sensor and Output and the clock passed to them.
package pins

// Role tags what an element does with its channel.
type Role int

const (
	RoleNone Role = iota
	RoleSensor
	RoleOutput
)

func (r Role) String() string {
	switch r {
	case RoleSensor:
		return "sensor"
	case RoleOutput:
		return "output"
	default:
		return "none"
	}
}

// Pin identifies a physical channel. It is embedded by Sensor and Output;
// a bare *Pin can sit in an element collection and is skipped by the scans.
type Pin struct {
	channel int
	analog  bool
	role    Role
}

// NewPin returns a Pin with no role.
func NewPin(channel int, analog bool) *Pin {
	return &Pin{channel: channel, analog: analog, role: RoleNone}
}

// Channel returns the channel number.
func (p *Pin) Channel() int { return p.channel }

// Analog reports whether the channel is analog.
func (p *Pin) Analog() bool { return p.analog }

// Role returns the role fixed at construction.
func (p *Pin) Role() Role { return p.role }

func (p *Pin) element() {}

// Element is one entry of a heterogeneous pin collection: *Pin, *Sensor
// or *Output. The set is closed; the scans switch on the concrete type.
type Element interface {
	Channel() int
	Analog() bool
	Role() Role
	element()
}
