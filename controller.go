package cathode8

// Controller/Zapper protocol on $4016/$4017, grounded on the teacher's
// nes/controller.go strobe/shift-register split, generalized with the
// open-bus top-bit pattern and light-gun sensing spec.md §4.6 documents
// (the teacher's controllers never model open bus or a Zapper).

type controllerPort struct {
	live  uint8 // live button bitmask, set by SetControllerState
	shift uint8 // latched copy consumed bit-by-bit while strobe is low
}

type zapperState struct {
	x, y    int
	trigger bool
}

// SetControllerState sets the live button bitmask for one pad (0 or 1);
// bits per spec.md §6 (A=0x01 ... RIGHT=0x80). Out-of-range ports are
// ignored — a host mis-use spec.md §7 domain 4 leaves undefended.
func (c *Core) SetControllerState(port int, buttons uint8) {
	if port < 0 || port > 1 {
		return
	}
	c.controllers[port].live = buttons
}

// SetZapperState records the light gun's aim point (PPU pixel coordinates)
// and trigger state for port 2 (spec.md §6 set_zapper_state).
func (c *Core) SetZapperState(x, y int, trigger bool) {
	c.zapper = zapperState{x: x, y: y, trigger: trigger}
}

func (c *Core) writeControllerStrobe(val uint8) {
	c.strobe = val&0x01 != 0
	if c.strobe {
		c.controllers[0].shift = c.controllers[0].live
		c.controllers[1].shift = c.controllers[1].live
	}
}

// readController serves $4016 (port 0) / $4017 (port 1): bit 0 of the
// shift register, LSB first, OR-ed with the 0x40 open-bus pattern real
// hardware exposes on these two ports (spec.md §4.6). Port 1 additionally
// carries the Zapper's light-sense and trigger bits.
func (c *Core) readController(port int) uint8 {
	p := &c.controllers[port]
	var bit uint8
	if c.strobe {
		bit = p.live & 0x01
	} else {
		bit = p.shift & 0x01
		p.shift = (p.shift >> 1) | 0x80
	}
	out := bit | 0x40
	if port == 1 {
		out |= c.zapperBits()
	}
	return out
}

// zapperBits implements the light-sensed/trigger encoding spec.md §4.6
// documents: bit 3 (0x08) clears when the 3x3 neighborhood around the aim
// point is bright enough to have triggered a real photodiode; bit 4 (0x10)
// mirrors the trigger input.
func (c *Core) zapperBits() uint8 {
	var bits uint8
	if !c.zapperSensesLight() {
		bits |= 0x08
	}
	if c.zapper.trigger {
		bits |= 0x10
	}
	return bits
}

func (c *Core) zapperSensesLight() bool {
	fb := c.ppu.Frame[:]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			px, py := c.zapper.x+dx, c.zapper.y+dy
			if px < 0 || px >= 256 || py < 0 || py >= 240 {
				continue
			}
			p := fb[py*256+px]
			if int(p.R)+int(p.G)+int(p.B) >= 620 {
				return true
			}
		}
	}
	return false
}
