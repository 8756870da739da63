package gfx

// BlendMode selects the factors used to composite a batch over the backdrop.
//
// The zero value is BlendInherit so that nodes which never set a blend mode
// pick up the mode propagated from their parent.
type BlendMode uint8

const (
	// Inherit the blend mode of the parent node.
	BlendInherit BlendMode = 0
	// Source over destination, the default for ordinary content.
	BlendNormal BlendMode = 1
	// Source is added to the destination.
	BlendAdd BlendMode = 2
	// Source is multiplied with the destination, darkening it.
	BlendMultiply BlendMode = 3
	// Multiplies the complements of source and destination, brightening it.
	BlendScreen BlendMode = 4
	// Erases the destination where the source is opaque.
	BlendErase BlendMode = 5
	// Keeps the destination only where the source is opaque. Used for
	// stencil-like masking without a dedicated mask surface.
	BlendMask BlendMode = 6
	// Draws under the destination, i.e. only where it is transparent.
	BlendBelow BlendMode = 7
	// Source replaces the destination with no blending at all.
	BlendNone BlendMode = 8
)

var blendModeNames = [...]string{
	BlendInherit:  "inherit",
	BlendNormal:   "normal",
	BlendAdd:      "add",
	BlendMultiply: "multiply",
	BlendScreen:   "screen",
	BlendErase:    "erase",
	BlendMask:     "mask",
	BlendBelow:    "below",
	BlendNone:     "none",
}

func (m BlendMode) String() string {
	if int(m) < len(blendModeNames) {
		return blendModeNames[m]
	}
	return "unknown"
}

// Resolve returns m, or parent if m is BlendInherit.
func (m BlendMode) Resolve(parent BlendMode) BlendMode {
	if m == BlendInherit {
		return parent
	}
	return m
}
