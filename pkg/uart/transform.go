package uart

// Direction selects encoding or decoding.
type Direction int

// Directions.
const (
	Encode Direction = iota
	Decode
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Decode {
		return "decode"
	}
	return "encode"
}

// Transform is an in-place symmetric payload transform. Decode must invert
// Encode; this is not verified.
type Transform interface {
	Transform(pkt []byte, dir Direction)
}

// TransformFunc is func form of Transform.
type TransformFunc func(pkt []byte, dir Direction)

// Transform implements Transform.
func (f TransformFunc) Transform(pkt []byte, dir Direction) {
	f(pkt, dir)
}

type identity struct{}

func (identity) Transform([]byte, Direction) {}

// Identity leaves packets untouched.
var Identity Transform = identity{}

// Shift adds n to every byte on encode and subtracts it on decode.
func Shift(n byte) Transform {
	return TransformFunc(func(pkt []byte, dir Direction) {
		if dir == Decode {
			n := -n
			for i := range pkt {
				pkt[i] += n
			}
			return
		}
		for i := range pkt {
			pkt[i] += n
		}
	})
}

// XOR xors every byte with the repeating key. It is its own inverse.
func XOR(key ...byte) Transform {
	if len(key) == 0 {
		return Identity
	}
	return TransformFunc(func(pkt []byte, _ Direction) {
		for i := range pkt {
			pkt[i] ^= key[i%len(key)]
		}
	})
}
