package writeq

import "fmt"

// Kind tags a queued Command.
type Kind int

const (
	KindBlock Kind = iota + 1
	KindLight
	KindKey
	KindCommit
	KindExit
	KindBlockDamage
	KindTrimDamage
)

var kindNames = map[Kind]string{
	KindBlock:       "block",
	KindLight:       "light",
	KindKey:         "key",
	KindCommit:      "commit",
	KindExit:        "exit",
	KindBlockDamage: "block_damage",
	KindTrimDamage:  "trim_damage",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	s, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown command kind %d", int(k))
	}
	return []byte(s), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown command kind %q", b)
	}
	*k = v
	return nil
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Command describes one requested mutation or control action.
// P, Q are chunk coordinates; X, Y, Z block coordinates; W is the block id,
// light level or damage amount depending on Kind.
type Command struct {
	Kind Kind `json:"kind"`
	P    int  `json:"p"`
	Q    int  `json:"q"`
	X    int  `json:"x,omitempty"`
	Y    int  `json:"y,omitempty"`
	Z    int  `json:"z,omitempty"`
	W    int  `json:"w,omitempty"`
	Key  int  `json:"key,omitempty"`
}

func Block(p, q, x, y, z, w int) Command {
	return Command{Kind: KindBlock, P: p, Q: q, X: x, Y: y, Z: z, W: w}
}

func Light(p, q, x, y, z, w int) Command {
	return Command{Kind: KindLight, P: p, Q: q, X: x, Y: y, Z: z, W: w}
}

func BlockDamage(p, q, x, y, z, damage int) Command {
	return Command{Kind: KindBlockDamage, P: p, Q: q, X: x, Y: y, Z: z, W: damage}
}

func TrimDamage(p, q int) Command {
	return Command{Kind: KindTrimDamage, P: p, Q: q}
}

func SetKey(p, q, key int) Command {
	return Command{Kind: KindKey, P: p, Q: q, Key: key}
}

func Commit() Command { return Command{Kind: KindCommit} }
func Exit() Command   { return Command{Kind: KindExit} }
