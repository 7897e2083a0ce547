// Package gameversion gates codegen's command-form choices by target
// game version, the way minzc's backend registry gates instruction
// selection by target CPU feature set (pkg/codegen/base_backend.go's
// feature map), generalized from a discrete feature set to a semver
// range since Minecraft's command syntax changes are version-ordered
// rather than a free product of independent toggles.
package gameversion

import "github.com/Masterminds/semver/v3"

// Target pins codegen to one game version's command dialect.
type Target struct {
	v *semver.Version
}

// Parse accepts a data-pack-style version string ("1.20.5", "1.21").
func Parse(s string) (Target, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return Target{}, err
	}
	return Target{v: v}, nil
}

// Latest targets the newest dialect this codegen knows how to emit.
func Latest() Target {
	t, _ := Parse("1.21.0")
	return t
}

func (t Target) String() string {
	if t.v == nil {
		return "unknown"
	}
	return t.v.String()
}

var (
	v1_17 = semver.MustParse("1.17.0")
	v1_19 = semver.MustParse("1.19.0")
	v1_20 = semver.MustParse("1.20.0")
)

// SupportsExecuteStoreBlockMarker reports whether `execute store ...`
// accepts the modern single-command `run` tail (true everywhere this
// codegen targets; pre-1.13 "execute" didn't have store at all, which
// is below any version this compiler can be pointed at).
func (t Target) SupportsExecuteStoreBlockMarker() bool { return true }

// SupportsScoreboardAddRemoveShorthand reports whether `scoreboard
// players add/remove` is available as a shorter alternative to
// `scoreboard players operation ... += ...` for a literal operand
// (true since 13w36a, long before any version this codegen targets —
// kept as an explicit capability so a future older target can turn it
// off instead of codegen silently assuming it).
func (t Target) SupportsScoreboardAddRemoveShorthand() bool { return true }

// SupportsHasPermissionSelector reports whether entity selectors
// accept the `has_permission` argument, added in 1.20.5. Codegen
// doesn't currently emit it, but gating is here so a future selector
// feature lands with the same version-check shape as this one.
func (t Target) SupportsHasPermissionSelector() bool {
	return t.v == nil || !t.v.LessThan(semver.MustParse("1.20.5"))
}

// SupportsDataGetScale reports whether `data get` accepts the scale
// argument used to bridge an NBT value onto the scoreboard (added
// long before 1.17; gated here defensively since it's the single most
// load-bearing command this codegen emits).
func (t Target) SupportsDataGetScale() bool {
	return t.v == nil || !t.v.LessThan(v1_17)
}

// MinSupported is the oldest version this codegen is grounded
// against; below it, selector and execute syntax this package assumes
// may not hold.
func MinSupported() Target { return Target{v: v1_19} }
