// Package config loads the TOML compiler-profile file: target placeholder,
// diagnostic display width, whether warnings are promoted to errors, and
// SSA-level optimization toggles, mirroring internal/tqw's
// toml.Unmarshal(data, &cfg) pattern.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Profile is one compiler configuration, typically loaded from a
// "yunic.toml" file alongside the sources being compiled.
type Profile struct {
	// Target is a placeholder triple for the eventual backend target; the
	// core IR pipeline does not yet branch on it.
	Target string `toml:"target"`

	// DiagWidth is the column width diag.Diagnostic.Render wraps to.
	DiagWidth int `toml:"diag_width"`

	// WarningsFatal promotes any future warning-level diagnostic to a hard
	// error. The core itself only ever produces hard errors (see
	// diag.Bag.HasErrors), so this currently has no observable effect, but
	// callers may set it to record operator intent for a future backend.
	WarningsFatal bool `toml:"warnings_fatal"`

	// Opt holds SSA-level optimization toggles.
	Opt OptProfile `toml:"opt"`

	// Backend is a provider-specific options table, decoded lazily by
	// whichever backend Target names: the core does not know its shape.
	Backend toml.Primitive `toml:"backend"`
}

// OptProfile toggles optional SSA-level transformations codegen may apply.
type OptProfile struct {
	// FoldConstants enables constant folding of Arith/ICmp instructions
	// over two Const operands.
	FoldConstants bool `toml:"fold_constants"`

	// TailCallOnly restricts tail-call marking to the outermost
	// return/tail position (the only position codegen currently proves),
	// set false to disable tail-call marking altogether.
	TailCallOnly bool `toml:"tail_call_only"`
}

// Default returns the profile used when no configuration file is present.
func Default() Profile {
	return Profile{
		Target:        "generic",
		DiagWidth:     100,
		WarningsFatal: false,
		Opt: OptProfile{
			FoldConstants: true,
			TailCallOnly:  true,
		},
	}
}

// Load reads and decodes a TOML profile from path, seeding unset fields
// from Default first so a partial file need only override what it cares
// about.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("config: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes decodes a TOML profile from raw bytes.
func LoadBytes(data []byte) (Profile, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Profile{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// DecodeBackend decodes the Backend primitive into dst, the shape a
// specific backend's options table expects.
func (p Profile) DecodeBackend(dst any) error {
	return toml.PrimitiveDecode(p.Backend, dst)
}
