package buffer

import "github.com/bethropolis/ebb/internal/invariant"

func strictBuild() bool { return invariant.Strict() }
