//go:build ebbdebug

package invariant

const strict = true
