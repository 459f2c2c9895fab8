//go:build !ebbdebug

package invariant

const strict = false
