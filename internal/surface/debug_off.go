//go:build !cdefdebug

package surface

const debug = false
