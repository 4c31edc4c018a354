//go:build cdefdebug

package surface

// debug enables explicit coordinate checks on every View access.
const debug = true
