//go:build !js || !wasm

package env

import "os"

// Get returns the value of an environment variable and whether it was set.
func Get(name string) (string, bool) {
	return os.LookupEnv(name)
}
