//go:build js && wasm

package env

import "github.com/syumai/workers/cloudflare"

// Get reads a worker binding or secret. Cloudflare does not distinguish unset from empty.
func Get(name string) (string, bool) {
	v := cloudflare.Getenv(name)
	return v, v != ""
}
