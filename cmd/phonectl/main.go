// Command phonectl exercises the mouthpiece engines from the command line.
//
// Every subcommand except detect runs offline and prints JSON:
//
//	phonectl parse hello world --lang en
//	phonectl letters --lang de
//	phonectl viseme m ah sh
//	phonectl timeline hello --ms-per-unit 120
//	phonectl timeline --letter m
//	phonectl score --target hello --detected "h eh l oh"
//	phonectl detect --config config.yaml --word hello attempt.wav
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "phonectl: %v\n", err)
		os.Exit(1)
	}
}
