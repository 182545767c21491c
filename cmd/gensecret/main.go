// Generates a random value suitable for the SECRET_KEY setting
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
)

func main() {
	numBytes := flag.Int("bytes", 32, "secret key length in bytes")
	flag.Parse()

	b := make([]byte, *numBytes)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
