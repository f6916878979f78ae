package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"getpocket/internal/crypto"
)

// pocket-seal reads an access token from stdin and prints it sealed with
// POCKET_PASSPHRASE, ready for pocket.sealed_access_token in config.yaml.
func main() {
	passphrase := os.Getenv("POCKET_PASSPHRASE")
	if passphrase == "" {
		log.Fatal("POCKET_PASSPHRASE must be set")
	}

	token, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && token == "" {
		log.Fatalf("Error reading access token from stdin: %v", err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		log.Fatal("Empty access token")
	}

	sealed, err := crypto.SealToken(token, passphrase)
	if err != nil {
		log.Fatalf("Error sealing access token: %v", err)
	}

	fmt.Println(sealed)
}
