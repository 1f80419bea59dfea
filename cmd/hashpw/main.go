package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/eldtechnologies/roomboard/internal/gate"
)

func main() {
	password := flag.String("password", "", "Room password to hash (or use stdin)")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	check := flag.String("check", "", "Existing hash to compare the password against instead of hashing")
	flag.Parse()

	// Read password from stdin when not given as a flag
	if *password == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "Usage: hashpw [-cost n] [-check <hash>] -password <password>")
			fmt.Fprintln(os.Stderr, "  Reads the password from stdin if -password not specified")
			os.Exit(1)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	comparer := gate.BcryptComparer{Cost: *cost}

	if *check != "" {
		if comparer.Compare(*check, *password) {
			fmt.Println("match")
			return
		}
		fmt.Println("no match")
		os.Exit(1)
	}

	hash, err := comparer.Seal(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
