// Command dcryptutil drives the key management library from the
// command line: keypair generation and key-string inspection.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	dcrypt "github.com/dovecot/dcrypt-go"
	// register the key-format codec on the dispatch table
	_ "github.com/dovecot/dcrypt-go/format"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  dcryptutil genkey [-kind EC|RSA|X25519] [-bits n] [-curve name] [-cipher name] [-password pw]
  dcryptutil inspect <key-string>
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	switch os.Args[1] {
	case "genkey":
		genkey(os.Args[2:])
	case "inspect":
		inspect(os.Args[2:])
	default:
		usage()
	}
}

func genkey(args []string) {
	fs := flag.NewFlagSet("genkey", flag.ExitOnError)
	kindName := fs.String("kind", "EC", "key kind: EC, RSA or X25519")
	bits := fs.Int("bits", 2048, "RSA modulus size")
	curve := fs.String("curve", "prime256v1", "EC curve short name")
	cipher := fs.String("cipher", "", "cipher for password-encrypting the private key")
	password := fs.String("password", "", "password for the private key")
	fs.Parse(args)

	var kind dcrypt.KeyKind
	switch strings.ToUpper(*kindName) {
	case "EC":
		kind = dcrypt.KindEC
	case "RSA":
		kind = dcrypt.KindRSA
	case "X25519":
		kind = dcrypt.KindX25519
	default:
		fmt.Fprintf(os.Stderr, "unknown key kind %q\n", *kindName)
		os.Exit(1)
	}

	b := dcrypt.GetBackend()
	pair, err := b.GenerateKeypair(kind, *bits, *curve)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generating keypair: %v\n", err)
		os.Exit(1)
	}
	defer pair.Destroy()

	pubRecord, err := b.StorePublicKey(pair.Public)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storing public key: %v\n", err)
		os.Exit(1)
	}
	privRecord, err := b.StorePrivateKey(pair.Private, *cipher, *password, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storing private key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(pubRecord)
	fmt.Println(privRecord)
}

func inspect(args []string) {
	if len(args) != 1 {
		usage()
	}
	info, err := dcrypt.GetBackend().KeyStringInfo(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspecting key string: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("format: %s\n", info.Format)
	if info.Format == dcrypt.FormatDovecot {
		fmt.Printf("version: %d\n", info.Version)
	}
	fmt.Printf("kind: %s\n", info.Kind)
	fmt.Printf("encryption: %s\n", info.EncryptionType)
	if info.EncryptionKeyHash != "" {
		fmt.Printf("encryption key hash: %s\n", info.EncryptionKeyHash)
	}
	if info.KeyHash != "" {
		fmt.Printf("key hash: %s\n", info.KeyHash)
	}
}
