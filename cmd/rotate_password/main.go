// Rotates the vault password: decrypts every secret record with the old
// password and re-encrypts it under the new one.
// Usage: go run ./cmd/rotate_password [path/to/wallet.db]
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"ewt/internal/crypto"
	"ewt/internal/storage"

	"golang.org/x/term"
)

func main() {
	dbPath := "./data/wallet.db"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	if err := run(dbPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println("vault password rotated")
}

func run(dbPath string) error {
	ctx := context.Background()

	store, err := storage.OpenBolt(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	salt, err := store.Get(ctx, storage.KeyVaultSalt)
	if err != nil {
		return err
	}
	if salt == nil {
		return fmt.Errorf("no vault found at %s", dbPath)
	}

	oldPassword, err := prompt("Current password: ")
	if err != nil {
		return err
	}
	defer clear(oldPassword)

	oldCipher, err := crypto.NewCipher(oldPassword, salt, crypto.DefaultParams)
	if err != nil {
		return err
	}

	// Decrypt every secret record up front so a wrong password fails
	// before anything is rewritten.
	secrets := map[string][]byte{}
	for _, key := range []string{storage.KeyMasterSeed, storage.KeyWallets} {
		raw, err := store.Get(ctx, key)
		if err != nil {
			return err
		}
		if raw == nil {
			continue
		}
		var blob crypto.SealedBlob
		if err := json.Unmarshal(raw, &blob); err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
		plaintext, err := oldCipher.Open(&blob)
		if err != nil {
			return fmt.Errorf("decrypt %s (wrong password?): %w", key, err)
		}
		secrets[key] = plaintext
	}
	if len(secrets) == 0 {
		return fmt.Errorf("vault holds no secret records")
	}

	newPassword, err := prompt("New password: ")
	if err != nil {
		return err
	}
	defer clear(newPassword)
	confirm, err := prompt("Confirm new password: ")
	if err != nil {
		return err
	}
	defer clear(confirm)
	if !bytes.Equal(newPassword, confirm) {
		return fmt.Errorf("passwords do not match")
	}

	// Same salt, new password. Keeping the salt means an interrupted run
	// leaves every record decryptable with one of the two passwords.
	newCipher, err := crypto.NewCipher(newPassword, salt, crypto.DefaultParams)
	if err != nil {
		return err
	}

	for key, plaintext := range secrets {
		blob, err := newCipher.Seal(plaintext)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", key, err)
		}
		raw, err := json.Marshal(blob)
		if err != nil {
			return err
		}
		if err := store.Set(ctx, key, raw); err != nil {
			return fmt.Errorf("persist %s: %w", key, err)
		}
		clear(plaintext)
	}
	return nil
}

func prompt(label string) ([]byte, error) {
	fmt.Print(label)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return nil, err
	}
	return password, nil
}
