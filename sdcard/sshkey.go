package sdcard

import (
	"bufio"
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/infomedia-iot/iot-provisioner/common"
	"golang.org/x/crypto/ssh"
)

// EnsureKeyPair returns the public half of the key at keyPath in authorized_keys form,
// generating an ed25519 pair when <keyPath>.pub does not exist yet.
func EnsureKeyPair(keyPath, comment string) (ssh.PublicKey, bool, error) {
	pubPath := keyPath + ".pub"

	if common.FileExists(pubPath) {
		data, err := os.ReadFile(pubPath)
		if err != nil {
			return nil, false, errors.Join(ErrSSHKey, err)
		}
		pub, _, _, _, err := ssh.ParseAuthorizedKey(data)
		if err != nil {
			return nil, false, errors.Join(ErrSSHKey, fmt.Errorf("%s: %w", pubPath, err))
		}
		return pub, false, nil
	}

	if common.PathExists(keyPath) {
		return nil, false, fmt.Errorf("%w: %s exists without %s", ErrSSHKey, keyPath, pubPath)
	}

	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, false, errors.Join(ErrSSHKey, err)
	}

	block, err := ssh.MarshalPrivateKey(privKey, comment)
	if err != nil {
		return nil, false, errors.Join(ErrSSHKey, err)
	}
	pub, err := ssh.NewPublicKey(pubKey)
	if err != nil {
		return nil, false, errors.Join(ErrSSHKey, err)
	}

	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, false, errors.Join(ErrSSHKey, err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600); err != nil {
		return nil, false, errors.Join(ErrSSHKey, err)
	}
	if err := os.WriteFile(pubPath, authorizedLine(pub, comment), 0o644); err != nil {
		return nil, false, errors.Join(ErrSSHKey, err)
	}

	return pub, true, nil
}

func authorizedLine(pub ssh.PublicKey, comment string) []byte {
	line := bytes.TrimRight(ssh.MarshalAuthorizedKey(pub), "\n")
	if comment != "" {
		line = append(line, ' ')
		line = append(line, comment...)
	}
	return append(line, '\n')
}

// AuthorizeKey appends pub to the authorized_keys file below home unless the same key is
// already listed. It returns the file path and whether the file changed.
func AuthorizeKey(home string, pub ssh.PublicKey, comment string) (string, bool, error) {
	dir := filepath.Join(home, ".ssh")
	path := filepath.Join(dir, "authorized_keys")

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return path, false, errors.Join(ErrSSHKey, err)
	}
	if err := os.Chmod(dir, 0o700); err != nil {
		return path, false, errors.Join(ErrSSHKey, err)
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return path, false, errors.Join(ErrSSHKey, err)
	}

	want := pub.Marshal()
	scanner := bufio.NewScanner(bytes.NewReader(existing))
	for scanner.Scan() {
		known, _, _, _, err := ssh.ParseAuthorizedKey(scanner.Bytes())
		if err != nil {
			continue // comments and options-only lines
		}
		if bytes.Equal(known.Marshal(), want) {
			return path, false, nil
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return path, false, errors.Join(ErrSSHKey, err)
	}
	defer f.Close()

	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			return path, false, errors.Join(ErrSSHKey, err)
		}
	}
	if _, err := f.Write(authorizedLine(pub, comment)); err != nil {
		return path, false, errors.Join(ErrSSHKey, err)
	}
	if err := f.Chmod(0o600); err != nil {
		return path, false, errors.Join(ErrSSHKey, err)
	}

	return path, true, nil
}
