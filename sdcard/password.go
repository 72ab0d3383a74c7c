package sdcard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/infomedia-iot/iot-provisioner/common"
)

// HashPassword returns the SHA-512 crypt hash openssl produces for password.
func HashPassword(ctx context.Context, runner common.Runner, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", ErrPasswordHash)
	}

	// the password goes through stdin, never the command line
	out, err := runner.Input(ctx, password+"\n", "openssl", "passwd", "-6", "-stdin")
	if err != nil {
		return "", errors.Join(ErrPasswordHash, err)
	}

	hash := strings.TrimSpace(out)
	if !strings.HasPrefix(hash, "$6$") {
		return "", fmt.Errorf("%w: unexpected openssl output", ErrPasswordHash)
	}
	return hash, nil
}
