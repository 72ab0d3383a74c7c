package sdcard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/infomedia-iot/iot-provisioner/logging"
	"github.com/ulikunitz/xz"
)

const progressStep = 64 << 20

// Flash streams the image at src onto dst, decompressing .xz images on the fly. dst is
// usually a block device; a regular file is truncated first. It returns the number of
// bytes written.
func Flash(ctx context.Context, src, dst string, logger *slog.Logger) (int64, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, errors.Join(ErrFlash, err)
	}
	if dstInfo, err := os.Stat(dst); err == nil {
		if os.SameFile(srcInfo, dstInfo) {
			return 0, fmt.Errorf("%w: %s", ErrSameTarget, dst)
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, errors.Join(ErrFlash, err)
	}
	defer in.Close()

	var r io.Reader = bufio.NewReaderSize(in, 1<<20)
	if strings.HasSuffix(src, ".xz") {
		xr, err := xz.NewReader(r)
		if err != nil {
			return 0, errors.Join(ErrFlash, fmt.Errorf("failed to create xz reader: %w", err))
		}
		r = xr
	}

	flags := os.O_WRONLY
	if info, err := os.Stat(dst); err != nil || info.Mode().IsRegular() {
		flags |= os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(dst, flags, 0o644)
	if err != nil {
		return 0, errors.Join(ErrFlash, err)
	}
	defer out.Close()

	l := logger.With(slog.String("source", src), slog.String("destination", dst))
	l.Info("Writing image", slog.String("size", HumanBytes(srcInfo.Size())))

	progress := &progressWriter{w: out, log: l}
	n, err := io.CopyBuffer(progress, &contextReader{ctx: ctx, r: r}, make([]byte, 4<<20))
	if err != nil {
		return n, errors.Join(ErrFlash, err)
	}

	l.Info("Syncing", slog.String("written", HumanBytes(n)))
	if err := out.Sync(); err != nil {
		return n, errors.Join(ErrFlash, err)
	}
	if err := out.Close(); err != nil {
		return n, errors.Join(ErrFlash, err)
	}

	l.Info("Image written", slog.String("written", HumanBytes(n)))
	return n, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// progressWriter logs every progressStep bytes.
type progressWriter struct {
	w       io.Writer
	log     *slog.Logger
	written int64
	next    int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.next == 0 {
		p.next = progressStep
	}
	for p.written >= p.next {
		p.log.Info("Progress", slog.String("written", HumanBytes(p.written)))
		p.next += progressStep
	}
	return n, err
}

func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
