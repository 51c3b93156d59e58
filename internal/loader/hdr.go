package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"Prism3D/internal/logger"

	"go.uber.org/zap"
)

var ErrHDRFormat = errors.New("loader: not a Radiance RGBE image")

// HDR is a linear float image, four floats per pixel with alpha 1, first
// row at the top.
type HDR struct {
	Width, Height int
	Pix           []float32
}

// LoadHDR reads a Radiance .hdr file.
func LoadHDR(path string) (*HDR, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeHDR(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Log.Info("HDR image loaded",
		zap.String("file", path),
		zap.Int("width", img.Width),
		zap.Int("height", img.Height))
	return img, nil
}

// DecodeHDR decodes RGBE data in the -Y H +X W orientation, flat or with
// per-channel run-length scanlines.
func DecodeHDR(r io.Reader) (*HDR, error) {
	br := bufio.NewReader(r)
	width, height, err := readHDRHeader(br)
	if err != nil {
		return nil, err
	}

	img := &HDR{Width: width, Height: height, Pix: make([]float32, width*height*4)}
	line := make([]byte, width*4)
	for y := 0; y < height; y++ {
		if err := readScanline(br, line); err != nil {
			return nil, fmt.Errorf("scanline %d: %w", y, err)
		}
		row := img.Pix[y*width*4 : (y+1)*width*4]
		for x := 0; x < width; x++ {
			rgbeToFloat(line[x*4:x*4+4], row[x*4:x*4+4])
		}
	}
	return img, nil
}

func readHDRHeader(br *bufio.Reader) (width, height int, err error) {
	magic, err := br.ReadString('\n')
	if err != nil || !(strings.HasPrefix(magic, "#?RADIANCE") || strings.HasPrefix(magic, "#?RGBE")) {
		return 0, 0, ErrHDRFormat
	}
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return 0, 0, fmt.Errorf("%w: truncated header", ErrHDRFormat)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if format, ok := strings.CutPrefix(line, "FORMAT="); ok && format != "32-bit_rle_rgbe" {
			return 0, 0, fmt.Errorf("%w: format %s", ErrHDRFormat, format)
		}
	}

	res, err := br.ReadString('\n')
	if err != nil {
		return 0, 0, fmt.Errorf("%w: missing resolution", ErrHDRFormat)
	}
	fields := strings.Fields(res)
	if len(fields) != 4 || fields[0] != "-Y" || fields[2] != "+X" {
		return 0, 0, fmt.Errorf("%w: unsupported orientation %q", ErrHDRFormat, strings.TrimSpace(res))
	}
	height, err1 := strconv.Atoi(fields[1])
	width, err2 := strconv.Atoi(fields[3])
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: bad resolution %q", ErrHDRFormat, strings.TrimSpace(res))
	}
	return width, height, nil
}

// readScanline fills line with width RGBE quads.
func readScanline(br *bufio.Reader, line []byte) error {
	width := len(line) / 4
	head, err := br.Peek(4)
	if err != nil {
		return err
	}
	rle := width >= 8 && width < 0x8000 && head[0] == 2 && head[1] == 2 && head[2]&0x80 == 0
	if !rle {
		_, err := io.ReadFull(br, line)
		return err
	}
	if int(head[2])<<8|int(head[3]) != width {
		return fmt.Errorf("%w: scanline width mismatch", ErrHDRFormat)
	}
	br.Discard(4)

	// Channels are stored one after another, each run-length encoded.
	for c := 0; c < 4; c++ {
		for x := 0; x < width; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count - 128)
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				if x+n > width {
					return fmt.Errorf("%w: run overflows scanline", ErrHDRFormat)
				}
				for ; n > 0; n-- {
					line[x*4+c] = v
					x++
				}
				continue
			}
			n := int(count)
			if n == 0 || x+n > width {
				return fmt.Errorf("%w: bad literal run", ErrHDRFormat)
			}
			for ; n > 0; n-- {
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				line[x*4+c] = v
				x++
			}
		}
	}
	return nil
}

func rgbeToFloat(rgbe []byte, out []float32) {
	out[3] = 1
	if rgbe[3] == 0 {
		out[0], out[1], out[2] = 0, 0, 0
		return
	}
	scale := float32(math.Ldexp(1, int(rgbe[3])-(128+8)))
	out[0] = float32(rgbe[0]) * scale
	out[1] = float32(rgbe[1]) * scale
	out[2] = float32(rgbe[2]) * scale
}
