// Package wav packs 16-bit PCM into RIFF/WAV containers and reads them back.
//
// Recorded attempts arrive as WAV uploads of arbitrary rate and channel
// count. [Normalize] turns them into the 16 kHz mono layout detection
// backends expect.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// BitsPerSample is the only sample width this package produces or accepts.
const BitsPerSample = 16

// DefaultSampleRate is the rate detection backends expect.
const DefaultSampleRate = 16000

const headerSize = 44

// ErrInvalid is returned for data that is not a 16-bit PCM WAV file.
var ErrInvalid = errors.New("wav: invalid data")

// Header describes the audio layout of a WAV file.
type Header struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
	DataSize      int
}

// DurationMs returns the playback length in milliseconds.
func (h Header) DurationMs() int {
	bytesPerSec := h.SampleRate * h.Channels * h.BitsPerSample / 8
	if bytesPerSec <= 0 {
		return 0
	}
	return int(int64(h.DataSize) * 1000 / int64(bytesPerSec))
}

// Encode wraps 16-bit signed little-endian PCM in a canonical 44-byte
// RIFF/WAV header.
func Encode(pcm []byte, sampleRate, channels int) []byte {
	byteRate := sampleRate * channels * BitsPerSample / 8
	blockAlign := channels * BitsPerSample / 8
	dataSize := len(pcm)

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], BitsPerSample)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[headerSize:], pcm)
	return buf
}

// Decode parses a WAV file and returns its header and PCM payload. Chunks
// other than "fmt " and "data" are skipped. A data chunk whose declared size
// runs past the end of the buffer is truncated, as browsers stream the header
// before the final size is known.
func Decode(data []byte) (Header, []byte, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Header{}, nil, fmt.Errorf("%w: missing RIFF/WAVE signature", ErrInvalid)
	}

	var (
		h      Header
		gotFmt bool
	)
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return Header{}, nil, fmt.Errorf("%w: short fmt chunk", ErrInvalid)
			}
			if format := binary.LittleEndian.Uint16(data[body : body+2]); format != 1 {
				return Header{}, nil, fmt.Errorf("%w: unsupported format %d", ErrInvalid, format)
			}
			h.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			h.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			h.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			gotFmt = true

		case "data":
			if !gotFmt {
				return Header{}, nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrInvalid)
			}
			end := min(body+size, len(data))
			h.DataSize = end - body
			if err := h.validate(); err != nil {
				return Header{}, nil, err
			}
			return h, data[body:end], nil
		}

		// Chunks are word aligned.
		next := body + size + size%2
		if next <= off {
			break
		}
		off = next
	}
	return Header{}, nil, fmt.Errorf("%w: no data chunk", ErrInvalid)
}

// Validate checks that data is a decodable 16-bit PCM WAV file and returns
// its header.
func Validate(data []byte) (Header, error) {
	h, _, err := Decode(data)
	return h, err
}

func (h Header) validate() error {
	var errs []error
	if h.BitsPerSample != BitsPerSample {
		errs = append(errs, fmt.Errorf("%w: %d bits per sample, want %d", ErrInvalid, h.BitsPerSample, BitsPerSample))
	}
	if h.Channels < 1 || h.Channels > 8 {
		errs = append(errs, fmt.Errorf("%w: %d channels", ErrInvalid, h.Channels))
	}
	if h.SampleRate < 4000 || h.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("%w: sample rate %d", ErrInvalid, h.SampleRate))
	}
	return errors.Join(errs...)
}

// Normalize decodes data and re-encodes it as mono at sampleRate. Input that
// already matches is returned unchanged.
func Normalize(data []byte, sampleRate int) ([]byte, Header, error) {
	h, pcm, err := Decode(data)
	if err != nil {
		return nil, Header{}, err
	}
	if h.Channels == 1 && h.SampleRate == sampleRate {
		return data, h, nil
	}
	mono := Downmix(pcm, h.Channels)
	mono = Resample(mono, h.SampleRate, sampleRate)
	out := Header{SampleRate: sampleRate, Channels: 1, BitsPerSample: BitsPerSample, DataSize: len(mono)}
	return Encode(mono, sampleRate, 1), out, nil
}

// FromFloat32 packs samples in [-1, 1] as 16-bit signed little-endian PCM.
// Out-of-range samples are clipped.
func FromFloat32(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := math.Round(float64(s) * 32767)
		v = max(-32768, min(32767, v))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// ToFloat32 converts 16-bit signed little-endian PCM to samples in [-1, 1).
// A trailing odd byte is ignored.
func ToFloat32(pcm []byte) []float32 {
	n := len(pcm) / 2
	samples := make([]float32, n)
	for i := range n {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float32(s) / 32768.0
	}
	return samples
}

// Downmix averages interleaved channels into mono 16-bit PCM.
func Downmix(pcm []byte, channels int) []byte {
	if channels <= 1 {
		return pcm
	}
	frames := len(pcm) / (2 * channels)
	out := make([]byte, frames*2)
	for i := range frames {
		var sum int32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sum += int32(int16(binary.LittleEndian.Uint16(pcm[idx:])))
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(sum/int32(channels))))
	}
	return out
}

// Resample converts mono 16-bit PCM from srcRate to dstRate by linear
// interpolation.
func Resample(pcm []byte, srcRate, dstRate int) []byte {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(pcm) < 2 {
		return pcm
	}
	src := len(pcm) / 2
	dst := int(int64(src) * int64(dstRate) / int64(srcRate))
	out := make([]byte, dst*2)
	step := float64(srcRate) / float64(dstRate)
	for i := range dst {
		pos := float64(i) * step
		idx := int(pos)
		frac := pos - float64(idx)
		s0 := int16(binary.LittleEndian.Uint16(pcm[idx*2:]))
		s1 := s0
		if idx+1 < src {
			s1 = int16(binary.LittleEndian.Uint16(pcm[(idx+1)*2:]))
		}
		v := int16(float64(s0)*(1-frac) + float64(s1)*frac)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// RMS returns the root-mean-square energy of 16-bit PCM in sample units
// (0–32767).
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// SilenceThreshold is the RMS level below which a recording counts as
// silent.
const SilenceThreshold = 300.0

// IsSilent reports whether pcm carries no audible speech.
func IsSilent(pcm []byte) bool { return RMS(pcm) < SilenceThreshold }
