// Package audiodecode implements the diarization.AudioDecoder interface
// over concrete audio codecs.
package audiodecode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// TargetSampleRate is the sample rate every AudioDecoder implementation in
// this package normalizes its output to.
const TargetSampleRate = 16000

// MP3Decoder implements diarization.AudioDecoder over go-mp3: it decodes to
// interleaved 16-bit stereo PCM, down-mixes to mono by arithmetic average,
// converts to float32 in [-1, 1], then linearly resamples to 16kHz.
type MP3Decoder struct{}

// NewMP3Decoder constructs an MP3Decoder.
func NewMP3Decoder() *MP3Decoder { return &MP3Decoder{} }

// Decode reads and decodes the MP3 file at path.
func (d *MP3Decoder) Decode(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	mono, err := readMonoPCM(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3 samples: %w", err)
	}

	return resampleLinear(mono, dec.SampleRate(), TargetSampleRate), nil
}

// readMonoPCM drains dec's interleaved 16-bit stereo PCM stream into mono
// float32 samples in [-1, 1].
func readMonoPCM(dec *mp3.Decoder) ([]float32, error) {
	buf := make([]byte, 32*1024)
	var mono []float32

	for {
		n, err := dec.Read(buf)
		if n > 0 {
			// go-mp3 always emits interleaved 16-bit little-endian stereo.
			frames := n / 4
			for i := 0; i < frames; i++ {
				left := int16(binary.LittleEndian.Uint16(buf[i*4:]))
				right := int16(binary.LittleEndian.Uint16(buf[i*4+2:]))
				avg := (float32(left) + float32(right)) / 2 / 32768.0
				mono = append(mono, avg)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return mono, nil
}

// resampleLinear resamples samples from srcRate to dstRate via linear
// interpolation. Returns samples unchanged if the rates already match.
func resampleLinear(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(len(samples)) / ratio)
	out := make([]float32, outLen)

	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := float32(srcPos - float64(idx))
		if idx+1 < len(samples) {
			out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
		} else if idx < len(samples) {
			out[i] = samples[idx]
		}
	}
	return out
}
