package tts

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"playlet/internal/timecode"
)

// ErrNotWAV indicates the synthesis server returned something other than a
// RIFF/WAVE stream.
var ErrNotWAV = errors.New("not a wav file")

// MeasureWAV reads a PCM WAV header and returns the audio duration.
func MeasureWAV(path string) (timecode.Millis, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()
	return measureWAV(file)
}

func measureWAV(r io.Reader) (timecode.Millis, error) {
	var riff struct {
		ChunkID [4]byte
		Size    uint32
		Format  [4]byte
	}
	if err := binary.Read(r, binary.LittleEndian, &riff); err != nil {
		return 0, fmt.Errorf("%w: read header: %v", ErrNotWAV, err)
	}
	if string(riff.ChunkID[:]) != "RIFF" || string(riff.Format[:]) != "WAVE" {
		return 0, ErrNotWAV
	}

	var byteRate uint32
	for {
		var chunk struct {
			ID   [4]byte
			Size uint32
		}
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return 0, fmt.Errorf("%w: missing data chunk", ErrNotWAV)
			}
			return 0, err
		}

		switch string(chunk.ID[:]) {
		case "fmt ":
			var format struct {
				AudioFormat   uint16
				NumChannels   uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &format); err != nil {
				return 0, fmt.Errorf("%w: read fmt chunk: %v", ErrNotWAV, err)
			}
			byteRate = format.ByteRate
			if remainder := int64(chunk.Size) - 16; remainder > 0 {
				if err := skip(r, remainder); err != nil {
					return 0, err
				}
			}
		case "data":
			if byteRate == 0 {
				return 0, fmt.Errorf("%w: data chunk before fmt", ErrNotWAV)
			}
			millis := int64(chunk.Size) * 1000 / int64(byteRate)
			return timecode.Millis(millis), nil
		default:
			// Chunks are word-aligned; odd sizes carry a pad byte.
			size := int64(chunk.Size)
			if size%2 == 1 {
				size++
			}
			if err := skip(r, size); err != nil {
				return 0, err
			}
		}
	}
}

func skip(r io.Reader, n int64) error {
	if seeker, ok := r.(io.Seeker); ok {
		_, err := seeker.Seek(n, io.SeekCurrent)
		return err
	}
	_, err := io.CopyN(io.Discard, r, n)
	return err
}
