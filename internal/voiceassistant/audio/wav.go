// ============================================================================
// SandVoice - Voice-First Assistant
// ============================================================================
//
// Package:     audio
// Description: Minimal WAV encode/decode for 16-bit PCM
// License:     MIT
// ============================================================================

package audio

import (
	"encoding/binary"
	"fmt"
)

// EncodeWAV wraps mono/stereo 16-bit PCM in a RIFF WAVE container. Used to
// hand recorded utterances to the transcription service.
func EncodeWAV(pcm []int16, sampleRate, channels int) []byte {
	dataSize := len(pcm) * 2
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(buf[34:36], 16)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range pcm {
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(s))
	}
	return buf
}

// DecodeWAV parses a WAV file and returns its sample rate and 16-bit PCM
// payload. Chunks other than fmt and data are skipped.
func DecodeWAV(data []byte) (int, []int16, error) {
	if len(data) < 44 {
		return 0, nil, fmt.Errorf("wav: file too small (%d bytes)", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return 0, nil, fmt.Errorf("wav: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return 0, nil, fmt.Errorf("wav: missing WAVE marker")
	}

	pos := 12
	var sampleRate int
	var dataStart, dataSize int

	for pos+8 <= len(data) {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && pos+16 <= len(data) {
				sampleRate = int(binary.LittleEndian.Uint32(data[pos+12 : pos+16]))
			}
		case "data":
			dataStart = pos + 8
			dataSize = chunkSize
		}

		pos += 8 + chunkSize
		if pos%2 != 0 {
			pos++ // word alignment
		}
	}

	if sampleRate == 0 || dataStart == 0 {
		return 0, nil, fmt.Errorf("wav: missing fmt or data chunk")
	}
	if dataStart+dataSize > len(data) {
		dataSize = len(data) - dataStart
	}

	pcm := make([]int16, dataSize/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[dataStart+i*2:]))
	}
	return sampleRate, pcm, nil
}
