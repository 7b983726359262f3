package tts_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"playlet/internal/services/tts"
	"playlet/internal/timecode"
)

// makeWAV builds a 16 kHz mono 16-bit PCM file with the given duration.
func makeWAV(t *testing.T, duration time.Duration) []byte {
	t.Helper()
	const sampleRate = 16000
	const byteRate = sampleRate * 2
	dataSize := int(duration.Seconds() * byteRate)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))  // block align
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16)) // bits per sample
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func TestSynthesizeMeasuresDuration(t *testing.T) {
	audio := makeWAV(t, 4200*time.Millisecond)
	var gotText, gotVoice, gotSpeed string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotText = r.PostFormValue("text")
		gotVoice = r.PostFormValue("spk")
		gotSpeed = r.PostFormValue("speed")
		_, _ = w.Write(audio)
	}))
	defer server.Close()

	client := tts.NewClient(tts.Config{BaseURL: server.URL, Voice: "中文女", Speed: 1.0})
	outputPath := filepath.Join(t.TempDir(), "seg3.wav")

	result, err := client.Synthesize(context.Background(), tts.Request{Text: "注意看。"}, outputPath)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if result.Duration != timecode.Millis(4200) {
		t.Errorf("duration = %d, want 4200", result.Duration)
	}
	if result.AudioPath != outputPath {
		t.Errorf("audio path = %q", result.AudioPath)
	}
	if gotText != "注意看。" || gotVoice != "中文女" || gotSpeed != "1.00" {
		t.Errorf("form = text %q spk %q speed %q", gotText, gotVoice, gotSpeed)
	}
	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("expected audio file on disk: %v", err)
	}
}

func TestSynthesizeRetriesServerErrors(t *testing.T) {
	audio := makeWAV(t, time.Second)
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(audio)
	}))
	defer server.Close()

	var slept []time.Duration
	client := tts.NewClient(
		tts.Config{BaseURL: server.URL, Voice: "中文女"},
		tts.WithRetryBackoff(5*time.Millisecond, 20*time.Millisecond),
		tts.WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)

	result, err := client.Synthesize(context.Background(), tts.Request{Text: "第二次"}, filepath.Join(t.TempDir(), "out.wav"))
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(slept) != 1 || slept[0] != 5*time.Millisecond {
		t.Fatalf("sleeps = %v", slept)
	}
	if result.Duration != timecode.Millis(1000) {
		t.Errorf("duration = %d, want 1000", result.Duration)
	}
}

func TestSynthesizeDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "unknown voice", http.StatusBadRequest)
	}))
	defer server.Close()

	client := tts.NewClient(tts.Config{BaseURL: server.URL, Voice: "火星语"})
	if _, err := client.Synthesize(context.Background(), tts.Request{Text: "喂"}, filepath.Join(t.TempDir(), "out.wav")); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestSynthesizeRejectsNonWAVResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not audio</html>"))
	}))
	defer server.Close()

	client := tts.NewClient(tts.Config{BaseURL: server.URL, Voice: "中文女"})
	if _, err := client.Synthesize(context.Background(), tts.Request{Text: "喂"}, filepath.Join(t.TempDir(), "out.wav")); err == nil {
		t.Fatal("expected error for non-wav body")
	}
}

func TestSynthesizeRequiresText(t *testing.T) {
	client := tts.NewClient(tts.Config{BaseURL: "http://localhost:1", Voice: "中文女"})
	if _, err := client.Synthesize(context.Background(), tts.Request{Text: "  "}, "out.wav"); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestClampSpeed(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{0, 1.0},
		{-1, 1.0},
		{0.25, 0.5},
		{0.8, 0.8},
		{1.5, 1.5},
		{3.0, 2.0},
	}
	for _, tt := range tests {
		if got := tts.ClampSpeed(tt.input); got != tt.expected {
			t.Errorf("ClampSpeed(%v) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestMeasureWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("RIFFxxxxJUNK"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := tts.MeasureWAV(path); err == nil {
		t.Fatal("expected error for malformed file")
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := tts.NewClient(tts.Config{BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}
