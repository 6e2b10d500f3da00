// Package voice synthesizes accepted replies with Google Cloud Text-to-Speech
// and plays them through a local audio player.
package voice

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	tts "google.golang.org/api/texttospeech/v1"
)

// Config selects the synthesis voice and the playback command.
type Config struct {
	VoiceName string // e.g. "en-US-Standard-C"
	Language  string // e.g. "en-US"
	AudioDir  string // where synthesized files land
	Player    string // external player binary, e.g. "ffplay" or "afplay"
}

// Synthesizer turns reply text into audio files and plays them.
type Synthesizer struct {
	svc *tts.Service
	cfg Config
}

// NewSynthesizer builds the TTS client using application default credentials.
func NewSynthesizer(ctx context.Context, cfg Config) (*Synthesizer, error) {
	svc, err := tts.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}
	if cfg.AudioDir == "" {
		cfg.AudioDir = "audio_output"
	}
	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir audio dir: %w", err)
	}
	return &Synthesizer{svc: svc, cfg: cfg}, nil
}

// Speak synthesizes text to an MP3 file and starts playback without blocking
// the caller. The file path is returned for logging.
func (s *Synthesizer) Speak(ctx context.Context, text string) (string, error) {
	req := &tts.SynthesizeSpeechRequest{
		Input: &tts.SynthesisInput{Text: text},
		Voice: &tts.VoiceSelectionParams{
			LanguageCode: s.cfg.Language,
			Name:         s.cfg.VoiceName,
		},
		AudioConfig: &tts.AudioConfig{AudioEncoding: "MP3"},
	}
	resp, err := s.svc.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return "", fmt.Errorf("decode audio: %w", err)
	}
	path := filepath.Join(s.cfg.AudioDir, fmt.Sprintf("reply_%d.mp3", time.Now().UnixNano()))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	s.play(path)
	return path, nil
}

func (s *Synthesizer) play(path string) {
	player := s.cfg.Player
	if player == "" {
		player = "ffplay"
	}
	args := []string{path}
	if player == "ffplay" {
		args = []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}
	}
	cmd := exec.Command(player, args...)
	if err := cmd.Start(); err != nil {
		slog.Warn("audio playback start failed", slog.String("player", player), slog.Any("err", err), slog.String("component", "voice"))
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Warn("audio playback failed", slog.Any("err", err), slog.String("component", "voice"))
		}
	}()
}
