package sink

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Package-level vars to allow test injection.
var (
	lookPath     = exec.LookPath
	statFile     = os.Stat
	goos         = runtime.GOOS
	startProcess = startDetached
)

// candidates lists the players tried per platform, in order.
var candidates = map[string][]string{
	"darwin":  {"afplay"},
	"linux":   {"paplay", "mpg123", "aplay"},
	"windows": {"powershell"},
}

// CommandPlayer plays files with the first audio command found on PATH.
type CommandPlayer struct {
	name string
	path string
}

// NewCommandPlayer detects the audio command for the current platform.
// The player is still returned when none is found; Play then fails.
func NewCommandPlayer() *CommandPlayer {
	for _, name := range candidates[goos] {
		if path, err := lookPath(name); err == nil {
			return &CommandPlayer{name: name, path: path}
		}
	}
	return &CommandPlayer{}
}

// Available reports whether an audio command was found.
func (p *CommandPlayer) Available() bool {
	return p.path != ""
}

// Name returns the detected command name, empty when none.
func (p *CommandPlayer) Name() string {
	return p.name
}

// Play starts the player on path detached from this process and returns
// without waiting for playback to finish.
func (p *CommandPlayer) Play(path string, volume float64) error {
	if _, err := statFile(path); err != nil {
		return fmt.Errorf("sound file: %w", err)
	}
	if !p.Available() {
		return ErrNoPlayer
	}

	cmd := exec.Command(p.path, playerArgs(p.name, path, volume)...) //nolint:gosec // path comes from LookPath
	if err := startProcess(cmd); err != nil {
		return fmt.Errorf("starting %s: %w", p.name, err)
	}
	return nil
}

// startDetached starts cmd in its own session and reaps it in the
// background. Nil stdio streams are wired to the null device by exec.
func startDetached(cmd *exec.Cmd) error {
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// playerArgs builds the command line for a player. Volume is in [0,1].
func playerArgs(name, path string, volume float64) []string {
	switch name {
	case "afplay":
		return []string{"-v", strconv.FormatFloat(volume, 'g', -1, 64), path}
	case "paplay":
		return []string{"--volume=" + strconv.Itoa(int(volume*65536)), path}
	case "mpg123":
		return []string{"-q", "-f", strconv.Itoa(int(volume*32768)), path}
	case "aplay":
		return []string{"-q", path}
	case "powershell":
		script := fmt.Sprintf(
			"Add-Type -AssemblyName PresentationCore; "+
				"$p = New-Object System.Windows.Media.MediaPlayer; "+
				"$p.Open([uri]'%s'); $p.Volume = %s; $p.Play(); "+
				"Start-Sleep -Milliseconds 300; "+
				"while ($p.NaturalDuration.HasTimeSpan -and $p.Position -lt $p.NaturalDuration.TimeSpan) { Start-Sleep -Milliseconds 200 }",
			strings.ReplaceAll(path, "'", "''"), strconv.FormatFloat(volume, 'g', -1, 64))
		return []string{"-NoProfile", "-WindowStyle", "Hidden", "-Command", script}
	default:
		return []string{path}
	}
}
