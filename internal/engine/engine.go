// Package engine drives a UCI chess engine subprocess and asks it for
// move suggestions.
package engine

import (
	"bufio"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Difficulty selects how strongly the engine plays.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// skillLevel maps a difficulty onto the engine's Skill Level option.
func (d Difficulty) skillLevel() int {
	switch d {
	case DifficultyEasy:
		return 0
	case DifficultyMedium:
		return 10
	default:
		return 20
	}
}

// ParseDifficulty reads a difficulty from its string form.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(s)) {
	case DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

var (
	ErrReadTimeout = errors.New("engine: read i/o timeout")
	ErrClosed      = errors.New("engine: process exited")
)

var bestMovePattern = regexp.MustCompile(`^bestmove ([a-h][1-8][a-h][1-8][qrbn]?)`)

// Engine is a running UCI engine process. Commands are serialized so
// concurrent suggestion requests do not interleave on the pipe.
type Engine struct {
	name string

	*exec.Cmd

	mu sync.Mutex

	writer *bufio.Writer
	reader *bufio.Reader

	lines chan string

	err error
}

// Start launches the engine binary and performs the UCI handshake.
func Start(command string) (*Engine, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("engine: empty command")
	}

	var engine Engine
	engine.name = filepath.Base(fields[0])
	process := exec.Command(fields[0], fields[1:]...)

	stdin, err := process.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := process.StdoutPipe()
	if err != nil {
		return nil, err
	}

	engine.writer = bufio.NewWriter(stdin)
	engine.reader = bufio.NewReader(stdout)
	engine.lines = make(chan string)

	engine.Cmd = process

	if err := engine.Cmd.Start(); err != nil {
		return nil, err
	}

	go func() {
		for {
			line, err := engine.reader.ReadString('\n')
			if err != nil {
				engine.err = err
				close(engine.lines)
				return
			}

			line = strings.Trim(line, " \n\t\r")

			logrus.Debugf("engine (%s)> %s", engine.name, line)
			engine.lines <- line
		}
	}()

	if err := engine.initialize(); err != nil {
		engine.Process.Kill()
		return nil, err
	}

	return &engine, nil
}

// initialize performs the uci handshake on startup.
func (engine *Engine) initialize() error {
	if err := engine.write("uci"); err != nil {
		return err
	}

	_, err := engine.await("^uciok$", 5*time.Second)
	return err
}

// synchronize waits for the engine to finish whatever it is chewing on.
func (engine *Engine) synchronize() error {
	if err := engine.write("isready"); err != nil {
		return err
	}

	_, err := engine.await("^readyok$", 5*time.Second)
	return err
}

// Quit asks the engine to exit and kills the process.
func (engine *Engine) Quit() error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.write("quit"); err != nil {
		return err
	}

	return engine.Process.Kill()
}

// BestMove plays the position reached by the coordinate-form move
// history and returns the engine's choice after movetime of thought.
func (engine *Engine) BestMove(history string, difficulty Difficulty, movetime time.Duration) (string, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.write("setoption name Skill Level value %d", difficulty.skillLevel()); err != nil {
		return "", err
	}
	if err := engine.synchronize(); err != nil {
		return "", err
	}

	position := "position startpos"
	if history = strings.TrimSpace(history); history != "" {
		position += " moves " + history
	}
	if err := engine.write(position); err != nil {
		return "", err
	}
	if err := engine.write("go movetime %d", movetime.Milliseconds()); err != nil {
		return "", err
	}

	line, err := engine.await("^bestmove ", movetime+5*time.Second)
	if err != nil {
		return "", err
	}

	match := bestMovePattern.FindStringSubmatch(line)
	if match == nil {
		return "", fmt.Errorf("engine: no legal move in %q", line)
	}
	return match[1], nil
}

// await is a utility function which waits for a particular line from
// the engine with a fixed timeout.
func (engine *Engine) await(pattern string, timeout time.Duration) (string, error) {
	regex := regexp.MustCompile(pattern)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			if engine.err != nil {
				return "", engine.err
			}

			return "", ErrReadTimeout

		case line, ok := <-engine.lines:
			if !ok {
				if engine.err != nil {
					return "", fmt.Errorf("%w: %v", ErrClosed, engine.err)
				}
				return "", ErrClosed
			}
			if regex.MatchString(line) {
				return line, nil
			}
		}
	}
}

func (engine *Engine) write(format string, a ...any) error {
	logrus.Debugf("engine (%s)< "+format, append([]any{engine.name}, a...)...)

	if _, err := fmt.Fprintf(engine.writer, format+"\n", a...); err != nil {
		return err
	}

	return engine.writer.Flush()
}
