package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jwaldner/bsmpricer/internal/logger"
)

// ErrTrailClosed is returned by a Trail after Close
var ErrTrailClosed = errors.New("audit trail closed")

// Header opens the audit file of one portfolio run
type Header struct {
	RunID      string    `json:"run_id"`
	Expiration string    `json:"expiration,omitempty"`
	Symbols    []string  `json:"symbols"`
	StartTime  time.Time `json:"start_time"`
}

// Entry is one recorded section of a run
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Section   string    `json:"section"`
	Data      any       `json:"data"`
}

// File is the on-disk audit of a run
type File struct {
	Header    Header     `json:"header"`
	Entries   []Entry    `json:"entries"`
	Completed *time.Time `json:"completed,omitempty"`
}

type actionType int

const (
	actionBegin actionType = iota
	actionAppend
	actionFinish
)

type action struct {
	typ    actionType
	runID  string
	header Header
	entry  Entry
	reply  chan finishResult
}

type finishResult struct {
	path string
	err  error
}

// Trail records portfolio runs as <dir>/<run id>.json with a markdown summary on finish.
// A single worker goroutine owns every file operation.
type Trail struct {
	dir string
	ch  chan action

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewTrail starts the audit worker writing under dir
func NewTrail(dir string) *Trail {
	t := &Trail{
		dir:  dir,
		ch:   make(chan action, 100),
		done: make(chan struct{}),
	}
	go t.worker()
	return t
}

// Begin opens the audit file for a run
func (t *Trail) Begin(header Header) error {
	return t.send(action{typ: actionBegin, runID: header.RunID, header: header})
}

// Append adds a section to an open run
func (t *Trail) Append(runID, section string, data any) error {
	return t.send(action{
		typ:   actionAppend,
		runID: runID,
		entry: Entry{Timestamp: time.Now(), Section: section, Data: data},
	})
}

// Finish completes a run's audit, writes its markdown summary and returns the JSON path
func (t *Trail) Finish(runID string) (string, error) {
	reply := make(chan finishResult, 1)
	if err := t.send(action{typ: actionFinish, runID: runID, reply: reply}); err != nil {
		return "", err
	}
	res := <-reply
	return res.path, res.err
}

// Close drains pending actions and stops the worker
func (t *Trail) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.ch)
	t.mu.Unlock()

	<-t.done
	return nil
}

func (t *Trail) send(a action) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ErrTrailClosed
	}

	// Finish waits for room; the async actions never block the caller
	if a.typ == actionFinish {
		t.ch <- a
		return nil
	}
	select {
	case t.ch <- a:
		return nil
	default:
		return fmt.Errorf("audit channel full")
	}
}

func (t *Trail) worker() {
	defer close(t.done)
	log := logger.WithComponent("audit")
	files := make(map[string]*File)

	for a := range t.ch {
		switch a.typ {
		case actionBegin:
			f := &File{Header: a.header, Entries: []Entry{}}
			files[a.runID] = f
			if _, err := t.write(f); err != nil {
				log.Warnf("run %s: %v", a.runID, err)
			}

		case actionAppend:
			f, ok := files[a.runID]
			if !ok {
				log.Warnf("run %s: append %q without an open audit", a.runID, a.entry.Section)
				continue
			}
			f.Entries = append(f.Entries, a.entry)
			if _, err := t.write(f); err != nil {
				log.Warnf("run %s: %v", a.runID, err)
			}

		case actionFinish:
			f, ok := files[a.runID]
			if !ok {
				a.reply <- finishResult{err: fmt.Errorf("no open audit for run %s", a.runID)}
				continue
			}
			delete(files, a.runID)

			completed := time.Now()
			f.Completed = &completed
			path, err := t.write(f)
			if err == nil {
				err = t.writeSummary(f)
			}
			if err == nil {
				log.Debugf("run %s: audit written to %s", a.runID, path)
			}
			a.reply <- finishResult{path: path, err: err}
		}
	}
}

func (t *Trail) write(f *File) (string, error) {
	if err := os.MkdirAll(t.dir, 0755); err != nil {
		return "", fmt.Errorf("creating audit directory: %w", err)
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding audit: %w", err)
	}
	path := filepath.Join(t.dir, f.Header.RunID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing audit: %w", err)
	}
	return path, nil
}

func (t *Trail) writeSummary(f *File) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# Audit Summary - %s\n\n", f.Header.RunID)
	fmt.Fprintf(&b, "**Started:** %s\n\n", f.Header.StartTime.Format("2006-01-02 15:04:05"))
	if f.Header.Expiration != "" {
		fmt.Fprintf(&b, "**Expiration:** %s\n\n", f.Header.Expiration)
	}
	symbols := append([]string(nil), f.Header.Symbols...)
	sort.Strings(symbols)
	fmt.Fprintf(&b, "**Symbols:** %s\n\n", strings.Join(symbols, ", "))

	for _, e := range f.Entries {
		fmt.Fprintf(&b, "## %s\n\n", e.Section)
		fmt.Fprintf(&b, "**Timestamp:** %s\n\n", e.Timestamp.Format(time.RFC3339))
		data, err := json.MarshalIndent(e.Data, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s section: %w", e.Section, err)
		}
		b.WriteString("```json\n")
		b.Write(data)
		b.WriteString("\n```\n\n")
	}

	path := filepath.Join(t.dir, f.Header.RunID+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing audit summary: %w", err)
	}
	return nil
}
