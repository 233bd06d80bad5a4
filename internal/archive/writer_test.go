package archive

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matillion/reaction-tally/internal/aggregator"
	"github.com/matillion/reaction-tally/internal/reaction"
)

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter(filepath.Join(t.TempDir(), "runs"))
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	w.now = func() time.Time { return time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC) }
	return w
}

func TestWriteText(t *testing.T) {
	w := newTestWriter(t)

	ref, err := w.WriteText("report", "line one\nline two\n")
	if err != nil {
		t.Fatalf("WriteText failed: %v", err)
	}

	if ref.Name != "report-20250520-090000.txt" {
		t.Errorf("Name: got %q", ref.Name)
	}
	if ref.Lines != 2 {
		t.Errorf("Lines: got %d, want 2", ref.Lines)
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "line one\nline two\n" {
		t.Errorf("content: got %q", data)
	}
	if ref.Bytes != int64(len(data)) {
		t.Errorf("Bytes: got %d, want %d", ref.Bytes, len(data))
	}
}

func TestWriteJSONLines_Basic(t *testing.T) {
	w := newTestWriter(t)

	type testData struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	ref, err := w.WriteJSONLines("test", func(jw JSONLineWriter) error {
		if err := jw.WriteLine(testData{Name: "first", Value: 1}); err != nil {
			return err
		}
		return jw.WriteLine(testData{Name: "second", Value: 2})
	})
	if err != nil {
		t.Fatalf("WriteJSONLines failed: %v", err)
	}

	if ref.Lines != 2 {
		t.Errorf("Lines: got %d, want 2", ref.Lines)
	}
	if !strings.HasSuffix(ref.Name, ".jsonl") {
		t.Errorf("Name: got %q, want .jsonl suffix", ref.Name)
	}

	data, err := os.ReadFile(ref.Path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("File lines: got %d, want 2", len(lines))
	}

	var second testData
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("Failed to unmarshal second line: %v", err)
	}
	if second.Name != "second" || second.Value != 2 {
		t.Errorf("Second line: got %+v, want {Name:second Value:2}", second)
	}
}

func TestWriteJSONLines_CallbackError(t *testing.T) {
	w := newTestWriter(t)

	wantErr := errors.New("boom")
	_, err := w.WriteJSONLines("test", func(jw JSONLineWriter) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("error: got %v, want %v", err, wantErr)
	}
}

func TestWriteRun(t *testing.T) {
	w := newTestWriter(t)

	targets := reaction.NewTargetUsers([]reaction.User{{ID: "u1", DisplayName: "Team A4"}}, []string{"Team A4"})
	tally := reaction.NewTally(targets)
	tally.Add("u1", 2)

	res := &aggregator.Result{
		State:  aggregator.StateCompleted,
		Tally:  tally,
		Groups: []reaction.Group{{Name: "A4", Count: 2}},
		Report: "report text\n",
		Channels: []aggregator.ChannelOutcome{
			{ChannelID: "C1", Status: aggregator.ChannelOK, Messages: 3, Counted: 2},
			{ChannelID: "C2", Status: aggregator.ChannelSkipped, Error: "join denied"},
		},
		PublishErr: errors.New("channel_not_found"),
	}

	files, err := w.WriteRun(res)
	if err != nil {
		t.Fatalf("WriteRun failed: %v", err)
	}
	if files.Channels.Lines != 2 {
		t.Errorf("channel lines: got %d, want 2", files.Channels.Lines)
	}

	data, err := os.ReadFile(files.Summary.Path)
	if err != nil {
		t.Fatalf("Failed to read summary: %v", err)
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		t.Fatalf("Failed to parse summary: %v", err)
	}
	if summary.Total != 2 || summary.Tally["u1"] != 2 {
		t.Errorf("summary: got %+v", summary)
	}
	if summary.PublishErr != "channel_not_found" {
		t.Errorf("publish error: got %q", summary.PublishErr)
	}
}
