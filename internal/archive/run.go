package archive

import (
	"github.com/matillion/reaction-tally/internal/aggregator"
	"github.com/matillion/reaction-tally/internal/reaction"
)

// Summary is the JSON form of a run.
type Summary struct {
	State       aggregator.State `json:"state"`
	Total       int              `json:"total"`
	Tally       map[string]int   `json:"tally"`
	Groups      []reaction.Group `json:"groups"`
	PublishedTS string           `json:"published_ts,omitempty"`
	PublishErr  string           `json:"publish_error,omitempty"`
}

// RunFiles are the files written for one run.
type RunFiles struct {
	Report   FileRef `json:"report"`
	Summary  FileRef `json:"summary"`
	Channels FileRef `json:"channels"`
}

// WriteRun writes the report, the summary and one line per channel.
func (w *Writer) WriteRun(res *aggregator.Result) (RunFiles, error) {
	var files RunFiles
	var err error

	files.Report, err = w.WriteText("report", res.Report)
	if err != nil {
		return files, err
	}

	summary := Summary{
		State:       res.State,
		Groups:      res.Groups,
		PublishedTS: res.PublishedTS,
	}
	if res.Tally != nil {
		summary.Total = res.Tally.Total()
		summary.Tally = res.Tally.Map()
	}
	if res.PublishErr != nil {
		summary.PublishErr = res.PublishErr.Error()
	}
	files.Summary, err = w.WriteJSON("summary", summary)
	if err != nil {
		return files, err
	}

	files.Channels, err = w.WriteJSONLines("channels", func(jw JSONLineWriter) error {
		for _, ch := range res.Channels {
			if err := jw.WriteLine(ch); err != nil {
				return err
			}
		}
		return nil
	})
	return files, err
}
