package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/magnetctl/internal/model"
)

// JSONPrinter prints task information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type jobContextOutput struct {
	Title          string   `json:"title"`
	ThemoviedbName string   `json:"themoviedb_name,omitempty"`
	Season         int      `json:"season"`
	Subgroup       string   `json:"subgroup,omitempty"`
	DownloadPath   string   `json:"download_path"`
	Match          []string `json:"match,omitempty"`
	Exclude        []string `json:"exclude,omitempty"`
}

type fileOutput struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	IsDir    bool   `json:"is_dir"`
	Selected bool   `json:"selected"`
	NewName  string `json:"new_name,omitempty"`
}

type taskOutput struct {
	ID         string            `json:"id"`
	Status     string            `json:"status"`
	Progress   int               `json:"progress"`
	JobContext *jobContextOutput `json:"job_context,omitempty"`
	FinalPath  string            `json:"final_path,omitempty"`
	Files      []fileOutput      `json:"files"`
	Error      string            `json:"error,omitempty"`
}

type eventOutput struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Sequence  int       `json:"sequence"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status,omitempty"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintTask prints the task in JSON format.
func (j *JSONPrinter) PrintTask(task model.Task) error {
	output := taskOutput{
		ID:        task.ID,
		Status:    string(task.Status),
		Progress:  task.Progress,
		FinalPath: task.FinalPath,
		Files:     mapFiles(task.Files),
		Error:     task.Error,
	}

	if jc := task.JobContext; jc != nil {
		output.JobContext = &jobContextOutput{
			Title:          jc.Title,
			ThemoviedbName: jc.ThemoviedbName,
			Season:         jc.Season,
			Subgroup:       jc.Subgroup,
			DownloadPath:   jc.DownloadPath,
			Match:          jc.Match,
			Exclude:        jc.Exclude,
		}
	}

	return j.encode(output)
}

// PrintFiles prints the files in JSON format.
func (j *JSONPrinter) PrintFiles(files []model.File) error {
	return j.encode(mapFiles(files))
}

// PrintEvents prints journal events in JSON format.
func (j *JSONPrinter) PrintEvents(events []model.Event) error {
	items := make([]eventOutput, len(events))
	for i, e := range events {
		items[i] = eventOutput{
			ID:        e.ID,
			TaskID:    e.TaskID,
			Sequence:  e.Sequence,
			Kind:      string(e.Kind),
			Status:    string(e.Status),
			Progress:  e.Progress,
			Message:   e.Message,
			CreatedAt: e.CreatedAt.UTC(),
		}
	}

	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func mapFiles(files []model.File) []fileOutput {
	items := make([]fileOutput, len(files))
	for i, f := range files {
		items[i] = fileOutput{
			Name:     f.Name,
			Path:     f.Path,
			Size:     f.Size,
			IsDir:    f.IsDir,
			Selected: f.Selected,
			NewName:  f.NewName,
		}
	}
	return items
}
