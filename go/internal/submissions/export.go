package submissions

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/proctor/go/internal/models"
)

var csvHeader = []string{
	"Student", "Roll No", "Question", "Language", "Status", "Score",
	"Execution Time", "Plagiarism", "Tab Switches", "Submitted At",
}

// ExportCSV writes the submissions matching f as CSV.
func (a *App) ExportCSV(ctx context.Context, w io.Writer, f Filter) error {
	views, err := a.List(ctx, f)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, v := range views {
		row := []string{
			v.StudentName,
			v.RollNo,
			v.QuestionTitle,
			string(v.Language),
			string(v.Status),
			strconv.Itoa(v.Score),
			fmt.Sprintf("%dms", v.ExecutionTimeMs),
			fmt.Sprintf("%d%%", v.PlagiarismScore),
			strconv.Itoa(v.TabSwitches),
			v.SubmittedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportPath serves the CSV download.
const ExportPath = "/api/submissions/export.csv"

// NewExportHandler serves ExportCSV over plain HTTP. Query parameters status,
// search and sort map onto Filter.
func NewExportHandler(app *App) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		f := Filter{
			Status: models.SubmissionStatus(q.Get("status")),
			Search: q.Get("search"),
			Sort:   SortOrder(q.Get("sort")),
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="submissions.csv"`)
		if err := app.ExportCSV(r.Context(), w, f); err != nil {
			log.Error().Err(err).Msg("Failed to export submissions")
			http.Error(w, "export failed", http.StatusInternalServerError)
		}
	})
}
