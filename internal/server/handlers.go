package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/KaramelBytes/datalicious/internal/analysis"
	"github.com/KaramelBytes/datalicious/internal/assistant"
	"github.com/KaramelBytes/datalicious/internal/chart"
	"github.com/KaramelBytes/datalicious/internal/dataset"
	"github.com/KaramelBytes/datalicious/internal/export"
	"github.com/KaramelBytes/datalicious/internal/prompt"
)

type datasetInfo struct {
	Name    string   `json:"name"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

func infoOf(ds *dataset.Dataset) datasetInfo {
	return datasetInfo{Name: ds.Name, Rows: ds.Rows(), Columns: ds.ColumnNames()}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": ServiceName + " running",
		"version": s.opts.Version,
		"status":  "operational",
		"endpoints": map[string]string{
			"summarizer":      "/api/summary",
			"visualizer":      "/api/visualize",
			"column_analysis": "/api/analyze-columns",
			"qna":             "/api/qna",
			"export":          "/api/export",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.opts.Version,
		"service": ServiceName,
	})
}

// readUpload parses the multipart "file" field. On failure it has already
// written the error response.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUpload)
	if err := r.ParseMultipartForm(s.opts.MaxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "expected multipart form with a file field")
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return nil, false
	}
	defer file.Close()

	ds, err := dataset.LoadReader(file, header.Filename)
	if err != nil {
		var pe *dataset.ParseError
		if errors.As(err, &pe) {
			writeError(w, http.StatusBadRequest, "could not read file: "+pe.Error())
		} else {
			writeError(w, http.StatusBadRequest, "could not read file")
		}
		return nil, false
	}
	return ds, true
}

func (s *Server) detailLevel(r *http.Request) (analysis.DetailLevel, error) {
	v := r.FormValue("detail")
	if v == "" {
		return s.opts.DetailLevel, nil
	}
	return analysis.ParseDetailLevel(v)
}

type summaryResponse struct {
	Status  string           `json:"status"`
	Summary string           `json:"summary"`
	Result  assistant.Result `json:"result"`
	Dataset datasetInfo      `json:"dataset"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	style, err := prompt.ParseStyle(r.FormValue("style"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	level, err := s.detailLevel(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := s.svc.Summarize(r.Context(), ds, style, level)
	writeJSON(w, http.StatusOK, summaryResponse{Status: "success", Summary: res.Text, Result: res, Dataset: infoOf(ds)})
}

type qnaResponse struct {
	Status  string            `json:"status"`
	Answer  string            `json:"answer"`
	Result  assistant.Result  `json:"result"`
	History assistant.History `json:"history"`
}

func (s *Server) handleQnA(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	question := strings.TrimSpace(r.FormValue("question"))
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	mode, err := prompt.ParseAnswerMode(r.FormValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	level, err := s.detailLevel(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var history assistant.History
	if raw := r.FormValue("history"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			writeError(w, http.StatusBadRequest, "history must be a JSON array of turns")
			return
		}
	}
	res, history := s.svc.Ask(r.Context(), ds, history, question, mode, level)
	writeJSON(w, http.StatusOK, qnaResponse{Status: "success", Answer: res.Text, Result: res, History: history})
}

type visualizeResponse struct {
	Status       string        `json:"status"`
	Figure       *chart.Figure `json:"figure"`
	AnalysisNote string        `json:"analysis_note,omitempty"`
	Suggestions  []string      `json:"suggestions"`
	Dataset      datasetInfo   `json:"dataset"`
}

func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	typ, err := chart.ParseType(r.FormValue("chart_type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	column := r.FormValue("column")
	var fig *chart.Figure
	note := ""
	if column != "" && typ == chart.TypeBar {
		n := 0
		if v := r.FormValue("top_n"); v != "" {
			if n, err = strconv.Atoi(v); err != nil {
				writeError(w, http.StatusBadRequest, "top_n must be an integer")
				return
			}
		}
		bc, err := chart.TopN(ds, column, r.FormValue("label"), n)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		fig = bc.Figure()
	} else {
		fig, err = chart.Build(ds, chart.Request{Type: typ, X: r.FormValue("x_axis"), Y: r.FormValue("y_axis")})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		note = fig.Note
	}
	writeJSON(w, http.StatusOK, visualizeResponse{
		Status:       "success",
		Figure:       fig,
		AnalysisNote: note,
		Suggestions:  chart.Suggestions(ds),
		Dataset:      infoOf(ds),
	})
}

type columnInfo struct {
	Name    string `json:"name"`
	DType   string `json:"dtype"`
	Kind    string `json:"kind"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
}

type columnsResponse struct {
	Status             string       `json:"status"`
	Rows               int          `json:"rows"`
	Columns            []columnInfo `json:"columns"`
	NumericColumns     []string     `json:"numeric_columns"`
	CategoricalColumns []string     `json:"categorical_columns"`
	Suggestions        []string     `json:"suggestions"`
}

func (s *Server) handleAnalyzeColumns(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	d := analysis.BuildContext(ds, analysis.Deep, s.svc.Options)
	resp := columnsResponse{
		Status:             "success",
		Rows:               d.Rows,
		NumericColumns:     d.NumericColumns,
		CategoricalColumns: d.CategoricalColumns,
		Suggestions:        chart.Suggestions(ds),
	}
	for _, c := range d.Cols {
		resp.Columns = append(resp.Columns, columnInfo{
			Name: c.Name, DType: c.DType, Kind: string(c.Kind), Missing: c.Missing, Unique: c.Unique,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type exportRequest struct {
	Summary   string `json:"summary"`
	FrameName string `json:"frame_name"`
	Format    string `json:"format"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := export.Export(req.Summary, req.FrameName, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	log.Debug().Str("artifact_id", a.ID).Str("format", string(a.Format)).Msg("export created")
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "artifact": a})
}
