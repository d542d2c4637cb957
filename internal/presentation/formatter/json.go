package formatter

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-worktime/internal/core/model"
	"github.com/penwyp/go-worktime/internal/presentation/report"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) FormatReport(w io.Writer, r report.Report) error {
	return writeJSON(w, r)
}

type workLogOutput struct {
	Authors    []model.AuthorWorkRecord `json:"authors"`
	TotalHours float64                  `json:"totalHours"`
}

func (f *JSONFormatter) FormatWorkLog(w io.Writer, records []model.AuthorWorkRecord) error {
	out := workLogOutput{Authors: records}
	if out.Authors == nil {
		out.Authors = []model.AuthorWorkRecord{}
	}
	for _, r := range records {
		out.TotalHours += r.TotalHours
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
