package reporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"pathfinder/internal/core/model"
)

const utf8BOM = "\xEF\xBB\xBF"

// SaveCSV 将表格数据写入 CSV，带 UTF-8 BOM 防止 Excel 打开乱码
func SaveCSV(path string, data TabularData) error {
	headers := data.Headers()
	if len(headers) == 0 {
		return fmt.Errorf("no tabular data to export")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("failed to write bom: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	if err := w.WriteAll(data.Rows()); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// SaveJSON 缩进格式写入 JSON
func SaveJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write json file: %w", err)
	}
	return nil
}

// FileReporter 把快照写入 JSON 与 CSV 文件，路径为空则跳过对应格式
type FileReporter struct {
	JSONPath string
	CSVPath  string
}

func NewFileReporter(jsonPath, csvPath string) *FileReporter {
	return &FileReporter{JSONPath: jsonPath, CSVPath: csvPath}
}

func (r *FileReporter) Report(_ context.Context, snap *model.ScanSnapshot) error {
	if snap == nil {
		return nil
	}
	if r.JSONPath != "" {
		if err := SaveJSON(r.JSONPath, snap); err != nil {
			return err
		}
	}
	if r.CSVPath != "" {
		if err := SaveCSV(r.CSVPath, model.HostRows(snap.Hosts)); err != nil {
			return err
		}
	}
	return nil
}
