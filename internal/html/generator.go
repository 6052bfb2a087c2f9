package html

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mabhi256/bpmx/internal/analysis"
	"github.com/mabhi256/bpmx/utils"
)

// Embed template files at compile time
//
//go:embed templates/template.html
var htmlTemplate string

//go:embed templates/styles.css
var cssContent string

//go:embed templates/app.js
var jsContent string

const DefaultFileName = "analysis.html"

// ReportData is serialised into the page and rendered by app.js.
type ReportData struct {
	Report    *analysis.Report `json:"report"`
	Summary   Summary          `json:"summary"`
	ChartData ChartData        `json:"chartData"`
}

type Summary struct {
	Source       string `json:"source"`
	Tier         string `json:"tier"`
	TierColor    string `json:"tierColor"`
	PeakCapture  string `json:"peakCapture"`
	Components   int    `json:"components"`
	FindingCount int    `json:"findingCount"`
}

type ChartData struct {
	Elements   []FrequencyPoint `json:"elements"`
	Categories []FrequencyPoint `json:"categories"`
}

type FrequencyPoint struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

const chartElements = 20

// GenerateHTMLReport writes a single-file HTML report and returns its
// absolute path.
func GenerateHTMLReport(r *analysis.Report, outputPath string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("invalid report data: report cannot be nil")
	}

	content, err := Render(r)
	if err != nil {
		return "", err
	}

	absPath, err := GetOutputPath(outputPath)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write HTML file: %w", err)
	}
	return absPath, nil
}

// Render returns the HTML document for r.
func Render(r *analysis.Report) (string, error) {
	data := &ReportData{
		Report: r,
		Summary: Summary{
			Source:       r.Source,
			Tier:         r.Tier.String(),
			TierColor:    string(utils.TierColor(int(r.Tier))),
			PeakCapture:  utils.ByteSize(r.PeakCaptureBytes).String(),
			Components:   len(r.Components),
			FindingCount: r.Issues.Count(),
		},
		ChartData: generateChartData(r),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report data: %w", err)
	}
	return generateSingleFileHTMLContent(string(jsonData)), nil
}

func generateChartData(r *analysis.Report) ChartData {
	var elements []FrequencyPoint
	for _, ec := range r.TopElements(chartElements) {
		elements = append(elements, FrequencyPoint{
			Label:      ec.Name,
			Count:      ec.Count,
			Percentage: percentage(ec.Count, r.TotalElements),
		})
	}

	catalogued := r.Inputs.Elements
	var categories []FrequencyPoint
	for _, name := range r.CategoryNames() {
		n := len(r.Entities[name])
		categories = append(categories, FrequencyPoint{
			Label:      name,
			Count:      n,
			Percentage: percentage(n, catalogued),
		})
	}

	return ChartData{Elements: elements, Categories: categories}
}

func percentage(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// GetOutputPath returns a safe output path, creating directories if needed
func GetOutputPath(path string) (string, error) {
	outputPath := path
	if outputPath == "" {
		outputPath = DefaultFileName
	}

	if !strings.HasSuffix(strings.ToLower(outputPath), ".html") {
		outputPath += ".html"
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for %s: %w", outputPath, err)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return absPath, nil
}

// generateSingleFileHTMLContent creates the single-file HTML with embedded CSS/JS
func generateSingleFileHTMLContent(jsonData string) string {
	content := htmlTemplate
	content = strings.ReplaceAll(content, "{{CSS_CONTENT}}", cssContent)
	content = strings.ReplaceAll(content, "{{JS_CONTENT}}", jsContent)
	content = strings.ReplaceAll(content, "{{JSON_DATA}}", jsonData)
	return content
}
