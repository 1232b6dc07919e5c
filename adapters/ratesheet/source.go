package ratesheet

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"opticost/internal/errors"
)

// maxSheetBytes bounds a downloaded sheet
const maxSheetBytes = 8 << 20

// Fetcher reads sheets from files or URLs
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a fetcher whose downloads time out after timeout
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Rows returns all rows of the sheet at location, header included.
// URLs are read as CSV; local files as CSV or, for .xlsx, from the first worksheet.
func (f *Fetcher) Rows(ctx context.Context, location string) ([][]string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New(errors.TypeConfig, "empty sheet location")
	}

	if isURL(location) {
		data, err := f.download(ctx, location)
		if err != nil {
			return nil, err
		}
		return parseCSV(bytes.NewReader(data))
	}

	if strings.EqualFold(filepath.Ext(location), ".xlsx") {
		return readWorkbook(location)
	}

	file, err := os.Open(location)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("rate sheet", location)
		}
		return nil, errors.Wrap(errors.TypeInput, "open rate sheet", err)
	}
	defer file.Close()
	return parseCSV(file)
}

func isURL(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "invalid sheet url", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeNetwork, err, "download %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Newf(errors.TypeNetwork, "download %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSheetBytes))
	if err != nil {
		return nil, errors.Wrapf(errors.TypeNetwork, err, "read %s", url)
	}
	return data, nil
}

// parseCSV sniffs the delimiter from the header line: ';' if present, else ','
func parseCSV(r io.Reader) ([][]string, error) {
	buffered := bufio.NewReader(r)
	header, err := buffered.Peek(buffered.Size())
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, errors.Parsing("read csv", err)
	}
	firstLine := header
	if i := bytes.IndexByte(header, '\n'); i >= 0 {
		firstLine = header[:i]
	}

	reader := csv.NewReader(buffered)
	reader.Comma = ','
	if bytes.IndexByte(firstLine, ';') >= 0 {
		reader.Comma = ';'
	}
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Parsing("failed to parse CSV", err)
	}
	return trimRows(rows), nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("rate sheet", path)
		}
		return nil, errors.Parsing("failed to open Excel file", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.Parsing(fmt.Sprintf("failed to read first sheet of %s", path), err)
	}
	return trimRows(rows), nil
}

// trimRows trims every cell and strips a UTF-8 byte order mark
func trimRows(rows [][]string) [][]string {
	for i, row := range rows {
		for j, value := range row {
			if i == 0 && j == 0 {
				value = strings.TrimPrefix(value, "\ufeff")
			}
			rows[i][j] = strings.TrimSpace(value)
		}
	}
	return rows
}

// cell returns row[idx], or "" when the row is short or idx is negative
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
